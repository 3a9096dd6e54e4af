package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

// UserUseCase manages accounts. Every method requires the ADMIN role.
type UserUseCase struct {
	tx      ports.Transactor
	users   ports.UserStore
	catalog ports.CatalogStore
	hasher  ports.PasswordHasher
	trail   *AuditTrail
	now     func() time.Time
}

func NewUserUseCase(
	tx ports.Transactor,
	users ports.UserStore,
	catalog ports.CatalogStore,
	hasher ports.PasswordHasher,
	trail *AuditTrail,
) *UserUseCase {
	return &UserUseCase{
		tx:      tx,
		users:   users,
		catalog: catalog,
		hasher:  hasher,
		trail:   trail,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *UserUseCase) Create(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.CreateUserInput) (*domain.User, error) {
	if err := requireRole(caller, "create user", domain.RoleAdmin); err != nil {
		return nil, err
	}
	return uc.create(ctx, &caller, meta, in)
}

// BootstrapAdmin creates an administrator without an authenticated caller, for first-time
// setup from the command line. The audit entry names the new account as its own actor.
func (uc *UserUseCase) BootstrapAdmin(ctx context.Context, in domain.CreateUserInput) (*domain.User, error) {
	in.Rol = domain.RoleAdmin
	return uc.create(ctx, nil, domain.RequestMeta{IP: "127.0.0.1", UserAgent: "archivoctl"}, in)
}

func (uc *UserUseCase) create(ctx context.Context, caller *domain.Principal, meta domain.RequestMeta, in domain.CreateUserInput) (*domain.User, error) {
	user := &domain.User{
		Username:               strings.TrimSpace(in.Username),
		Email:                  strings.ToLower(strings.TrimSpace(in.Email)),
		Nombre:                 strings.TrimSpace(in.Nombre),
		ApellidoPaterno:        strings.TrimSpace(in.ApellidoPaterno),
		ApellidoMaterno:        strings.TrimSpace(in.ApellidoMaterno),
		Rol:                    in.Rol,
		UnidadAdministrativaID: in.UnidadAdministrativaID,
		Activo:                 true,
	}
	var errs domain.ValidationErrors
	if user.Username == "" {
		errs.Add("username", "is required")
	}
	if len(in.Password) < minPasswordLength {
		errs.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	validateUserFields(&errs, user)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := uc.checkUnit(ctx, user.UnidadAdministrativaID); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash
	now := uc.now()
	user.CreatedAt, user.UpdatedAt = now, now

	err = uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		actor := user.Principal()
		if caller != nil {
			actor = *caller
		}
		entry := newAuditEntry(actor, meta, domain.AuditCreate, domain.EntityUser, user.ID,
			fmt.Sprintf("User %s created with role %s", user.Username, user.Rol))
		entry.DatosNuevos = domain.Snapshot(user)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) Get(ctx context.Context, caller domain.Principal, id int64) (*domain.User, error) {
	if err := requireRole(caller, "get user", domain.RoleAdmin); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, id)
}

func (uc *UserUseCase) List(ctx context.Context, caller domain.Principal, filter domain.UserFilter) (*domain.PageResult[domain.User], error) {
	if err := requireRole(caller, "list users", domain.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.Rol != "" && !filter.Rol.Valid() {
		return nil, &domain.ValidationError{Field: "rol", Message: "unknown role", Allowed: domain.AllRoles()}
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalized()
	items, total, err := uc.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &domain.PageResult[domain.User]{Items: items, Pagination: domain.NewPagination(filter.Page, total)}, nil
}

func (uc *UserUseCase) Update(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64, in domain.UpdateUserInput) (*domain.User, error) {
	if err := requireRole(caller, "update user", domain.RoleAdmin); err != nil {
		return nil, err
	}
	if id == caller.UserID && in.Activo != nil && !*in.Activo {
		return nil, domain.NewError(domain.ErrInvalidState, "update user", "administrators cannot deactivate themselves")
	}

	var updated *domain.User
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		before := domain.Snapshot(user)
		applyUserPatch(user, in)

		var errs domain.ValidationErrors
		validateUserFields(&errs, user)
		if err := errs.Err(); err != nil {
			return err
		}
		if in.UnidadAdministrativaID != nil {
			if err := uc.checkUnit(ctx, user.UnidadAdministrativaID); err != nil {
				return err
			}
		}
		user.UpdatedAt = uc.now()
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		entry := newAuditEntry(caller, meta, domain.AuditUpdate, domain.EntityUser, user.ID,
			fmt.Sprintf("User %s updated", user.Username))
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(user)
		if err := uc.trail.RecordInTx(ctx, tx.Audit(), entry); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deactivate is the soft delete for accounts; the row stays for audit history.
func (uc *UserUseCase) Deactivate(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64) (*domain.User, error) {
	if err := requireRole(caller, "deactivate user", domain.RoleAdmin); err != nil {
		return nil, err
	}
	if id == caller.UserID {
		return nil, domain.NewError(domain.ErrInvalidState, "deactivate user", "administrators cannot deactivate themselves")
	}

	var updated *domain.User
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !user.Activo {
			return domain.NewError(domain.ErrInvalidState, "deactivate user", "user is already inactive")
		}
		before := domain.Snapshot(user)
		user.Activo = false
		user.UpdatedAt = uc.now()
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		entry := newAuditEntry(caller, meta, domain.AuditDelete, domain.EntityUser, user.ID,
			fmt.Sprintf("User %s deactivated", user.Username))
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(user)
		if err := uc.trail.RecordInTx(ctx, tx.Audit(), entry); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *UserUseCase) checkUnit(ctx context.Context, unitID *int64) error {
	if unitID == nil {
		return nil
	}
	if _, err := uc.catalog.GetUnit(ctx, *unitID); err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return &domain.ValidationError{Field: "unidadAdministrativaId", Message: "administrative unit does not exist"}
		}
		return err
	}
	return nil
}

func validateUserFields(errs *domain.ValidationErrors, user *domain.User) {
	if user.Email == "" {
		errs.Add("email", "is required")
	} else if _, err := mail.ParseAddress(user.Email); err != nil {
		errs.Add("email", "is not a valid address")
	}
	if user.Nombre == "" {
		errs.Add("nombre", "is required")
	}
	if user.ApellidoPaterno == "" {
		errs.Add("apellidoPaterno", "is required")
	}
	if !user.Rol.Valid() {
		errs.Add("rol", "unknown role", domain.AllRoles()...)
	} else if !user.Rol.BypassesUnitScope() && user.UnidadAdministrativaID == nil {
		errs.Add("unidadAdministrativaId", "is required for role "+string(user.Rol))
	}
}

func applyUserPatch(user *domain.User, in domain.UpdateUserInput) {
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Nombre != nil {
		user.Nombre = strings.TrimSpace(*in.Nombre)
	}
	if in.ApellidoPaterno != nil {
		user.ApellidoPaterno = strings.TrimSpace(*in.ApellidoPaterno)
	}
	if in.ApellidoMaterno != nil {
		user.ApellidoMaterno = strings.TrimSpace(*in.ApellidoMaterno)
	}
	if in.Rol != nil {
		user.Rol = *in.Rol
	}
	if in.UnidadAdministrativaID != nil {
		unit := *in.UnidadAdministrativaID
		user.UnidadAdministrativaID = &unit
	}
	if in.Activo != nil {
		user.Activo = *in.Activo
	}
}
