package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

const minPasswordLength = 8

// errBadCredentials is shared by every login failure so callers cannot tell which accounts exist.
const errBadCredentials = "invalid username or password"

type AuthUseCase struct {
	users   ports.UserStore
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	revoker ports.TokenRevoker
	tx      ports.Transactor
	trail   *AuditTrail
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthUseCase builds the session use case. revoker may be nil, in which case logout only audits.
func NewAuthUseCase(
	users ports.UserStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	revoker ports.TokenRevoker,
	tx ports.Transactor,
	trail *AuditTrail,
	logger *slog.Logger,
) *AuthUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthUseCase{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		tx:      tx,
		trail:   trail,
		logger:  logger.With("component", "auth"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *AuthUseCase) Login(ctx context.Context, login, password string, meta domain.RequestMeta) (*domain.AuthSession, error) {
	login = strings.TrimSpace(login)
	var errs domain.ValidationErrors
	if login == "" {
		errs.Add("username", "is required")
	}
	if password == "" {
		errs.Add("password", "is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := uc.users.GetByLogin(ctx, login)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrUnauthenticated, "login", errBadCredentials)
		}
		return nil, fmt.Errorf("load user for login: %w", err)
	}
	if !user.Activo {
		return nil, domain.NewError(domain.ErrUnauthenticated, "login", errBadCredentials)
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		return nil, domain.NewError(domain.ErrUnauthenticated, "login", errBadCredentials)
	}

	token, claims, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := uc.now()
	if err := uc.users.TouchLastAccess(ctx, user.ID, now); err != nil {
		uc.logger.Warn("update last access failed", "error", err, "usuario_id", user.ID)
	} else {
		user.UltimoAcceso = &now
	}

	entry := newAuditEntry(user.Principal(), meta, domain.AuditLogin, domain.EntityUser, user.ID,
		fmt.Sprintf("User %s logged in", user.Username))
	uc.trail.RecordBestEffort(ctx, entry)

	return &domain.AuthSession{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to the caller. Role and unit come from the stored
// account, not the token, so demotions take effect on the next request.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, domain.NewError(domain.ErrUnauthenticated, "authenticate", "missing bearer token")
	}
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		return domain.Principal{}, domain.WrapError(domain.ErrUnauthenticated, "authenticate", err)
	}
	if uc.revoker != nil && claims.TokenID != "" {
		revoked, err := uc.revoker.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return domain.Principal{}, domain.WrapError(domain.ErrTemporary, "check token revocation", err)
		}
		if revoked {
			return domain.Principal{}, domain.NewError(domain.ErrUnauthenticated, "authenticate", "token has been revoked")
		}
	}

	user, err := uc.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return domain.Principal{}, domain.NewError(domain.ErrUnauthenticated, "authenticate", "account no longer exists")
		}
		return domain.Principal{}, fmt.Errorf("load user for token: %w", err)
	}
	if !user.Activo {
		return domain.Principal{}, domain.NewError(domain.ErrUnauthenticated, "authenticate", "account is inactive")
	}

	principal := user.Principal()
	principal.TokenID = claims.TokenID
	principal.TokenExpiresAt = claims.ExpiresAt
	return principal, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, caller domain.Principal, meta domain.RequestMeta) error {
	if uc.revoker != nil && caller.TokenID != "" {
		if err := uc.revoker.Revoke(ctx, caller.TokenID, caller.TokenExpiresAt); err != nil {
			return domain.WrapError(domain.ErrTemporary, "revoke token", err)
		}
	}
	entry := newAuditEntry(caller, meta, domain.AuditLogout, domain.EntityUser, caller.UserID,
		fmt.Sprintf("User %s logged out", caller.Username))
	uc.trail.RecordBestEffort(ctx, entry)
	return nil
}

func (uc *AuthUseCase) Me(ctx context.Context, caller domain.Principal) (*domain.User, error) {
	return uc.users.GetByID(ctx, caller.UserID)
}

func (uc *AuthUseCase) ChangePassword(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, current, next string) error {
	var errs domain.ValidationErrors
	if current == "" {
		errs.Add("currentPassword", "is required")
	}
	if len(next) < minPasswordLength {
		errs.Add("newPassword", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if err := errs.Err(); err != nil {
		return err
	}

	return uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		user, err := tx.Users().GetByID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if err := uc.hasher.Compare(user.Password, current); err != nil {
			return &domain.ValidationError{Field: "currentPassword", Message: "does not match"}
		}
		hash, err := uc.hasher.Hash(next)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if err := tx.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		entry := newAuditEntry(caller, meta, domain.AuditUpdate, domain.EntityUser, user.ID,
			fmt.Sprintf("User %s changed password", user.Username))
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
}
