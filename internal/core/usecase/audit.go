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

const topAuditUsers = 10

// AuditTrail is the single write path into the bitácora. State-machine transitions use
// RecordInTx with the transaction's store; side-channel events use RecordBestEffort.
type AuditTrail struct {
	store   ports.AuditStore
	metrics ports.AuditMetrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuditTrail(store ports.AuditStore, metrics ports.AuditMetrics, logger *slog.Logger) *AuditTrail {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditTrail{
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "audit_trail"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordInTx validates and inserts entry through the transaction-bound store.
func (t *AuditTrail) RecordInTx(ctx context.Context, store ports.AuditStore, entry *domain.AuditEntry) error {
	if err := validateAuditEntry(entry); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = t.now()
	}
	if err := store.Insert(ctx, entry); err != nil {
		t.observe("tx", "error")
		return domain.WrapError(domain.ErrTemporary, "write audit entry", err)
	}
	t.observe("tx", "ok")
	return nil
}

// RecordBestEffort writes entry outside any transaction. Failures are logged, never returned.
func (t *AuditTrail) RecordBestEffort(ctx context.Context, entry *domain.AuditEntry) {
	if err := validateAuditEntry(entry); err != nil {
		t.logger.Warn("audit entry rejected", "error", err, "accion", entry.Accion, "entidad", entry.Entidad)
		t.observe("best_effort", "invalid")
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = t.now()
	}
	if err := t.store.Insert(ctx, entry); err != nil {
		t.logger.Warn("best-effort audit write failed",
			"error", err,
			"accion", entry.Accion,
			"entidad", entry.Entidad,
			"entidad_id", entry.EntidadID,
			"usuario_id", entry.UsuarioID,
		)
		t.observe("best_effort", "error")
		return
	}
	t.observe("best_effort", "ok")
}

func (t *AuditTrail) observe(path, outcome string) {
	if t.metrics != nil {
		t.metrics.RecordAuditWrite(path, outcome)
	}
}

func validateAuditEntry(entry *domain.AuditEntry) error {
	var errs domain.ValidationErrors
	if entry == nil {
		errs.Add("entry", "is required")
		return errs.Err()
	}
	if !entry.Accion.Valid() {
		errs.Add("accion", "must be one of the enumerated actions", domain.AllAuditActions()...)
	}
	if strings.TrimSpace(entry.Entidad) == "" {
		errs.Add("entidad", "is required")
	}
	if strings.TrimSpace(entry.EntidadID) == "" {
		errs.Add("entidadId", "is required")
	}
	if strings.TrimSpace(entry.Descripcion) == "" {
		errs.Add("descripcion", "is required")
	}
	return errs.Err()
}

func newAuditEntry(caller domain.Principal, meta domain.RequestMeta, action domain.AuditAction, entity string, entityID int64, description string) *domain.AuditEntry {
	return &domain.AuditEntry{
		UsuarioID:   caller.UserID,
		Accion:      action,
		Entidad:     entity,
		EntidadID:   fmt.Sprintf("%d", entityID),
		Descripcion: description,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	}
}

type AuditUseCase struct {
	trail     *AuditTrail
	store     ports.AuditStore
	users     ports.UserStore
	caseFiles ports.CaseFileStore
	now       func() time.Time
}

func NewAuditUseCase(trail *AuditTrail, store ports.AuditStore, users ports.UserStore, caseFiles ports.CaseFileStore) *AuditUseCase {
	return &AuditUseCase{
		trail:     trail,
		store:     store,
		users:     users,
		caseFiles: caseFiles,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *AuditUseCase) Record(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.RecordAuditInput) (*domain.AuditEntry, error) {
	entry := &domain.AuditEntry{
		UsuarioID:    caller.UserID,
		Accion:       in.Accion,
		Entidad:      strings.TrimSpace(in.Entidad),
		EntidadID:    strings.TrimSpace(in.EntidadID),
		Descripcion:  strings.TrimSpace(in.Descripcion),
		DatosPrevios: in.DatosPrevios,
		DatosNuevos:  in.DatosNuevos,
		ExpedienteID: in.ExpedienteID,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	}
	if err := uc.trail.RecordInTx(ctx, uc.store, entry); err != nil {
		return nil, err
	}
	stored, err := uc.store.GetByID(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("reload audit entry: %w", err)
	}
	return stored, nil
}

func (uc *AuditUseCase) List(ctx context.Context, caller domain.Principal, filter domain.AuditFilter) (*domain.PageResult[domain.AuditEntry], error) {
	if err := requireRole(caller, "list audit entries", privileged...); err != nil {
		return nil, err
	}
	if filter.Accion != "" && !filter.Accion.Valid() {
		return nil, &domain.ValidationError{Field: "accion", Message: "unknown action", Allowed: domain.AllAuditActions()}
	}
	filter.Page = filter.Page.Normalized()
	items, total, err := uc.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return &domain.PageResult[domain.AuditEntry]{Items: items, Pagination: domain.NewPagination(filter.Page, total)}, nil
}

func (uc *AuditUseCase) Get(ctx context.Context, caller domain.Principal, id int64) (*domain.AuditEntry, error) {
	if err := requireRole(caller, "get audit entry", privileged...); err != nil {
		return nil, err
	}
	return uc.store.GetByID(ctx, id)
}

func (uc *AuditUseCase) ListForCaseFile(ctx context.Context, caller domain.Principal, caseFileID int64, page domain.Page) (*domain.PageResult[domain.AuditEntry], error) {
	file, err := uc.caseFiles.GetByID(ctx, caseFileID)
	if err != nil {
		return nil, err
	}
	if err := requireUnitAccess(caller, "list case file audit", file.UnidadAdministrativaID); err != nil {
		return nil, err
	}
	filter := domain.AuditFilter{CaseFileID: &caseFileID, Page: page.Normalized()}
	items, total, err := uc.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list case file audit: %w", err)
	}
	return &domain.PageResult[domain.AuditEntry]{Items: items, Pagination: domain.NewPagination(filter.Page, total)}, nil
}

func (uc *AuditUseCase) Statistics(ctx context.Context, caller domain.Principal, filter domain.AuditFilter) (*domain.AuditStatistics, error) {
	if err := requireRole(caller, "audit statistics", privileged...); err != nil {
		return nil, err
	}
	total, err := uc.store.Count(ctx, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}
	byAction, err := uc.store.CountByAction(ctx, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("count audit entries by action: %w", err)
	}
	byEntity, err := uc.store.CountByEntity(ctx, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("count audit entries by entity: %w", err)
	}
	top, err := uc.store.TopUsers(ctx, filter.From, filter.To, topAuditUsers)
	if err != nil {
		return nil, fmt.Errorf("top audit users: %w", err)
	}
	if err := uc.resolveUserNames(ctx, top); err != nil {
		return nil, err
	}
	return &domain.AuditStatistics{
		Total:     total,
		ByAction:  byAction,
		ByEntity:  byEntity,
		TopUsers:  top,
		RangeFrom: filter.From,
		RangeTo:   filter.To,
	}, nil
}

func (uc *AuditUseCase) resolveUserNames(ctx context.Context, activity []domain.UserActivity) error {
	if len(activity) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(activity))
	for _, a := range activity {
		ids = append(ids, a.UsuarioID)
	}
	users, err := uc.users.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve audit user names: %w", err)
	}
	byID := make(map[int64]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range activity {
		if u, ok := byID[activity[i].UsuarioID]; ok {
			activity[i].Username = u.Username
			activity[i].Nombre = u.FullName()
		}
	}
	return nil
}

// Purge deletes every entry created before now - olderThanDays. It cannot be undone.
func (uc *AuditUseCase) Purge(ctx context.Context, caller domain.Principal, olderThanDays int) (int64, error) {
	if err := requireRole(caller, "purge audit log", domain.RoleAdmin); err != nil {
		return 0, err
	}
	if olderThanDays < 1 {
		return 0, &domain.ValidationError{Field: "olderThanDays", Message: "must be a positive number of days"}
	}
	cutoff := uc.now().AddDate(0, 0, -olderThanDays)
	deleted, err := uc.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", err)
	}
	return deleted, nil
}
