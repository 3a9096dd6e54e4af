package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

// LoanUseCase runs the PENDIENTE → AUTORIZADO|RECHAZADO → DEVUELTO workflow and mirrors it
// onto the case file estado. Every transition is one database transaction.
type LoanUseCase struct {
	tx    ports.Transactor
	loans ports.LoanStore
	trail *AuditTrail
	now   func() time.Time
}

func NewLoanUseCase(tx ports.Transactor, loans ports.LoanStore, trail *AuditTrail) *LoanUseCase {
	return &LoanUseCase{
		tx:    tx,
		loans: loans,
		trail: trail,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (uc *LoanUseCase) Request(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.RequestLoanInput) (*domain.Loan, error) {
	now := uc.now()
	var errs domain.ValidationErrors
	if in.CaseFileID <= 0 {
		errs.Add("caseFileId", "is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		errs.Add("reason", "is required")
	}
	if in.ExpectedReturnDate.IsZero() {
		errs.Add("expectedReturnDate", "is required")
	} else if !in.ExpectedReturnDate.After(now) {
		errs.Add("expectedReturnDate", "must be in the future")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var loanID int64
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		file, err := tx.CaseFiles().GetByIDForUpdate(ctx, in.CaseFileID)
		if err != nil {
			return err
		}
		if err := requireUnitAccess(caller, "request loan", file.UnidadAdministrativaID); err != nil {
			return err
		}
		if file.Estado == domain.CaseFileOnLoan {
			return domain.NewError(domain.ErrNotAvailable, "request loan", "case file is already on loan")
		}
		if !file.Estado.Lendable() {
			return domain.NewError(domain.ErrNotAvailable, "request loan", fmt.Sprintf("case file in estado %s cannot be lent", file.Estado))
		}

		loan := &domain.Loan{
			ExpedienteID:            file.ID,
			UsuarioID:               caller.UserID,
			Estado:                  domain.LoanPending,
			FechaPrestamo:           now,
			FechaDevolucionEsperada: in.ExpectedReturnDate.UTC(),
			MotivoPrestamo:          strings.TrimSpace(in.Reason),
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		if err := tx.Loans().Create(ctx, loan); err != nil {
			return err
		}
		loanID = loan.ID

		entry := newAuditEntry(caller, meta, domain.AuditLoan, domain.EntityLoan, loan.ID,
			fmt.Sprintf("Loan requested for case file %s", file.NumeroExpediente))
		entry.ExpedienteID = &file.ID
		entry.DatosNuevos = domain.Snapshot(loan)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}
	return uc.reload(ctx, loanID)
}

func (uc *LoanUseCase) Authorize(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, loanID int64, notes string) (*domain.Loan, error) {
	if err := requireRole(caller, "authorize loan", privileged...); err != nil {
		return nil, err
	}
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		loan, err := lockPending(ctx, tx, loanID, "authorize loan")
		if err != nil {
			return err
		}
		file, err := tx.CaseFiles().GetByIDForUpdate(ctx, loan.ExpedienteID)
		if err != nil {
			return err
		}
		if file.Estado == domain.CaseFileOnLoan {
			return domain.NewError(domain.ErrInvalidState, "authorize loan", "case file is already on loan")
		}
		if !file.Estado.Lendable() {
			return domain.NewError(domain.ErrInvalidState, "authorize loan", fmt.Sprintf("case file in estado %s cannot be lent", file.Estado))
		}

		before := domain.Snapshot(loan)
		authorizer := caller.UserID
		loan.Estado = domain.LoanAuthorized
		loan.AutorizadoPorID = &authorizer
		if n := strings.TrimSpace(notes); n != "" {
			loan.Observaciones = n
		}
		loan.UpdatedAt = uc.now()
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}
		if err := tx.CaseFiles().UpdateStatus(ctx, file.ID, domain.CaseFileOnLoan, caller.UserID); err != nil {
			return err
		}

		entry := newAuditEntry(caller, meta, domain.AuditLoan, domain.EntityLoan, loan.ID,
			fmt.Sprintf("Loan authorized for case file %s", file.NumeroExpediente))
		entry.ExpedienteID = &file.ID
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(loan)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}
	return uc.reload(ctx, loanID)
}

func (uc *LoanUseCase) Reject(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, loanID int64, reason string) (*domain.Loan, error) {
	if err := requireRole(caller, "reject loan", privileged...); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &domain.ValidationError{Field: "rejectReason", Message: "is required"}
	}
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		loan, err := lockPending(ctx, tx, loanID, "reject loan")
		if err != nil {
			return err
		}
		before := domain.Snapshot(loan)
		authorizer := caller.UserID
		loan.Estado = domain.LoanRejected
		loan.AutorizadoPorID = &authorizer
		loan.Observaciones = reason
		loan.UpdatedAt = uc.now()
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}

		entry := newAuditEntry(caller, meta, domain.AuditUpdate, domain.EntityLoan, loan.ID,
			"Loan rejected: "+reason)
		entry.ExpedienteID = &loan.ExpedienteID
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(loan)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}
	return uc.reload(ctx, loanID)
}

func (uc *LoanUseCase) Return(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, loanID int64, notes string) (*domain.ReturnResult, error) {
	var wasLate bool
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx ports.TxStores) error {
		loan, err := tx.Loans().GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.Estado.Active() {
			return domain.NewError(domain.ErrInvalidState, "return loan", fmt.Sprintf("loan is not out (estado %s)", loan.Estado))
		}
		file, err := tx.CaseFiles().GetByIDForUpdate(ctx, loan.ExpedienteID)
		if err != nil {
			return err
		}
		if !caller.Role.BypassesUnitScope() && caller.UserID != loan.UsuarioID && !caller.CanAccessUnit(file.UnidadAdministrativaID) {
			return domain.NewError(domain.ErrForbidden, "return loan", "only the requester, the case file unit or the archive may return this loan")
		}

		now := uc.now()
		wasLate = loan.IsLate(now)
		before := domain.Snapshot(loan)
		loan.Estado = domain.LoanReturned
		loan.FechaDevolucionReal = &now
		if n := strings.TrimSpace(notes); n != "" {
			loan.Observaciones = n
		}
		loan.UpdatedAt = now
		if err := tx.Loans().Update(ctx, loan); err != nil {
			return err
		}
		if err := tx.CaseFiles().UpdateStatus(ctx, file.ID, domain.CaseFileActive, caller.UserID); err != nil {
			return err
		}

		description := fmt.Sprintf("Case file %s returned", file.NumeroExpediente)
		if wasLate {
			description += fmt.Sprintf(" late (%d day(s) overdue)", daysLate(loan.FechaDevolucionEsperada, now))
		}
		entry := newAuditEntry(caller, meta, domain.AuditReturn, domain.EntityLoan, loan.ID, description)
		entry.ExpedienteID = &file.ID
		entry.DatosPrevios = before
		entry.DatosNuevos = domain.Snapshot(loan)
		return uc.trail.RecordInTx(ctx, tx.Audit(), entry)
	})
	if err != nil {
		return nil, err
	}

	loan, err := uc.reload(ctx, loanID)
	if err != nil {
		return nil, err
	}
	message := "Loan returned on time"
	if wasLate {
		message = "Loan returned after the expected return date"
	}
	return &domain.ReturnResult{Loan: loan, WasLate: wasLate, Message: message}, nil
}

func (uc *LoanUseCase) Get(ctx context.Context, caller domain.Principal, loanID int64) (*domain.Loan, error) {
	loan, err := uc.reload(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.UsuarioID == caller.UserID {
		return loan, nil
	}
	if loan.Expediente != nil {
		if err := requireUnitAccess(caller, "get loan", loan.Expediente.UnidadID); err != nil {
			return nil, err
		}
	}
	return loan, nil
}

func (uc *LoanUseCase) List(ctx context.Context, caller domain.Principal, filter domain.LoanFilter) (*domain.PageResult[domain.Loan], error) {
	if filter.Estado != "" && !filter.Estado.Valid() {
		return nil, &domain.ValidationError{Field: "estado", Message: "unknown loan estado", Allowed: domain.AllLoanStatuses()}
	}
	if unit := caller.ScopedUnit(); unit != nil {
		filter.UnitID = unit
	}
	filter.Page = filter.Page.Normalized()
	items, total, err := uc.loans.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	now := uc.now()
	for i := range items {
		items[i].Vencido = items[i].IsOverdue(now)
	}
	return &domain.PageResult[domain.Loan]{Items: items, Pagination: domain.NewPagination(filter.Page, total)}, nil
}

func (uc *LoanUseCase) Stats(ctx context.Context, caller domain.Principal) (*domain.LoanStats, error) {
	unit := caller.ScopedUnit()
	counts, err := uc.loans.CountByStatus(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("count loans by estado: %w", err)
	}
	stats := &domain.LoanStats{ByStatus: make(map[string]int, len(domain.AllLoanStatuses()))}
	for _, s := range domain.AllLoanStatuses() {
		stats.ByStatus[s] = 0
	}
	for _, c := range counts {
		stats.ByStatus[c.Estado] = c.Total
		stats.Total += c.Total
	}
	overdue, err := uc.loans.CountOverdue(ctx, unit, uc.now())
	if err != nil {
		return nil, fmt.Errorf("count overdue loans: %w", err)
	}
	stats.Overdue = overdue
	return stats, nil
}

func (uc *LoanUseCase) reload(ctx context.Context, loanID int64) (*domain.Loan, error) {
	loan, err := uc.loans.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	loan.Vencido = loan.IsOverdue(uc.now())
	return loan, nil
}

func lockPending(ctx context.Context, tx ports.TxStores, loanID int64, operation string) (*domain.Loan, error) {
	loan, err := tx.Loans().GetByIDForUpdate(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Estado != domain.LoanPending {
		return nil, domain.NewError(domain.ErrInvalidState, operation, fmt.Sprintf("loan is not pending (estado %s)", loan.Estado))
	}
	return loan, nil
}

func daysLate(expected, returned time.Time) int {
	return int(math.Ceil(returned.Sub(expected).Hours() / 24))
}
