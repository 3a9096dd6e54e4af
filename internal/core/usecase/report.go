package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

// maxReportRows bounds a single workbook.
const maxReportRows = 20000

type ReportUseCase struct {
	caseFiles ports.CaseFileStore
	loans     ports.LoanStore
	audit     ports.AuditStore
	renderer  ports.WorkbookRenderer
	now       func() time.Time
}

func NewReportUseCase(
	caseFiles ports.CaseFileStore,
	loans ports.LoanStore,
	audit ports.AuditStore,
	renderer ports.WorkbookRenderer,
) *ReportUseCase {
	return &ReportUseCase{
		caseFiles: caseFiles,
		loans:     loans,
		audit:     audit,
		renderer:  renderer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ReportUseCase) CaseFileInventory(ctx context.Context, caller domain.Principal, filter domain.CaseFileFilter) (*domain.Report, error) {
	if unit := caller.ScopedUnit(); unit != nil {
		filter.UnitID = unit
	}
	rows, err := collectPages(func(page domain.Page) ([]domain.CaseFile, int, error) {
		filter.Page = page
		return uc.caseFiles.List(ctx, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("collect case files for report: %w", err)
	}
	now := uc.now()
	content, err := uc.renderer.CaseFiles(rows, now)
	if err != nil {
		return nil, fmt.Errorf("render case file report: %w", err)
	}
	return &domain.Report{Filename: reportFilename("expedientes", now), Content: content, Rows: len(rows)}, nil
}

func (uc *ReportUseCase) LoanReport(ctx context.Context, caller domain.Principal, filter domain.LoanFilter) (*domain.Report, error) {
	if filter.Estado != "" && !filter.Estado.Valid() {
		return nil, &domain.ValidationError{Field: "estado", Message: "unknown loan estado", Allowed: domain.AllLoanStatuses()}
	}
	if unit := caller.ScopedUnit(); unit != nil {
		filter.UnitID = unit
	}
	rows, err := collectPages(func(page domain.Page) ([]domain.Loan, int, error) {
		filter.Page = page
		return uc.loans.List(ctx, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("collect loans for report: %w", err)
	}
	now := uc.now()
	for i := range rows {
		rows[i].Vencido = rows[i].IsOverdue(now)
	}
	content, err := uc.renderer.Loans(rows, now)
	if err != nil {
		return nil, fmt.Errorf("render loan report: %w", err)
	}
	return &domain.Report{Filename: reportFilename("prestamos", now), Content: content, Rows: len(rows)}, nil
}

func (uc *ReportUseCase) AuditReport(ctx context.Context, caller domain.Principal, filter domain.AuditFilter) (*domain.Report, error) {
	if err := requireRole(caller, "audit report", privileged...); err != nil {
		return nil, err
	}
	if filter.Accion != "" && !filter.Accion.Valid() {
		return nil, &domain.ValidationError{Field: "accion", Message: "unknown action", Allowed: domain.AllAuditActions()}
	}
	rows, err := collectPages(func(page domain.Page) ([]domain.AuditEntry, int, error) {
		filter.Page = page
		return uc.audit.List(ctx, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("collect audit entries for report: %w", err)
	}
	now := uc.now()
	content, err := uc.renderer.Audit(rows, now)
	if err != nil {
		return nil, fmt.Errorf("render audit report: %w", err)
	}
	return &domain.Report{Filename: reportFilename("bitacora", now), Content: content, Rows: len(rows)}, nil
}

func (uc *ReportUseCase) Dashboard(ctx context.Context, caller domain.Principal) (*domain.Dashboard, error) {
	unit := caller.ScopedUnit()
	files, err := uc.caseFiles.CountByStatus(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("count case files by estado: %w", err)
	}
	loans, err := uc.loans.CountByStatus(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("count loans by estado: %w", err)
	}
	now := uc.now()
	overdue, err := uc.loans.CountOverdue(ctx, unit, now)
	if err != nil {
		return nil, fmt.Errorf("count overdue loans: %w", err)
	}
	return &domain.Dashboard{
		CaseFilesByStatus: zeroFillCounts(domain.AllCaseFileStatuses(), files),
		LoansByStatus:     zeroFillCounts(domain.AllLoanStatuses(), loans),
		OverdueLoans:      overdue,
		GeneratedAt:       now,
	}, nil
}

// collectPages walks fetch page by page until every row, or maxReportRows, has been read.
func collectPages[T any](fetch func(page domain.Page) ([]T, int, error)) ([]T, error) {
	var out []T
	for number := 1; ; number++ {
		items, total, err := fetch(domain.Page{Number: number, Limit: domain.MaxPageSize})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) < domain.MaxPageSize || len(out) >= total || len(out) >= maxReportRows {
			break
		}
	}
	if len(out) > maxReportRows {
		out = out[:maxReportRows]
	}
	return out, nil
}

func reportFilename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.Format("20060102_150405"))
}
