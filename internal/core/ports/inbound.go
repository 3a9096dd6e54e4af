package ports

import (
	"context"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

// CatalogService is the inbound contract for the classification hierarchy.
type CatalogService interface {
	ListUnits(ctx context.Context, activeOnly bool) ([]domain.AdministrativeUnit, error)
	GetUnit(ctx context.Context, id int64) (*domain.AdministrativeUnit, error)
	CreateUnit(ctx context.Context, caller domain.Principal, in domain.CreateUnitInput) (*domain.AdministrativeUnit, error)
	SetUnitActive(ctx context.Context, caller domain.Principal, id int64, active bool) (*domain.AdministrativeUnit, error)

	ListSections(ctx context.Context) ([]domain.Section, error)
	GetSection(ctx context.Context, id int64) (*domain.Section, error)
	CreateSection(ctx context.Context, caller domain.Principal, in domain.CreateSectionInput) (*domain.Section, error)

	ListSeries(ctx context.Context, sectionID *int64) ([]domain.Series, error)
	GetSeries(ctx context.Context, id int64) (*domain.Series, error)
	CreateSeries(ctx context.Context, caller domain.Principal, in domain.CreateSeriesInput) (*domain.Series, error)

	ListSubseries(ctx context.Context, seriesID *int64) ([]domain.Subseries, error)
	GetSubseries(ctx context.Context, id int64) (*domain.Subseries, error)
	CreateSubseries(ctx context.Context, caller domain.Principal, in domain.CreateSubseriesInput) (*domain.Subseries, error)
}

// CaseFileService is the inbound contract for expediente records.
type CaseFileService interface {
	Create(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.CreateCaseFileInput) (*domain.CaseFile, error)
	Get(ctx context.Context, caller domain.Principal, id int64) (*domain.CaseFile, error)
	List(ctx context.Context, caller domain.Principal, filter domain.CaseFileFilter) (*domain.PageResult[domain.CaseFile], error)
	Update(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64, in domain.UpdateCaseFileInput) (*domain.CaseFile, error)
	Decommission(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64) (*domain.CaseFile, error)
	Stats(ctx context.Context, caller domain.Principal) ([]domain.StatusCount, error)
}

// LoanService is the inbound contract for the loan workflow.
type LoanService interface {
	Request(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.RequestLoanInput) (*domain.Loan, error)
	Authorize(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, loanID int64, notes string) (*domain.Loan, error)
	Reject(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, loanID int64, reason string) (*domain.Loan, error)
	Return(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, loanID int64, notes string) (*domain.ReturnResult, error)
	Get(ctx context.Context, caller domain.Principal, loanID int64) (*domain.Loan, error)
	List(ctx context.Context, caller domain.Principal, filter domain.LoanFilter) (*domain.PageResult[domain.Loan], error)
	Stats(ctx context.Context, caller domain.Principal) (*domain.LoanStats, error)
}

// AuditService is the inbound contract for the bitácora.
type AuditService interface {
	Record(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.RecordAuditInput) (*domain.AuditEntry, error)
	List(ctx context.Context, caller domain.Principal, filter domain.AuditFilter) (*domain.PageResult[domain.AuditEntry], error)
	Get(ctx context.Context, caller domain.Principal, id int64) (*domain.AuditEntry, error)
	ListForCaseFile(ctx context.Context, caller domain.Principal, caseFileID int64, page domain.Page) (*domain.PageResult[domain.AuditEntry], error)
	Statistics(ctx context.Context, caller domain.Principal, filter domain.AuditFilter) (*domain.AuditStatistics, error)
	Purge(ctx context.Context, caller domain.Principal, olderThanDays int) (int64, error)
}

// AuthService issues and resolves sessions.
type AuthService interface {
	Login(ctx context.Context, login, password string, meta domain.RequestMeta) (*domain.AuthSession, error)
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
	Logout(ctx context.Context, caller domain.Principal, meta domain.RequestMeta) error
	Me(ctx context.Context, caller domain.Principal) (*domain.User, error)
	ChangePassword(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, current, next string) error
}

// UserService manages accounts. Every method is restricted to administrators.
type UserService interface {
	Create(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, in domain.CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, caller domain.Principal, id int64) (*domain.User, error)
	List(ctx context.Context, caller domain.Principal, filter domain.UserFilter) (*domain.PageResult[domain.User], error)
	Update(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64, in domain.UpdateUserInput) (*domain.User, error)
	Deactivate(ctx context.Context, caller domain.Principal, meta domain.RequestMeta, id int64) (*domain.User, error)
}

// ReportService renders spreadsheets and dashboard counters.
type ReportService interface {
	CaseFileInventory(ctx context.Context, caller domain.Principal, filter domain.CaseFileFilter) (*domain.Report, error)
	LoanReport(ctx context.Context, caller domain.Principal, filter domain.LoanFilter) (*domain.Report, error)
	AuditReport(ctx context.Context, caller domain.Principal, filter domain.AuditFilter) (*domain.Report, error)
	Dashboard(ctx context.Context, caller domain.Principal) (*domain.Dashboard, error)
}
