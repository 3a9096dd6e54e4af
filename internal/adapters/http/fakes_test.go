package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/archivo-expedientes/internal/config"
	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
	"github.com/kirillkom/archivo-expedientes/internal/observability/metrics"
)

const (
	adminToken    = "admin-token"
	operatorToken = "operator-token"
)

var operatorUnit = int64(10)

var (
	adminPrincipal    = domain.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	operatorPrincipal = domain.Principal{UserID: 3, Username: "operador", Role: domain.RoleOperator, UnitID: &operatorUnit}
)

// Fakes embed the port so tests only implement what they exercise.

type fakeAuth struct {
	ports.AuthService
	login func(ctx context.Context, login, password string, meta domain.RequestMeta) (*domain.AuthSession, error)
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (domain.Principal, error) {
	switch token {
	case adminToken:
		return adminPrincipal, nil
	case operatorToken:
		return operatorPrincipal, nil
	default:
		return domain.Principal{}, domain.NewError(domain.ErrUnauthenticated, "authenticate", "invalid token")
	}
}

func (f fakeAuth) Login(ctx context.Context, login, password string, meta domain.RequestMeta) (*domain.AuthSession, error) {
	return f.login(ctx, login, password, meta)
}

type fakeCaseFiles struct {
	ports.CaseFileService
	create func(caller domain.Principal, in domain.CreateCaseFileInput) (*domain.CaseFile, error)
	list   func(caller domain.Principal, filter domain.CaseFileFilter) (*domain.PageResult[domain.CaseFile], error)
	update func(id int64, in domain.UpdateCaseFileInput) (*domain.CaseFile, error)
	get    func(id int64) (*domain.CaseFile, error)
}

func (f fakeCaseFiles) Create(_ context.Context, caller domain.Principal, _ domain.RequestMeta, in domain.CreateCaseFileInput) (*domain.CaseFile, error) {
	return f.create(caller, in)
}

func (f fakeCaseFiles) List(_ context.Context, caller domain.Principal, filter domain.CaseFileFilter) (*domain.PageResult[domain.CaseFile], error) {
	return f.list(caller, filter)
}

func (f fakeCaseFiles) Update(_ context.Context, _ domain.Principal, _ domain.RequestMeta, id int64, in domain.UpdateCaseFileInput) (*domain.CaseFile, error) {
	return f.update(id, in)
}

func (f fakeCaseFiles) Get(_ context.Context, _ domain.Principal, id int64) (*domain.CaseFile, error) {
	return f.get(id)
}

type fakeLoans struct {
	ports.LoanService
	authorize func(loanID int64, notes string) (*domain.Loan, error)
	ret       func(loanID int64, notes string) (*domain.ReturnResult, error)
	list      func(filter domain.LoanFilter) (*domain.PageResult[domain.Loan], error)
}

func (f fakeLoans) Authorize(_ context.Context, _ domain.Principal, _ domain.RequestMeta, loanID int64, notes string) (*domain.Loan, error) {
	return f.authorize(loanID, notes)
}

func (f fakeLoans) Return(_ context.Context, _ domain.Principal, _ domain.RequestMeta, loanID int64, notes string) (*domain.ReturnResult, error) {
	return f.ret(loanID, notes)
}

func (f fakeLoans) List(_ context.Context, _ domain.Principal, filter domain.LoanFilter) (*domain.PageResult[domain.Loan], error) {
	return f.list(filter)
}

type fakeAudit struct {
	ports.AuditService
	purge func(caller domain.Principal, days int) (int64, error)
	list  func(filter domain.AuditFilter) (*domain.PageResult[domain.AuditEntry], error)
}

func (f fakeAudit) List(_ context.Context, _ domain.Principal, filter domain.AuditFilter) (*domain.PageResult[domain.AuditEntry], error) {
	return f.list(filter)
}

func (f fakeAudit) Purge(_ context.Context, caller domain.Principal, days int) (int64, error) {
	return f.purge(caller, days)
}

type fakeReports struct {
	ports.ReportService
	inventory func(filter domain.CaseFileFilter) (*domain.Report, error)
}

func (f fakeReports) CaseFileInventory(_ context.Context, _ domain.Principal, filter domain.CaseFileFilter) (*domain.Report, error) {
	return f.inventory(filter)
}

func newTestHandler(cfg config.Config, svc Services) http.Handler {
	if svc.Auth == nil {
		svc.Auth = fakeAuth{}
	}
	return NewRouter(cfg, svc, nil).Handler()
}

func newInstrumentedHandler(cfg config.Config, svc Services) http.Handler {
	if svc.Auth == nil {
		svc.Auth = fakeAuth{}
	}
	return NewRouter(cfg, svc, metrics.NewHTTPServerMetrics(serviceName)).Handler()
}
