package ports

import (
	"context"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

// CatalogStore persists the unit → section → series → subseries hierarchy.
type CatalogStore interface {
	ListUnits(ctx context.Context, activeOnly bool) ([]domain.AdministrativeUnit, error)
	GetUnit(ctx context.Context, id int64) (*domain.AdministrativeUnit, error)
	CreateUnit(ctx context.Context, unit *domain.AdministrativeUnit) error
	UpsertUnit(ctx context.Context, unit *domain.AdministrativeUnit) error
	SetUnitActive(ctx context.Context, id int64, active bool) error

	ListSections(ctx context.Context) ([]domain.Section, error)
	GetSection(ctx context.Context, id int64) (*domain.Section, error)
	CreateSection(ctx context.Context, section *domain.Section) error
	UpsertSection(ctx context.Context, section *domain.Section) error

	ListSeries(ctx context.Context, sectionID *int64) ([]domain.Series, error)
	GetSeries(ctx context.Context, id int64) (*domain.Series, error)
	CreateSeries(ctx context.Context, series *domain.Series) error
	UpsertSeries(ctx context.Context, series *domain.Series) error

	ListSubseries(ctx context.Context, seriesID *int64) ([]domain.Subseries, error)
	GetSubseries(ctx context.Context, id int64) (*domain.Subseries, error)
	CreateSubseries(ctx context.Context, subseries *domain.Subseries) error
	UpsertSubseries(ctx context.Context, subseries *domain.Subseries) error
}

// CaseFileStore persists expedientes.
type CaseFileStore interface {
	Create(ctx context.Context, file *domain.CaseFile) error
	GetByID(ctx context.Context, id int64) (*domain.CaseFile, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.CaseFile, error)
	List(ctx context.Context, filter domain.CaseFileFilter) ([]domain.CaseFile, int, error)
	Update(ctx context.Context, file *domain.CaseFile) error
	UpdateStatus(ctx context.Context, id int64, status domain.CaseFileStatus, updatedBy int64) error
	CountByStatus(ctx context.Context, unitID *int64) ([]domain.StatusCount, error)
}

// LoanStore persists loan records.
type LoanStore interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id int64) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
	List(ctx context.Context, filter domain.LoanFilter) ([]domain.Loan, int, error)
	CountByStatus(ctx context.Context, unitID *int64) ([]domain.StatusCount, error)
	CountOverdue(ctx context.Context, unitID *int64, now time.Time) (int, error)
}

// AuditStore is the append-only bitácora.
type AuditStore interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	GetByID(ctx context.Context, id int64) (*domain.AuditEntry, error)
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error)
	Count(ctx context.Context, from, to *time.Time) (int, error)
	CountByAction(ctx context.Context, from, to *time.Time) ([]domain.ActionCount, error)
	CountByEntity(ctx context.Context, from, to *time.Time) ([]domain.EntityCount, error)
	TopUsers(ctx context.Context, from, to *time.Time, limit int) ([]domain.UserActivity, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastAccess(ctx context.Context, id int64, at time.Time) error
}

// TxStores exposes the stores bound to one database transaction.
type TxStores interface {
	CaseFiles() CaseFileStore
	Loans() LoanStore
	Audit() AuditStore
	Users() UserStore
}

// Transactor runs fn inside a single database transaction; fn's error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxStores) error) error
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues and verifies bearer credentials.
type TokenIssuer interface {
	Issue(user *domain.User) (token string, claims domain.TokenClaims, err error)
	Verify(token string) (domain.TokenClaims, error)
}

// TokenRevoker remembers logged-out token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// WorkbookRenderer turns report rows into an .xlsx document.
type WorkbookRenderer interface {
	CaseFiles(rows []domain.CaseFile, generatedAt time.Time) ([]byte, error)
	Loans(rows []domain.Loan, generatedAt time.Time) ([]byte, error)
	Audit(rows []domain.AuditEntry, generatedAt time.Time) ([]byte, error)
}

// AuditMetrics counts audit writes by path (tx, best_effort) and outcome.
type AuditMetrics interface {
	RecordAuditWrite(path, outcome string)
}
