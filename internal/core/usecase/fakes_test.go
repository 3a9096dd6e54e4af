package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

// memDB is an in-memory stand-in for every store. WithinTx snapshots it and restores the
// snapshot when fn fails, so tests can assert that failed transitions mutate nothing.
type memDB struct {
	nextID int64

	units     map[int64]*domain.AdministrativeUnit
	sections  map[int64]*domain.Section
	series    map[int64]*domain.Series
	subseries map[int64]*domain.Subseries
	caseFiles map[int64]*domain.CaseFile
	loans     map[int64]*domain.Loan
	users     map[int64]*domain.User
	audit     []domain.AuditEntry

	auditErr  error
	listErr   error
	locked    []string
	txCommits int
}

func newMemDB() *memDB {
	return &memDB{
		nextID:    100,
		units:     map[int64]*domain.AdministrativeUnit{},
		sections:  map[int64]*domain.Section{},
		series:    map[int64]*domain.Series{},
		subseries: map[int64]*domain.Subseries{},
		caseFiles: map[int64]*domain.CaseFile{},
		loans:     map[int64]*domain.Loan{},
		users:     map[int64]*domain.User{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) snapshot() *memDB {
	cp := *db
	cp.units = cloneMap(db.units)
	cp.sections = cloneMap(db.sections)
	cp.series = cloneMap(db.series)
	cp.subseries = cloneMap(db.subseries)
	cp.caseFiles = cloneMap(db.caseFiles)
	cp.loans = cloneMap(db.loans)
	cp.users = cloneMap(db.users)
	cp.audit = append([]domain.AuditEntry(nil), db.audit...)
	return &cp
}

func (db *memDB) restore(from *memDB) {
	db.nextID = from.nextID
	db.units = from.units
	db.sections = from.sections
	db.series = from.series
	db.subseries = from.subseries
	db.caseFiles = from.caseFiles
	db.loans = from.loans
	db.users = from.users
	db.audit = from.audit
}

func cloneMap[T any](in map[int64]*T) map[int64]*T {
	out := make(map[int64]*T, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStores) error) error {
	saved := db.snapshot()
	if err := fn(ctx, memTx{db: db}); err != nil {
		db.restore(saved)
		return err
	}
	db.txCommits++
	return nil
}

type memTx struct{ db *memDB }

func (t memTx) CaseFiles() ports.CaseFileStore { return caseFileFake{t.db} }
func (t memTx) Loans() ports.LoanStore         { return loanFake{t.db} }
func (t memTx) Audit() ports.AuditStore        { return auditFake{t.db} }
func (t memTx) Users() ports.UserStore         { return userFake{t.db} }

func notFound(what string) error {
	return domain.NewError(domain.ErrNotFound, "get "+what, what+" not found")
}

// --- case files ---

type caseFileFake struct{ db *memDB }

func (f caseFileFake) Create(_ context.Context, file *domain.CaseFile) error {
	for _, existing := range f.db.caseFiles {
		if existing.UnidadAdministrativaID == file.UnidadAdministrativaID && existing.NumeroExpediente == file.NumeroExpediente {
			return domain.NewError(domain.ErrConflict, "create case file", "duplicate numeroExpediente")
		}
	}
	file.ID = f.db.id()
	file.NumeroProgresivo = file.ID
	c := *file
	f.db.caseFiles[file.ID] = &c
	return nil
}

func (f caseFileFake) GetByID(_ context.Context, id int64) (*domain.CaseFile, error) {
	file, ok := f.db.caseFiles[id]
	if !ok {
		return nil, notFound("case file")
	}
	c := *file
	return &c, nil
}

func (f caseFileFake) GetByIDForUpdate(ctx context.Context, id int64) (*domain.CaseFile, error) {
	f.db.locked = append(f.db.locked, "casefile")
	return f.GetByID(ctx, id)
}

func (f caseFileFake) List(_ context.Context, filter domain.CaseFileFilter) ([]domain.CaseFile, int, error) {
	if f.db.listErr != nil {
		return nil, 0, f.db.listErr
	}
	var all []domain.CaseFile
	for _, file := range f.db.caseFiles {
		if filter.UnitID != nil && file.UnidadAdministrativaID != *filter.UnitID {
			continue
		}
		if filter.Estado != "" && file.Estado != filter.Estado {
			continue
		}
		if filter.Search != "" && !strings.Contains(file.NombreExpediente, filter.Search) {
			continue
		}
		all = append(all, *file)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, filter.Page), len(all), nil
}

func (f caseFileFake) Update(_ context.Context, file *domain.CaseFile) error {
	if _, ok := f.db.caseFiles[file.ID]; !ok {
		return notFound("case file")
	}
	c := *file
	f.db.caseFiles[file.ID] = &c
	return nil
}

func (f caseFileFake) UpdateStatus(_ context.Context, id int64, status domain.CaseFileStatus, updatedBy int64) error {
	file, ok := f.db.caseFiles[id]
	if !ok {
		return notFound("case file")
	}
	file.Estado = status
	file.UpdatedByID = &updatedBy
	return nil
}

func (f caseFileFake) CountByStatus(_ context.Context, unitID *int64) ([]domain.StatusCount, error) {
	counts := map[string]int{}
	for _, file := range f.db.caseFiles {
		if unitID != nil && file.UnidadAdministrativaID != *unitID {
			continue
		}
		counts[string(file.Estado)]++
	}
	return toStatusCounts(counts), nil
}

// --- loans ---

type loanFake struct{ db *memDB }

func (f loanFake) Create(_ context.Context, loan *domain.Loan) error {
	loan.ID = f.db.id()
	c := *loan
	f.db.loans[loan.ID] = &c
	return nil
}

func (f loanFake) GetByID(_ context.Context, id int64) (*domain.Loan, error) {
	loan, ok := f.db.loans[id]
	if !ok {
		return nil, notFound("loan")
	}
	c := *loan
	if file, ok := f.db.caseFiles[c.ExpedienteID]; ok {
		c.Expediente = &domain.CaseFileSummary{
			ID:               file.ID,
			NumeroExpediente: file.NumeroExpediente,
			Estado:           file.Estado,
			UnidadID:         file.UnidadAdministrativaID,
		}
	}
	return &c, nil
}

func (f loanFake) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	f.db.locked = append(f.db.locked, "loan")
	loan, ok := f.db.loans[id]
	if !ok {
		return nil, notFound("loan")
	}
	c := *loan
	return &c, nil
}

func (f loanFake) Update(_ context.Context, loan *domain.Loan) error {
	if _, ok := f.db.loans[loan.ID]; !ok {
		return notFound("loan")
	}
	c := *loan
	c.Expediente, c.Usuario, c.AutorizadoPor = nil, nil, nil
	f.db.loans[loan.ID] = &c
	return nil
}

func (f loanFake) List(_ context.Context, filter domain.LoanFilter) ([]domain.Loan, int, error) {
	if f.db.listErr != nil {
		return nil, 0, f.db.listErr
	}
	var all []domain.Loan
	for _, loan := range f.db.loans {
		if filter.Estado != "" && loan.Estado != filter.Estado {
			continue
		}
		if filter.UnitID != nil {
			file, ok := f.db.caseFiles[loan.ExpedienteID]
			if !ok || file.UnidadAdministrativaID != *filter.UnitID {
				continue
			}
		}
		all = append(all, *loan)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, filter.Page), len(all), nil
}

func (f loanFake) CountByStatus(_ context.Context, _ *int64) ([]domain.StatusCount, error) {
	counts := map[string]int{}
	for _, loan := range f.db.loans {
		counts[string(loan.Estado)]++
	}
	return toStatusCounts(counts), nil
}

func (f loanFake) CountOverdue(_ context.Context, _ *int64, now time.Time) (int, error) {
	n := 0
	for _, loan := range f.db.loans {
		if loan.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

// --- audit ---

type auditFake struct{ db *memDB }

func (f auditFake) Insert(_ context.Context, entry *domain.AuditEntry) error {
	if f.db.auditErr != nil {
		return f.db.auditErr
	}
	entry.ID = f.db.id()
	f.db.audit = append(f.db.audit, *entry)
	return nil
}

func (f auditFake) GetByID(_ context.Context, id int64) (*domain.AuditEntry, error) {
	for _, e := range f.db.audit {
		if e.ID == id {
			c := e
			return &c, nil
		}
	}
	return nil, notFound("audit entry")
}

func (f auditFake) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error) {
	var all []domain.AuditEntry
	for _, e := range f.db.audit {
		if filter.CaseFileID != nil && (e.ExpedienteID == nil || *e.ExpedienteID != *filter.CaseFileID) {
			continue
		}
		if filter.Accion != "" && e.Accion != filter.Accion {
			continue
		}
		all = append(all, e)
	}
	return paginate(all, filter.Page), len(all), nil
}

func (f auditFake) Count(context.Context, *time.Time, *time.Time) (int, error) {
	return len(f.db.audit), nil
}

func (f auditFake) CountByAction(context.Context, *time.Time, *time.Time) ([]domain.ActionCount, error) {
	counts := map[string]int{}
	for _, e := range f.db.audit {
		counts[string(e.Accion)]++
	}
	out := make([]domain.ActionCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, domain.ActionCount{Accion: k, Total: v})
	}
	return out, nil
}

func (f auditFake) CountByEntity(context.Context, *time.Time, *time.Time) ([]domain.EntityCount, error) {
	counts := map[string]int{}
	for _, e := range f.db.audit {
		counts[e.Entidad]++
	}
	out := make([]domain.EntityCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, domain.EntityCount{Entidad: k, Total: v})
	}
	return out, nil
}

func (f auditFake) TopUsers(_ context.Context, _, _ *time.Time, limit int) ([]domain.UserActivity, error) {
	counts := map[int64]int{}
	for _, e := range f.db.audit {
		counts[e.UsuarioID]++
	}
	out := make([]domain.UserActivity, 0, len(counts))
	for k, v := range counts {
		out = append(out, domain.UserActivity{UsuarioID: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f auditFake) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	kept := f.db.audit[:0]
	var deleted int64
	for _, e := range f.db.audit {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.db.audit = kept
	return deleted, nil
}

// --- users ---

type userFake struct{ db *memDB }

func (f userFake) Create(_ context.Context, user *domain.User) error {
	for _, u := range f.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domain.NewError(domain.ErrConflict, "create user", "username or email taken")
		}
	}
	user.ID = f.db.id()
	c := *user
	f.db.users[user.ID] = &c
	return nil
}

func (f userFake) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.db.users[id]
	if !ok {
		return nil, notFound("user")
	}
	c := *u
	return &c, nil
}

func (f userFake) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, u := range f.db.users {
		if u.Username == login || u.Email == login {
			c := *u
			return &c, nil
		}
	}
	return nil, notFound("user")
}

func (f userFake) GetByIDs(_ context.Context, ids []int64) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := f.db.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f userFake) List(_ context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	var all []domain.User
	for _, u := range f.db.users {
		if filter.Rol != "" && u.Rol != filter.Rol {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, filter.Page), len(all), nil
}

func (f userFake) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.db.users[user.ID]; !ok {
		return notFound("user")
	}
	c := *user
	f.db.users[user.ID] = &c
	return nil
}

func (f userFake) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.db.users[id]
	if !ok {
		return notFound("user")
	}
	u.Password = hash
	return nil
}

func (f userFake) TouchLastAccess(_ context.Context, id int64, at time.Time) error {
	u, ok := f.db.users[id]
	if !ok {
		return notFound("user")
	}
	u.UltimoAcceso = &at
	return nil
}

// --- catalog ---

type catalogFake struct{ db *memDB }

func (f catalogFake) ListUnits(_ context.Context, activeOnly bool) ([]domain.AdministrativeUnit, error) {
	var out []domain.AdministrativeUnit
	for _, u := range f.db.units {
		if activeOnly && !u.Activo {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f catalogFake) GetUnit(_ context.Context, id int64) (*domain.AdministrativeUnit, error) {
	u, ok := f.db.units[id]
	if !ok {
		return nil, notFound("unit")
	}
	c := *u
	return &c, nil
}

func (f catalogFake) CreateUnit(_ context.Context, unit *domain.AdministrativeUnit) error {
	for _, u := range f.db.units {
		if u.Clave == unit.Clave {
			return domain.NewError(domain.ErrConflict, "create unit", "duplicate clave")
		}
	}
	unit.ID = f.db.id()
	c := *unit
	f.db.units[unit.ID] = &c
	return nil
}

func (f catalogFake) UpsertUnit(ctx context.Context, unit *domain.AdministrativeUnit) error {
	for id, u := range f.db.units {
		if u.Clave == unit.Clave {
			unit.ID = id
			u.Nombre = unit.Nombre
			return nil
		}
	}
	return f.CreateUnit(ctx, unit)
}

func (f catalogFake) SetUnitActive(_ context.Context, id int64, active bool) error {
	u, ok := f.db.units[id]
	if !ok {
		return notFound("unit")
	}
	u.Activo = active
	return nil
}

func (f catalogFake) ListSections(context.Context) ([]domain.Section, error) {
	var out []domain.Section
	for _, s := range f.db.sections {
		out = append(out, *s)
	}
	return out, nil
}

func (f catalogFake) GetSection(_ context.Context, id int64) (*domain.Section, error) {
	s, ok := f.db.sections[id]
	if !ok {
		return nil, notFound("section")
	}
	c := *s
	return &c, nil
}

func (f catalogFake) CreateSection(_ context.Context, section *domain.Section) error {
	section.ID = f.db.id()
	c := *section
	f.db.sections[section.ID] = &c
	return nil
}

func (f catalogFake) UpsertSection(ctx context.Context, section *domain.Section) error {
	for id, s := range f.db.sections {
		if s.Clave == section.Clave {
			section.ID = id
			s.Nombre, s.Tipo = section.Nombre, section.Tipo
			return nil
		}
	}
	return f.CreateSection(ctx, section)
}

func (f catalogFake) ListSeries(_ context.Context, sectionID *int64) ([]domain.Series, error) {
	var out []domain.Series
	for _, s := range f.db.series {
		if sectionID != nil && s.SeccionID != *sectionID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f catalogFake) GetSeries(_ context.Context, id int64) (*domain.Series, error) {
	s, ok := f.db.series[id]
	if !ok {
		return nil, notFound("series")
	}
	c := *s
	return &c, nil
}

func (f catalogFake) CreateSeries(_ context.Context, series *domain.Series) error {
	series.ID = f.db.id()
	c := *series
	f.db.series[series.ID] = &c
	return nil
}

func (f catalogFake) UpsertSeries(ctx context.Context, series *domain.Series) error {
	for id, s := range f.db.series {
		if s.SeccionID == series.SeccionID && s.Clave == series.Clave {
			series.ID = id
			s.Nombre, s.Descripcion = series.Nombre, series.Descripcion
			return nil
		}
	}
	return f.CreateSeries(ctx, series)
}

func (f catalogFake) ListSubseries(_ context.Context, seriesID *int64) ([]domain.Subseries, error) {
	var out []domain.Subseries
	for _, s := range f.db.subseries {
		if seriesID != nil && s.SerieID != *seriesID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f catalogFake) GetSubseries(_ context.Context, id int64) (*domain.Subseries, error) {
	s, ok := f.db.subseries[id]
	if !ok {
		return nil, notFound("subseries")
	}
	c := *s
	return &c, nil
}

func (f catalogFake) CreateSubseries(_ context.Context, subseries *domain.Subseries) error {
	subseries.ID = f.db.id()
	c := *subseries
	f.db.subseries[subseries.ID] = &c
	return nil
}

func (f catalogFake) UpsertSubseries(ctx context.Context, subseries *domain.Subseries) error {
	for id, s := range f.db.subseries {
		if s.SerieID == subseries.SerieID && s.Clave == subseries.Clave {
			subseries.ID = id
			s.Nombre, s.Descripcion = subseries.Nombre, subseries.Descripcion
			return nil
		}
	}
	return f.CreateSubseries(ctx, subseries)
}

// --- security ---

type hasherFake struct{}

func (hasherFake) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (hasherFake) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type tokenFake struct {
	claims    domain.TokenClaims
	verifyErr error
}

func (f *tokenFake) Issue(user *domain.User) (string, domain.TokenClaims, error) {
	f.claims = domain.TokenClaims{
		UserID:    user.ID,
		Role:      user.Rol,
		UnitID:    user.UnidadAdministrativaID,
		TokenID:   "jti-1",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return "token-for-" + user.Username, f.claims, nil
}

func (f *tokenFake) Verify(string) (domain.TokenClaims, error) {
	if f.verifyErr != nil {
		return domain.TokenClaims{}, f.verifyErr
	}
	return f.claims, nil
}

type revokerFake struct {
	revoked map[string]time.Time
	err     error
}

func (f *revokerFake) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[tokenID] = until
	return nil
}

func (f *revokerFake) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

type auditMetricsFake struct {
	writes map[string]int
}

func (f *auditMetricsFake) RecordAuditWrite(path, outcome string) {
	if f.writes == nil {
		f.writes = map[string]int{}
	}
	f.writes[path+"/"+outcome]++
}

// --- helpers ---

func paginate[T any](all []T, page domain.Page) []T {
	page = page.Normalized()
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func toStatusCounts(counts map[string]int) []domain.StatusCount {
	out := make([]domain.StatusCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, domain.StatusCount{Estado: k, Total: v})
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func int64Ptr(v int64) *int64 { return &v }

var (
	adminCaller       = domain.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	coordinatorCaller = domain.Principal{UserID: 2, Username: "coord", Role: domain.RoleArchiveCoordinator}
	operatorCaller    = domain.Principal{UserID: 3, Username: "oper", Role: domain.RoleOperator, UnitID: int64Ptr(10)}
	otherUnitCaller   = domain.Principal{UserID: 4, Username: "other", Role: domain.RoleOperator, UnitID: int64Ptr(20)}
	readOnlyCaller    = domain.Principal{UserID: 5, Username: "viewer", Role: domain.RoleReadOnly, UnitID: int64Ptr(10)}
	testMeta          = domain.RequestMeta{IP: "10.0.0.1", UserAgent: "go-test"}
)

// seedCaseFile stores an ACTIVO case file in unit 10 and returns its id.
func seedCaseFile(db *memDB, numero string, estado domain.CaseFileStatus) int64 {
	id := db.id()
	db.caseFiles[id] = &domain.CaseFile{
		ID:                     id,
		NumeroExpediente:       numero,
		UnidadAdministrativaID: 10,
		NombreExpediente:       "Queja " + numero,
		Asunto:                 "Arbitraje",
		ClasificacionInfo:      domain.InfoPublic,
		Estado:                 estado,
		FechaApertura:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return id
}
