package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

var caseFileRowColumns = []string{
	"id", "numero_progresivo", "numero_expediente", "unidad_administrativa_id", "seccion_id",
	"serie_id", "subserie_id", "formula_clasificadora", "nombre_expediente", "asunto", "total_legajos",
	"total_documentos", "total_fojas", "fecha_apertura", "fecha_cierre", "valor_administrativo", "valor_legal",
	"valor_contable", "valor_fiscal", "clasificacion_info", "estado", "ubicacion_fisica", "observaciones",
	"created_by_id", "updated_by_id", "created_at", "updated_at",
	"u_id", "u_clave", "u_nombre", "u_activo", "u_created_at", "u_updated_at",
}

func addCaseFileRow(rows *sqlmock.Rows, id int64, numero string, estado domain.CaseFileStatus) *sqlmock.Rows {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, id, numero, int64(10), int64(1),
		int64(2), nil, "CONAMED/DG/1C/1C.4/"+numero, "Queja "+numero, "Atención médica", 1,
		3, 45, ts, nil, true, false,
		false, false, string(domain.InfoPublic), string(estado), "Anaquel 3", "",
		int64(1), nil, ts, ts,
		int64(10), "DG", "Dirección General", true, ts, ts,
	)
}

func TestCaseFileRepositoryGetByIDScansUnit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectQuery("FROM expedientes e\\s+JOIN unidades_administrativas u").
		WithArgs(int64(5)).
		WillReturnRows(addCaseFileRow(sqlmock.NewRows(caseFileRowColumns), 5, "Q-5", domain.CaseFileActive))

	f, err := repo.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if f.NumeroExpediente != "Q-5" || f.Estado != domain.CaseFileActive {
		t.Fatalf("unexpected case file %+v", f)
	}
	if f.SubserieID != nil || f.FechaCierre != nil || f.UpdatedByID != nil {
		t.Fatalf("nullable columns must stay nil")
	}
	if f.Unidad == nil || f.Unidad.Clave != "DG" {
		t.Fatalf("expected joined unit, got %+v", f.Unidad)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryGetByIDReturnsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectQuery("FROM expedientes").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(caseFileRowColumns))

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryGetByIDForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectQuery("WHERE e.id = \\$1\\s+FOR UPDATE OF e").
		WithArgs(int64(5)).
		WillReturnRows(addCaseFileRow(sqlmock.NewRows(caseFileRowColumns), 5, "Q-5", domain.CaseFileOnLoan))

	f, err := repo.GetByIDForUpdate(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetByIDForUpdate() error = %v", err)
	}
	if f.Estado != domain.CaseFileOnLoan {
		t.Fatalf("unexpected estado %s", f.Estado)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryCreateDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectQuery("INSERT INTO expedientes").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "expedientes_unidad_numero_key"})

	err := repo.Create(context.Background(), &domain.CaseFile{NumeroExpediente: "Q-1", UnidadAdministrativaID: 10})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryCreateReturnsIdentity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectQuery("INSERT INTO expedientes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "numero_progresivo"}).AddRow(int64(11), int64(42)))

	file := &domain.CaseFile{NumeroExpediente: "Q-1", UnidadAdministrativaID: 10, Estado: domain.CaseFileActive}
	if err := repo.Create(context.Background(), file); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if file.ID != 11 || file.NumeroProgresivo != 42 {
		t.Fatalf("unexpected identity %d/%d", file.ID, file.NumeroProgresivo)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryListAppliesFiltersAndPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)
	unit := int64(10)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM expedientes e").
		WithArgs(unit, string(domain.CaseFileActive), "%queja%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	rows := sqlmock.NewRows(caseFileRowColumns)
	addCaseFileRow(rows, 3, "Q-3", domain.CaseFileActive)
	addCaseFileRow(rows, 2, "Q-2", domain.CaseFileActive)
	mock.ExpectQuery("ORDER BY e.numero_progresivo DESC\\s+LIMIT \\$4 OFFSET \\$5").
		WithArgs(unit, string(domain.CaseFileActive), "%queja%", 2, 0).
		WillReturnRows(rows)

	files, total, err := repo.List(context.Background(), domain.CaseFileFilter{
		UnitID: &unit,
		Estado: domain.CaseFileActive,
		Search: "queja",
		Page:   domain.Page{Number: 1, Limit: 2},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 || len(files) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(files), total)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectExec("UPDATE expedientes").
		WithArgs(int64(99), string(domain.CaseFileDecommissioned), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 99, domain.CaseFileDecommissioned, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestCaseFileRepositoryCountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseFileRepository(db)

	mock.ExpectQuery("GROUP BY estado").
		WithArgs(nil).
		WillReturnRows(sqlmock.NewRows([]string{"estado", "count"}).
			AddRow("ACTIVO", 4).
			AddRow("PRESTADO", 1))

	counts, err := repo.CountByStatus(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if len(counts) != 2 || counts[0].Estado != "ACTIVO" || counts[0].Total != 4 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	expectationsMet(t, mock)
}
