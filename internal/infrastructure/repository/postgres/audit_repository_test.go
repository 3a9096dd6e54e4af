package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

var auditRowColumns = []string{
	"id", "usuario_id", "accion", "entidad", "entidad_id", "descripcion", "datos_previos",
	"datos_nuevos", "expediente_id", "ip_address", "user_agent", "created_at",
	"username", "nombre", "apellido_paterno", "apellido_materno",
	"numero_expediente", "nombre_expediente", "formula_clasificadora", "estado", "unidad_administrativa_id",
}

func TestAuditRepositoryInsertStoresSnapshots(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	fileID := int64(5)

	mock.ExpectQuery("INSERT INTO bitacora").
		WithArgs(int64(3), string(domain.AuditLoan), domain.EntityLoan, "7", "Préstamo autorizado",
			nil, []byte(`{"estado":"PRESTADO"}`), fileID, "10.0.0.1", "curl", ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))

	entry := &domain.AuditEntry{
		UsuarioID:    3,
		Accion:       domain.AuditLoan,
		Entidad:      domain.EntityLoan,
		EntidadID:    "7",
		Descripcion:  "Préstamo autorizado",
		DatosNuevos:  json.RawMessage(`{"estado":"PRESTADO"}`),
		ExpedienteID: &fileID,
		IPAddress:    "10.0.0.1",
		UserAgent:    "curl",
		CreatedAt:    ts,
	}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if entry.ID != 100 {
		t.Fatalf("expected id 100, got %d", entry.ID)
	}
	expectationsMet(t, mock)
}

func TestAuditRepositoryListJoinsUserAndCaseFile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM bitacora b").
		WithArgs(string(domain.AuditLogin)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("ORDER BY b.created_at DESC").
		WithArgs(string(domain.AuditLogin), 20, 0).
		WillReturnRows(sqlmock.NewRows(auditRowColumns).
			AddRow(int64(2), int64(1), "LOGIN", "Usuario", "1", "Inicio de sesión", nil,
				nil, nil, "", "", ts,
				"admin", "Ana", "López", "",
				nil, nil, nil, nil, nil).
			AddRow(int64(1), int64(3), "LOGIN", "Usuario", "3", "Inicio de sesión", nil,
				[]byte(`{"a":1}`), int64(5), "", "", ts.Add(-time.Hour),
				"operador", "Olga", "Pérez", "",
				"Q-5", "Queja 5", "CONAMED/DG/1C/1C.4/Q-5", "ACTIVO", int64(10)))

	entries, total, err := repo.List(context.Background(), domain.AuditFilter{
		Accion: domain.AuditLogin,
		Page:   domain.Page{Number: 1, Limit: 20},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d of %d", len(entries), total)
	}
	if entries[0].Expediente != nil || entries[0].DatosNuevos != nil {
		t.Fatalf("entry without case file must not carry summary: %+v", entries[0])
	}
	if entries[1].Expediente == nil || entries[1].Expediente.NumeroExpediente != "Q-5" {
		t.Fatalf("expected joined case file, got %+v", entries[1].Expediente)
	}
	if entries[1].Usuario == nil || entries[1].Usuario.Username != "operador" {
		t.Fatalf("expected joined user, got %+v", entries[1].Usuario)
	}
	expectationsMet(t, mock)
}

func TestAuditRepositoryTopUsersLimitPlaceholder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("LIMIT \\$2").
		WithArgs(from, 5).
		WillReturnRows(sqlmock.NewRows([]string{"usuario_id", "username", "nombre", "apellido_paterno", "apellido_materno", "count"}).
			AddRow(int64(3), "operador", "Olga", "Pérez", "", 12))

	top, err := repo.TopUsers(context.Background(), &from, nil, 5)
	if err != nil {
		t.Fatalf("TopUsers() error = %v", err)
	}
	if len(top) != 1 || top[0].Nombre != "Olga Pérez" || top[0].Total != 12 {
		t.Fatalf("unexpected activity %+v", top)
	}
	expectationsMet(t, mock)
}

func TestAuditRepositoryDeleteOlderThan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM bitacora WHERE created_at < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if n != 17 {
		t.Fatalf("expected 17 deleted, got %d", n)
	}
	expectationsMet(t, mock)
}

func TestAuditRepositoryCountByAction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("GROUP BY b.accion").
		WillReturnRows(sqlmock.NewRows([]string{"accion", "count"}).
			AddRow("CREAR", 9).
			AddRow("LOGIN", 4))

	counts, err := repo.CountByAction(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("CountByAction() error = %v", err)
	}
	if len(counts) != 2 || counts[0].Accion != "CREAR" {
		t.Fatalf("unexpected counts %+v", counts)
	}
	expectationsMet(t, mock)
}
