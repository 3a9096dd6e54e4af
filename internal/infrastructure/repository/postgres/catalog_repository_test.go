package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func TestCatalogRepositoryListUnitsActiveOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	ts := time.Now().UTC()

	mock.ExpectQuery("FROM unidades_administrativas\\s+WHERE activo\\s+ORDER BY clave").
		WillReturnRows(sqlmock.NewRows([]string{"id", "clave", "nombre", "activo", "created_at", "updated_at"}).
			AddRow(int64(10), "DG", "Dirección General", true, ts, ts))

	units, err := repo.ListUnits(context.Background(), true)
	if err != nil {
		t.Fatalf("ListUnits() error = %v", err)
	}
	if len(units) != 1 || units[0].Clave != "DG" {
		t.Fatalf("unexpected units %+v", units)
	}
	expectationsMet(t, mock)
}

func TestCatalogRepositoryListSeriesBySection(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	ts := time.Now().UTC()
	section := int64(1)

	mock.ExpectQuery("FROM series").
		WithArgs(section).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seccion_id", "clave", "nombre", "descripcion", "activo", "created_at", "updated_at"}).
			AddRow(int64(2), section, "1C.4", "Quejas", "", true, ts, ts))

	series, err := repo.ListSeries(context.Background(), &section)
	if err != nil {
		t.Fatalf("ListSeries() error = %v", err)
	}
	if len(series) != 1 || series[0].SeccionID != section {
		t.Fatalf("unexpected series %+v", series)
	}
	expectationsMet(t, mock)
}

func TestCatalogRepositoryUpsertSeriesKeepsActiveFlag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)
	ts := time.Now().UTC()

	mock.ExpectQuery("ON CONFLICT \\(seccion_id, clave\\) DO UPDATE").
		WithArgs(int64(1), "1C.4", "Quejas", "", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "activo", "created_at", "updated_at"}).
			AddRow(int64(2), false, ts, ts))

	series := &domain.Series{SeccionID: 1, Clave: "1C.4", Nombre: "Quejas", Activo: true}
	if err := repo.UpsertSeries(context.Background(), series); err != nil {
		t.Fatalf("UpsertSeries() error = %v", err)
	}
	if series.ID != 2 || series.Activo {
		t.Fatalf("expected stored row state, got %+v", series)
	}
	expectationsMet(t, mock)
}

func TestCatalogRepositorySetUnitActiveNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCatalogRepository(db)

	mock.ExpectExec("UPDATE unidades_administrativas").
		WithArgs(int64(77), false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetUnitActive(context.Background(), 77, false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	expectationsMet(t, mock)
}
