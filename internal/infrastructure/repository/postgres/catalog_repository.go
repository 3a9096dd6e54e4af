package postgres

import (
	"context"
	"fmt"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

type CatalogRepository struct {
	db DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const unitColumns = `id, clave, nombre, activo, created_at, updated_at`

func scanUnit(row scanner) (domain.AdministrativeUnit, error) {
	var u domain.AdministrativeUnit
	err := row.Scan(&u.ID, &u.Clave, &u.Nombre, &u.Activo, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *CatalogRepository) ListUnits(ctx context.Context, activeOnly bool) ([]domain.AdministrativeUnit, error) {
	query := `SELECT ` + unitColumns + `
FROM unidades_administrativas
`
	if activeOnly {
		query += "WHERE activo\n"
	}
	query += "ORDER BY clave"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError("list units", err)
	}
	defer rows.Close()

	out := make([]domain.AdministrativeUnit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) GetUnit(ctx context.Context, id int64) (*domain.AdministrativeUnit, error) {
	u, err := scanUnit(r.db.QueryRowContext(ctx, `SELECT `+unitColumns+`
FROM unidades_administrativas
WHERE id = $1
`, id))
	if err != nil {
		return nil, mapError("get unit", err)
	}
	return &u, nil
}

func (r *CatalogRepository) CreateUnit(ctx context.Context, unit *domain.AdministrativeUnit) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO unidades_administrativas (clave, nombre, activo)
VALUES ($1,$2,$3)
RETURNING id, created_at, updated_at
`, unit.Clave, unit.Nombre, unit.Activo).Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		return mapError("create unit", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertUnit(ctx context.Context, unit *domain.AdministrativeUnit) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO unidades_administrativas (clave, nombre, activo)
VALUES ($1,$2,$3)
ON CONFLICT (clave) DO UPDATE SET nombre = EXCLUDED.nombre, updated_at = now()
RETURNING id, activo, created_at, updated_at
`, unit.Clave, unit.Nombre, unit.Activo).Scan(&unit.ID, &unit.Activo, &unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		return mapError("upsert unit", err)
	}
	return nil
}

func (r *CatalogRepository) SetUnitActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE unidades_administrativas
SET activo = $2, updated_at = now()
WHERE id = $1
`, id, active)
	if err != nil {
		return mapError("set unit active", err)
	}
	return requireAffected(res, "set unit active", "unit")
}

const sectionColumns = `id, clave, nombre, tipo, activo, created_at, updated_at`

func scanSection(row scanner) (domain.Section, error) {
	var s domain.Section
	var tipo string
	err := row.Scan(&s.ID, &s.Clave, &s.Nombre, &tipo, &s.Activo, &s.CreatedAt, &s.UpdatedAt)
	s.Tipo = domain.SectionType(tipo)
	return s, err
}

func (r *CatalogRepository) ListSections(ctx context.Context) ([]domain.Section, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sectionColumns+`
FROM secciones
ORDER BY clave`)
	if err != nil {
		return nil, mapError("list sections", err)
	}
	defer rows.Close()

	out := make([]domain.Section, 0)
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) GetSection(ctx context.Context, id int64) (*domain.Section, error) {
	s, err := scanSection(r.db.QueryRowContext(ctx, `SELECT `+sectionColumns+`
FROM secciones
WHERE id = $1
`, id))
	if err != nil {
		return nil, mapError("get section", err)
	}
	return &s, nil
}

func (r *CatalogRepository) CreateSection(ctx context.Context, section *domain.Section) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO secciones (clave, nombre, tipo, activo)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at, updated_at
`, section.Clave, section.Nombre, string(section.Tipo), section.Activo).Scan(&section.ID, &section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		return mapError("create section", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertSection(ctx context.Context, section *domain.Section) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO secciones (clave, nombre, tipo, activo)
VALUES ($1,$2,$3,$4)
ON CONFLICT (clave) DO UPDATE SET nombre = EXCLUDED.nombre, tipo = EXCLUDED.tipo, updated_at = now()
RETURNING id, activo, created_at, updated_at
`, section.Clave, section.Nombre, string(section.Tipo), section.Activo).Scan(&section.ID, &section.Activo, &section.CreatedAt, &section.UpdatedAt)
	if err != nil {
		return mapError("upsert section", err)
	}
	return nil
}

const seriesColumns = `id, seccion_id, clave, nombre, descripcion, activo, created_at, updated_at`

func scanSeries(row scanner) (domain.Series, error) {
	var s domain.Series
	err := row.Scan(&s.ID, &s.SeccionID, &s.Clave, &s.Nombre, &s.Descripcion, &s.Activo, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *CatalogRepository) ListSeries(ctx context.Context, sectionID *int64) ([]domain.Series, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+seriesColumns+`
FROM series
WHERE ($1::bigint IS NULL OR seccion_id = $1)
ORDER BY clave`, nullableInt64(sectionID))
	if err != nil {
		return nil, mapError("list series", err)
	}
	defer rows.Close()

	out := make([]domain.Series, 0)
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) GetSeries(ctx context.Context, id int64) (*domain.Series, error) {
	s, err := scanSeries(r.db.QueryRowContext(ctx, `SELECT `+seriesColumns+`
FROM series
WHERE id = $1
`, id))
	if err != nil {
		return nil, mapError("get series", err)
	}
	return &s, nil
}

func (r *CatalogRepository) CreateSeries(ctx context.Context, series *domain.Series) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO series (seccion_id, clave, nombre, descripcion, activo)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, created_at, updated_at
`, series.SeccionID, series.Clave, series.Nombre, series.Descripcion, series.Activo).Scan(&series.ID, &series.CreatedAt, &series.UpdatedAt)
	if err != nil {
		return mapError("create series", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertSeries(ctx context.Context, series *domain.Series) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO series (seccion_id, clave, nombre, descripcion, activo)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (seccion_id, clave) DO UPDATE SET nombre = EXCLUDED.nombre, descripcion = EXCLUDED.descripcion, updated_at = now()
RETURNING id, activo, created_at, updated_at
`, series.SeccionID, series.Clave, series.Nombre, series.Descripcion, series.Activo).Scan(&series.ID, &series.Activo, &series.CreatedAt, &series.UpdatedAt)
	if err != nil {
		return mapError("upsert series", err)
	}
	return nil
}

const subseriesColumns = `id, serie_id, clave, nombre, descripcion, activo, created_at, updated_at`

func scanSubseries(row scanner) (domain.Subseries, error) {
	var s domain.Subseries
	err := row.Scan(&s.ID, &s.SerieID, &s.Clave, &s.Nombre, &s.Descripcion, &s.Activo, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *CatalogRepository) ListSubseries(ctx context.Context, seriesID *int64) ([]domain.Subseries, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+subseriesColumns+`
FROM subseries
WHERE ($1::bigint IS NULL OR serie_id = $1)
ORDER BY clave`, nullableInt64(seriesID))
	if err != nil {
		return nil, mapError("list subseries", err)
	}
	defer rows.Close()

	out := make([]domain.Subseries, 0)
	for rows.Next() {
		s, err := scanSubseries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subseries: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subseries: %w", err)
	}
	return out, nil
}

func (r *CatalogRepository) GetSubseries(ctx context.Context, id int64) (*domain.Subseries, error) {
	s, err := scanSubseries(r.db.QueryRowContext(ctx, `SELECT `+subseriesColumns+`
FROM subseries
WHERE id = $1
`, id))
	if err != nil {
		return nil, mapError("get subseries", err)
	}
	return &s, nil
}

func (r *CatalogRepository) CreateSubseries(ctx context.Context, subseries *domain.Subseries) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO subseries (serie_id, clave, nombre, descripcion, activo)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, created_at, updated_at
`, subseries.SerieID, subseries.Clave, subseries.Nombre, subseries.Descripcion, subseries.Activo).Scan(&subseries.ID, &subseries.CreatedAt, &subseries.UpdatedAt)
	if err != nil {
		return mapError("create subseries", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertSubseries(ctx context.Context, subseries *domain.Subseries) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO subseries (serie_id, clave, nombre, descripcion, activo)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (serie_id, clave) DO UPDATE SET nombre = EXCLUDED.nombre, descripcion = EXCLUDED.descripcion, updated_at = now()
RETURNING id, activo, created_at, updated_at
`, subseries.SerieID, subseries.Clave, subseries.Nombre, subseries.Descripcion, subseries.Activo).Scan(&subseries.ID, &subseries.Activo, &subseries.CreatedAt, &subseries.UpdatedAt)
	if err != nil {
		return mapError("upsert subseries", err)
	}
	return nil
}
