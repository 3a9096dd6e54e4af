package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

type CaseFileRepository struct {
	db DBTX
}

func NewCaseFileRepository(db DBTX) *CaseFileRepository {
	return &CaseFileRepository{db: db}
}

const caseFileColumns = `e.id, e.numero_progresivo, e.numero_expediente, e.unidad_administrativa_id, e.seccion_id,
	e.serie_id, e.subserie_id, e.formula_clasificadora, e.nombre_expediente, e.asunto, e.total_legajos,
	e.total_documentos, e.total_fojas, e.fecha_apertura, e.fecha_cierre, e.valor_administrativo, e.valor_legal,
	e.valor_contable, e.valor_fiscal, e.clasificacion_info, e.estado, e.ubicacion_fisica, e.observaciones,
	e.created_by_id, e.updated_by_id, e.created_at, e.updated_at,
	u.id, u.clave, u.nombre, u.activo, u.created_at, u.updated_at`

const caseFileFrom = `
FROM expedientes e
JOIN unidades_administrativas u ON u.id = e.unidad_administrativa_id
`

func scanCaseFile(row scanner) (domain.CaseFile, error) {
	var (
		f             domain.CaseFile
		unit          domain.AdministrativeUnit
		subserieID    sql.NullInt64
		updatedByID   sql.NullInt64
		fechaCierre   sql.NullTime
		clasificacion string
		estado        string
	)
	err := row.Scan(
		&f.ID, &f.NumeroProgresivo, &f.NumeroExpediente, &f.UnidadAdministrativaID, &f.SeccionID,
		&f.SerieID, &subserieID, &f.FormulaClasificadora, &f.NombreExpediente, &f.Asunto, &f.TotalLegajos,
		&f.TotalDocumentos, &f.TotalFojas, &f.FechaApertura, &fechaCierre, &f.ValorAdministrativo, &f.ValorLegal,
		&f.ValorContable, &f.ValorFiscal, &clasificacion, &estado, &f.UbicacionFisica, &f.Observaciones,
		&f.CreatedByID, &updatedByID, &f.CreatedAt, &f.UpdatedAt,
		&unit.ID, &unit.Clave, &unit.Nombre, &unit.Activo, &unit.CreatedAt, &unit.UpdatedAt,
	)
	if err != nil {
		return f, err
	}
	f.SubserieID = int64FromNull(subserieID)
	f.UpdatedByID = int64FromNull(updatedByID)
	f.FechaCierre = timeFromNull(fechaCierre)
	f.ClasificacionInfo = domain.InfoClassification(clasificacion)
	f.Estado = domain.CaseFileStatus(estado)
	f.Unidad = &unit
	return f, nil
}

func (r *CaseFileRepository) Create(ctx context.Context, file *domain.CaseFile) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO expedientes (
	numero_expediente, unidad_administrativa_id, seccion_id, serie_id, subserie_id, formula_clasificadora,
	nombre_expediente, asunto, total_legajos, total_documentos, total_fojas, fecha_apertura, fecha_cierre,
	valor_administrativo, valor_legal, valor_contable, valor_fiscal, clasificacion_info, estado,
	ubicacion_fisica, observaciones, created_by_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
RETURNING id, numero_progresivo
`,
		file.NumeroExpediente, file.UnidadAdministrativaID, file.SeccionID, file.SerieID, nullableInt64(file.SubserieID),
		file.FormulaClasificadora, file.NombreExpediente, file.Asunto, file.TotalLegajos, file.TotalDocumentos,
		file.TotalFojas, file.FechaApertura, file.FechaCierre, file.ValorAdministrativo, file.ValorLegal,
		file.ValorContable, file.ValorFiscal, string(file.ClasificacionInfo), string(file.Estado),
		file.UbicacionFisica, file.Observaciones, file.CreatedByID, file.CreatedAt, file.UpdatedAt,
	).Scan(&file.ID, &file.NumeroProgresivo)
	if err != nil {
		return mapError("create case file", err)
	}
	return nil
}

func (r *CaseFileRepository) GetByID(ctx context.Context, id int64) (*domain.CaseFile, error) {
	return r.get(ctx, "get case file", `SELECT `+caseFileColumns+caseFileFrom+`WHERE e.id = $1`, id)
}

func (r *CaseFileRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.CaseFile, error) {
	return r.get(ctx, "lock case file", `SELECT `+caseFileColumns+caseFileFrom+`WHERE e.id = $1
FOR UPDATE OF e`, id)
}

func (r *CaseFileRepository) get(ctx context.Context, operation, query string, id int64) (*domain.CaseFile, error) {
	f, err := scanCaseFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(operation, err)
	}
	return &f, nil
}

func caseFileWhere(filter domain.CaseFileFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.UnitID != nil {
		b.add("e.unidad_administrativa_id = ?", *filter.UnitID)
	}
	if filter.SectionID != nil {
		b.add("e.seccion_id = ?", *filter.SectionID)
	}
	if filter.SeriesID != nil {
		b.add("e.serie_id = ?", *filter.SeriesID)
	}
	if filter.Estado != "" {
		b.add("e.estado = ?", string(filter.Estado))
	}
	if filter.ClasificacionInfo != "" {
		b.add("e.clasificacion_info = ?", string(filter.ClasificacionInfo))
	}
	if filter.Search != "" {
		b.add("(e.numero_expediente ILIKE ? OR e.nombre_expediente ILIKE ? OR e.asunto ILIKE ?)", likePattern(filter.Search))
	}
	b.addRange("e.fecha_apertura", filter.OpenedFrom, filter.OpenedTo)
	return b
}

func (r *CaseFileRepository) List(ctx context.Context, filter domain.CaseFileFilter) ([]domain.CaseFile, int, error) {
	where := caseFileWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+caseFileFrom+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count case files", err)
	}

	limit, args := where.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+caseFileColumns+caseFileFrom+where.sql()+
		"ORDER BY e.numero_progresivo DESC\n"+limit, args...)
	if err != nil {
		return nil, 0, mapError("list case files", err)
	}
	defer rows.Close()

	out := make([]domain.CaseFile, 0)
	for rows.Next() {
		f, err := scanCaseFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan case file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate case files: %w", err)
	}
	return out, total, nil
}

func (r *CaseFileRepository) Update(ctx context.Context, file *domain.CaseFile) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE expedientes
SET nombre_expediente = $2, asunto = $3, total_legajos = $4, total_documentos = $5, total_fojas = $6,
	fecha_apertura = $7, fecha_cierre = $8, valor_administrativo = $9, valor_legal = $10,
	valor_contable = $11, valor_fiscal = $12, clasificacion_info = $13, estado = $14,
	ubicacion_fisica = $15, observaciones = $16, updated_by_id = $17, updated_at = $18
WHERE id = $1
`,
		file.ID, file.NombreExpediente, file.Asunto, file.TotalLegajos, file.TotalDocumentos, file.TotalFojas,
		file.FechaApertura, file.FechaCierre, file.ValorAdministrativo, file.ValorLegal,
		file.ValorContable, file.ValorFiscal, string(file.ClasificacionInfo), string(file.Estado),
		file.UbicacionFisica, file.Observaciones, nullableInt64(file.UpdatedByID), file.UpdatedAt,
	)
	if err != nil {
		return mapError("update case file", err)
	}
	return requireAffected(res, "update case file", "case file")
}

func (r *CaseFileRepository) UpdateStatus(ctx context.Context, id int64, status domain.CaseFileStatus, updatedBy int64) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE expedientes
SET estado = $2, updated_by_id = $3, updated_at = now()
WHERE id = $1
`, id, string(status), updatedBy)
	if err != nil {
		return mapError("update case file estado", err)
	}
	return requireAffected(res, "update case file estado", "case file")
}

func (r *CaseFileRepository) CountByStatus(ctx context.Context, unitID *int64) ([]domain.StatusCount, error) {
	return countStatuses(ctx, r.db, "count case files by estado", `
SELECT estado, COUNT(*)
FROM expedientes
WHERE ($1::bigint IS NULL OR unidad_administrativa_id = $1)
GROUP BY estado
ORDER BY estado`, nullableInt64(unitID))
}
