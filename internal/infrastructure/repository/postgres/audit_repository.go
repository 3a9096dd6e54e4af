package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

const auditColumns = `b.id, b.usuario_id, b.accion, b.entidad, b.entidad_id, b.descripcion, b.datos_previos,
	b.datos_nuevos, b.expediente_id, b.ip_address, b.user_agent, b.created_at,
	u.username, u.nombre, u.apellido_paterno, u.apellido_materno,
	e.numero_expediente, e.nombre_expediente, e.formula_clasificadora, e.estado, e.unidad_administrativa_id`

const auditFrom = `
FROM bitacora b
JOIN usuarios u ON u.id = b.usuario_id
LEFT JOIN expedientes e ON e.id = b.expediente_id
`

func scanAuditEntry(row scanner) (domain.AuditEntry, error) {
	var (
		a            domain.AuditEntry
		accion       string
		previos      []byte
		nuevos       []byte
		expedienteID sql.NullInt64
		user         domain.User
		numero       sql.NullString
		nombre       sql.NullString
		formula      sql.NullString
		estado       sql.NullString
		unidadID     sql.NullInt64
	)
	err := row.Scan(
		&a.ID, &a.UsuarioID, &accion, &a.Entidad, &a.EntidadID, &a.Descripcion, &previos,
		&nuevos, &expedienteID, &a.IPAddress, &a.UserAgent, &a.CreatedAt,
		&user.Username, &user.Nombre, &user.ApellidoPaterno, &user.ApellidoMaterno,
		&numero, &nombre, &formula, &estado, &unidadID,
	)
	if err != nil {
		return a, err
	}
	a.Accion = domain.AuditAction(accion)
	if len(previos) > 0 {
		a.DatosPrevios = previos
	}
	if len(nuevos) > 0 {
		a.DatosNuevos = nuevos
	}
	a.ExpedienteID = int64FromNull(expedienteID)

	user.ID = a.UsuarioID
	a.Usuario = user.Summary()

	if a.ExpedienteID != nil && numero.Valid {
		a.Expediente = &domain.CaseFileSummary{
			ID:                   *a.ExpedienteID,
			NumeroExpediente:     numero.String,
			NombreExpediente:     nombre.String,
			FormulaClasificadora: formula.String,
			Estado:               domain.CaseFileStatus(estado.String),
			UnidadID:             unidadID.Int64,
		}
	}
	return a, nil
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO bitacora (
	usuario_id, accion, entidad, entidad_id, descripcion, datos_previos, datos_nuevos,
	expediente_id, ip_address, user_agent, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id
`,
		entry.UsuarioID, string(entry.Accion), entry.Entidad, entry.EntidadID, entry.Descripcion,
		nullableJSON(entry.DatosPrevios), nullableJSON(entry.DatosNuevos), nullableInt64(entry.ExpedienteID),
		entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return mapError("insert audit entry", err)
	}
	return nil
}

func (r *AuditRepository) GetByID(ctx context.Context, id int64) (*domain.AuditEntry, error) {
	a, err := scanAuditEntry(r.db.QueryRowContext(ctx, `SELECT `+auditColumns+auditFrom+`WHERE b.id = $1`, id))
	if err != nil {
		return nil, mapError("get audit entry", err)
	}
	return &a, nil
}

func auditWhere(filter domain.AuditFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.Accion != "" {
		b.add("b.accion = ?", string(filter.Accion))
	}
	if filter.Entidad != "" {
		b.add("b.entidad = ?", filter.Entidad)
	}
	if filter.UserID != nil {
		b.add("b.usuario_id = ?", *filter.UserID)
	}
	if filter.CaseFileID != nil {
		b.add("b.expediente_id = ?", *filter.CaseFileID)
	}
	b.addRange("b.created_at", filter.From, filter.To)
	return b
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error) {
	where := auditWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)
FROM bitacora b
`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count audit entries", err)
	}

	limit, args := where.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+auditColumns+auditFrom+where.sql()+
		"ORDER BY b.created_at DESC, b.id DESC\n"+limit, args...)
	if err != nil {
		return nil, 0, mapError("list audit entries", err)
	}
	defer rows.Close()

	out := make([]domain.AuditEntry, 0)
	for rows.Next() {
		a, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, total, nil
}

func rangeWhere(from, to *time.Time) *whereBuilder {
	b := &whereBuilder{}
	b.addRange("b.created_at", from, to)
	return b
}

func (r *AuditRepository) Count(ctx context.Context, from, to *time.Time) (int, error) {
	where := rangeWhere(from, to)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)
FROM bitacora b
`+where.sql(), where.args...).Scan(&n); err != nil {
		return 0, mapError("count audit entries", err)
	}
	return n, nil
}

func (r *AuditRepository) CountByAction(ctx context.Context, from, to *time.Time) ([]domain.ActionCount, error) {
	where := rangeWhere(from, to)
	rows, err := r.db.QueryContext(ctx, `SELECT b.accion, COUNT(*)
FROM bitacora b
`+where.sql()+`GROUP BY b.accion
ORDER BY COUNT(*) DESC, b.accion`, where.args...)
	if err != nil {
		return nil, mapError("count audit by accion", err)
	}
	defer rows.Close()

	out := make([]domain.ActionCount, 0)
	for rows.Next() {
		var c domain.ActionCount
		if err := rows.Scan(&c.Accion, &c.Total); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action counts: %w", err)
	}
	return out, nil
}

func (r *AuditRepository) CountByEntity(ctx context.Context, from, to *time.Time) ([]domain.EntityCount, error) {
	where := rangeWhere(from, to)
	rows, err := r.db.QueryContext(ctx, `SELECT b.entidad, COUNT(*)
FROM bitacora b
`+where.sql()+`GROUP BY b.entidad
ORDER BY COUNT(*) DESC, b.entidad`, where.args...)
	if err != nil {
		return nil, mapError("count audit by entidad", err)
	}
	defer rows.Close()

	out := make([]domain.EntityCount, 0)
	for rows.Next() {
		var c domain.EntityCount
		if err := rows.Scan(&c.Entidad, &c.Total); err != nil {
			return nil, fmt.Errorf("scan entity count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity counts: %w", err)
	}
	return out, nil
}

func (r *AuditRepository) TopUsers(ctx context.Context, from, to *time.Time, limit int) ([]domain.UserActivity, error) {
	where := rangeWhere(from, to)
	args := append(append([]any(nil), where.args...), limit)
	rows, err := r.db.QueryContext(ctx, `SELECT b.usuario_id, u.username, u.nombre, u.apellido_paterno, u.apellido_materno, COUNT(*)
FROM bitacora b
JOIN usuarios u ON u.id = b.usuario_id
`+where.sql()+`GROUP BY b.usuario_id, u.username, u.nombre, u.apellido_paterno, u.apellido_materno
ORDER BY COUNT(*) DESC, b.usuario_id
LIMIT `+fmt.Sprintf("$%d", len(args)), args...)
	if err != nil {
		return nil, mapError("top audit users", err)
	}
	defer rows.Close()

	out := make([]domain.UserActivity, 0)
	for rows.Next() {
		var (
			a    domain.UserActivity
			user domain.User
		)
		if err := rows.Scan(&a.UsuarioID, &a.Username, &user.Nombre, &user.ApellidoPaterno, &user.ApellidoMaterno, &a.Total); err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		a.Nombre = user.FullName()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user activity: %w", err)
	}
	return out, nil
}

func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bitacora WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, mapError("purge audit entries", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: rows affected: %w", err)
	}
	return n, nil
}
