package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

type LoanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) *LoanRepository {
	return &LoanRepository{db: db}
}

const loanColumns = `p.id, p.expediente_id, p.usuario_id, p.autorizado_por_id, p.estado, p.fecha_prestamo,
	p.fecha_devolucion_esperada, p.fecha_devolucion_real, p.motivo_prestamo, p.observaciones, p.created_at, p.updated_at`

const loanJoinedColumns = loanColumns + `,
	e.numero_expediente, e.nombre_expediente, e.formula_clasificadora, e.estado, e.unidad_administrativa_id,
	u.username, u.nombre, u.apellido_paterno, u.apellido_materno,
	a.username, a.nombre, a.apellido_paterno, a.apellido_materno`

const loanFrom = `
FROM prestamos p
JOIN expedientes e ON e.id = p.expediente_id
JOIN usuarios u ON u.id = p.usuario_id
LEFT JOIN usuarios a ON a.id = p.autorizado_por_id
`

func loanScanTargets(l *domain.Loan, autorizadoPor *sql.NullInt64, estado *string, devolucion *sql.NullTime) []any {
	return []any{
		&l.ID, &l.ExpedienteID, &l.UsuarioID, autorizadoPor, estado, &l.FechaPrestamo,
		&l.FechaDevolucionEsperada, devolucion, &l.MotivoPrestamo, &l.Observaciones, &l.CreatedAt, &l.UpdatedAt,
	}
}

func scanLoan(row scanner) (domain.Loan, error) {
	var (
		l             domain.Loan
		autorizadoPor sql.NullInt64
		estado        string
		devolucion    sql.NullTime
	)
	if err := row.Scan(loanScanTargets(&l, &autorizadoPor, &estado, &devolucion)...); err != nil {
		return l, err
	}
	l.AutorizadoPorID = int64FromNull(autorizadoPor)
	l.Estado = domain.LoanStatus(estado)
	l.FechaDevolucionReal = timeFromNull(devolucion)
	return l, nil
}

func scanLoanJoined(row scanner) (domain.Loan, error) {
	var (
		l             domain.Loan
		autorizadoPor sql.NullInt64
		estado        string
		devolucion    sql.NullTime
		file          domain.CaseFileSummary
		fileEstado    string
		user          domain.User
		authUsername  sql.NullString
		authNombre    sql.NullString
		authPaterno   sql.NullString
		authMaterno   sql.NullString
	)
	targets := append(loanScanTargets(&l, &autorizadoPor, &estado, &devolucion),
		&file.NumeroExpediente, &file.NombreExpediente, &file.FormulaClasificadora, &fileEstado, &file.UnidadID,
		&user.Username, &user.Nombre, &user.ApellidoPaterno, &user.ApellidoMaterno,
		&authUsername, &authNombre, &authPaterno, &authMaterno,
	)
	if err := row.Scan(targets...); err != nil {
		return l, err
	}
	l.AutorizadoPorID = int64FromNull(autorizadoPor)
	l.Estado = domain.LoanStatus(estado)
	l.FechaDevolucionReal = timeFromNull(devolucion)

	file.ID = l.ExpedienteID
	file.Estado = domain.CaseFileStatus(fileEstado)
	l.Expediente = &file

	user.ID = l.UsuarioID
	l.Usuario = user.Summary()

	if l.AutorizadoPorID != nil && authUsername.Valid {
		authorizer := domain.User{
			ID:              *l.AutorizadoPorID,
			Username:        authUsername.String,
			Nombre:          authNombre.String,
			ApellidoPaterno: authPaterno.String,
			ApellidoMaterno: authMaterno.String,
		}
		l.AutorizadoPor = authorizer.Summary()
	}
	return l, nil
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO prestamos (
	expediente_id, usuario_id, autorizado_por_id, estado, fecha_prestamo, fecha_devolucion_esperada,
	fecha_devolucion_real, motivo_prestamo, observaciones, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id
`,
		loan.ExpedienteID, loan.UsuarioID, nullableInt64(loan.AutorizadoPorID), string(loan.Estado), loan.FechaPrestamo,
		loan.FechaDevolucionEsperada, loan.FechaDevolucionReal, loan.MotivoPrestamo, loan.Observaciones,
		loan.CreatedAt, loan.UpdatedAt,
	).Scan(&loan.ID)
	if err != nil {
		return mapError("create loan", err)
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*domain.Loan, error) {
	l, err := scanLoanJoined(r.db.QueryRowContext(ctx, `SELECT `+loanJoinedColumns+loanFrom+`WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapError("get loan", err)
	}
	return &l, nil
}

// GetByIDForUpdate reads the bare row; FOR UPDATE cannot reach the nullable side of the authorizer join.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	l, err := scanLoan(r.db.QueryRowContext(ctx, `SELECT `+loanColumns+`
FROM prestamos p
WHERE p.id = $1
FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("lock loan", err)
	}
	return &l, nil
}

func (r *LoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE prestamos
SET autorizado_por_id = $2, estado = $3, fecha_devolucion_real = $4, observaciones = $5, updated_at = $6
WHERE id = $1
`, loan.ID, nullableInt64(loan.AutorizadoPorID), string(loan.Estado), loan.FechaDevolucionReal, loan.Observaciones, loan.UpdatedAt)
	if err != nil {
		return mapError("update loan", err)
	}
	return requireAffected(res, "update loan", "loan")
}

var activeLoanStatuses = "'" + string(domain.LoanAuthorized) + "', '" + string(domain.LoanOnLoan) + "'"

func loanWhere(filter domain.LoanFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.Estado != "" {
		b.add("p.estado = ?", string(filter.Estado))
	}
	if filter.CaseFileID != nil {
		b.add("p.expediente_id = ?", *filter.CaseFileID)
	}
	if filter.UserID != nil {
		b.add("p.usuario_id = ?", *filter.UserID)
	}
	if filter.UnitID != nil {
		b.add("e.unidad_administrativa_id = ?", *filter.UnitID)
	}
	b.addRange("p.fecha_prestamo", filter.From, filter.To)
	if filter.OverdueAt != nil {
		b.add("p.estado IN ("+activeLoanStatuses+") AND p.fecha_devolucion_esperada < ?", *filter.OverdueAt)
	}
	return b
}

func (r *LoanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]domain.Loan, int, error) {
	where := loanWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+loanFrom+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count loans", err)
	}

	limit, args := where.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+loanJoinedColumns+loanFrom+where.sql()+
		"ORDER BY p.created_at DESC, p.id DESC\n"+limit, args...)
	if err != nil {
		return nil, 0, mapError("list loans", err)
	}
	defer rows.Close()

	out := make([]domain.Loan, 0)
	for rows.Next() {
		l, err := scanLoanJoined(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate loans: %w", err)
	}
	return out, total, nil
}

func (r *LoanRepository) CountByStatus(ctx context.Context, unitID *int64) ([]domain.StatusCount, error) {
	return countStatuses(ctx, r.db, "count loans by estado", `
SELECT p.estado, COUNT(*)
FROM prestamos p
JOIN expedientes e ON e.id = p.expediente_id
WHERE ($1::bigint IS NULL OR e.unidad_administrativa_id = $1)
GROUP BY p.estado
ORDER BY p.estado`, nullableInt64(unitID))
}

func (r *LoanRepository) CountOverdue(ctx context.Context, unitID *int64, now time.Time) (int, error) {
	query := strings.Join([]string{
		"SELECT COUNT(*)",
		"FROM prestamos p",
		"JOIN expedientes e ON e.id = p.expediente_id",
		"WHERE p.estado IN (" + activeLoanStatuses + ")",
		"AND p.fecha_devolucion_esperada < $1",
		"AND ($2::bigint IS NULL OR e.unidad_administrativa_id = $2)",
	}, "\n")
	var n int
	if err := r.db.QueryRowContext(ctx, query, now, nullableInt64(unitID)).Scan(&n); err != nil {
		return 0, mapError("count overdue loans", err)
	}
	return n, nil
}
