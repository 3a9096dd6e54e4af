package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password, nombre, apellido_paterno, apellido_materno, rol,
	unidad_administrativa_id, activo, ultimo_acceso, created_at, updated_at`

func scanUser(row scanner) (domain.User, error) {
	var (
		u            domain.User
		rol          string
		unidadID     sql.NullInt64
		ultimoAcceso sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.Nombre, &u.ApellidoPaterno, &u.ApellidoMaterno, &rol,
		&unidadID, &u.Activo, &ultimoAcceso, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return u, err
	}
	u.Rol = domain.Role(rol)
	u.UnidadAdministrativaID = int64FromNull(unidadID)
	u.UltimoAcceso = timeFromNull(ultimoAcceso)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO usuarios (
	username, email, password, nombre, apellido_paterno, apellido_materno, rol,
	unidad_administrativa_id, activo, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id
`,
		user.Username, user.Email, user.Password, user.Nombre, user.ApellidoPaterno, user.ApellidoMaterno,
		string(user.Rol), nullableInt64(user.UnidadAdministrativaID), user.Activo, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return mapError("create user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+`
FROM usuarios
WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get user", err)
	}
	return &u, nil
}

// GetByLogin matches the username exactly or the email case-insensitively.
func (r *UserRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+`
FROM usuarios
WHERE username = $1 OR lower(email) = lower($1)
ORDER BY id
LIMIT 1`, usernameOrEmail))
	if err != nil {
		return nil, mapError("get user by login", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+`
FROM usuarios
WHERE id IN (`+strings.Join(placeholders, ", ")+`)
ORDER BY id`, args...)
	if err != nil {
		return nil, mapError("get users", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func userWhere(filter domain.UserFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.Rol != "" {
		b.add("rol = ?", string(filter.Rol))
	}
	if filter.UnitID != nil {
		b.add("unidad_administrativa_id = ?", *filter.UnitID)
	}
	if filter.Activo != nil {
		b.add("activo = ?", *filter.Activo)
	}
	if filter.Search != "" {
		b.add("(username ILIKE ? OR email ILIKE ? OR nombre ILIKE ? OR apellido_paterno ILIKE ?)", likePattern(filter.Search))
	}
	return b
}

func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	where := userWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)
FROM usuarios
`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, mapError("count users", err)
	}

	limit, args := where.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+`
FROM usuarios
`+where.sql()+"ORDER BY username\n"+limit, args...)
	if err != nil {
		return nil, 0, mapError("list users", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE usuarios
SET email = $2, nombre = $3, apellido_paterno = $4, apellido_materno = $5, rol = $6,
	unidad_administrativa_id = $7, activo = $8, updated_at = $9
WHERE id = $1
`,
		user.ID, user.Email, user.Nombre, user.ApellidoPaterno, user.ApellidoMaterno, string(user.Rol),
		nullableInt64(user.UnidadAdministrativaID), user.Activo, user.UpdatedAt,
	)
	if err != nil {
		return mapError("update user", err)
	}
	return requireAffected(res, "update user", "user")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE usuarios
SET password = $2, updated_at = now()
WHERE id = $1
`, id, hash)
	if err != nil {
		return mapError("update password", err)
	}
	return requireAffected(res, "update password", "user")
}

func (r *UserRepository) TouchLastAccess(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE usuarios SET ultimo_acceso = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapError("touch last access", err)
	}
	return requireAffected(res, "touch last access", "user")
}
