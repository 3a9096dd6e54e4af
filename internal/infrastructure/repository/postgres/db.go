package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository runs inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func OpenDB(dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Store owns the connection pool and hands out transaction-bound repositories.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStores) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, txStores{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "commit tx", err)
	}
	return nil
}

type txStores struct {
	tx *sql.Tx
}

func (s txStores) CaseFiles() ports.CaseFileStore { return NewCaseFileRepository(s.tx) }
func (s txStores) Loans() ports.LoanStore         { return NewLoanRepository(s.tx) }
func (s txStores) Audit() ports.AuditStore        { return NewAuditRepository(s.tx) }
func (s txStores) Users() ports.UserStore         { return NewUserRepository(s.tx) }

type scanner interface {
	Scan(dest ...any) error
}

// mapError converts driver failures into domain error kinds.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrNotFound, operation, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.NewError(domain.ErrConflict, operation, describeConstraint(pgErr, "already exists"))
		case "23503":
			return domain.NewError(domain.ErrInvalidInput, operation, describeConstraint(pgErr, "references a missing row"))
		case "23514", "22P02":
			return domain.NewError(domain.ErrInvalidInput, operation, describeConstraint(pgErr, "violates a check constraint"))
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func describeConstraint(pgErr *pgconn.PgError, fallback string) string {
	if pgErr.ConstraintName != "" {
		return fallback + " (" + pgErr.ConstraintName + ")"
	}
	return fallback
}

func requireAffected(res sql.Result, operation, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if n == 0 {
		return domain.NewError(domain.ErrNotFound, operation, what+" not found")
	}
	return nil
}

// whereBuilder accumulates AND-ed conditions. Every '?' in a condition becomes the next $n.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(b.args))))
}

func (b *whereBuilder) addRange(column string, from, to *time.Time) {
	if from != nil {
		b.add(column+" >= ?", *from)
	}
	if to != nil {
		b.add(column+" <= ?", *to)
	}
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conds, " AND ") + "\n"
}

// page appends LIMIT/OFFSET placeholders and returns the clause plus the full argument list.
func (b *whereBuilder) page(p domain.Page) (string, []any) {
	args := append(append([]any(nil), b.args...), p.Limit, p.Offset())
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(b.args)+1, len(b.args)+2), args
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64FromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func timeFromNull(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	out := v.Time
	return &out
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func countStatuses(ctx context.Context, db DBTX, operation, query string, args ...any) ([]domain.StatusCount, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(operation, err)
	}
	defer rows.Close()

	out := make([]domain.StatusCount, 0)
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.Estado, &c.Total); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", operation, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", operation, err)
	}
	return out, nil
}
