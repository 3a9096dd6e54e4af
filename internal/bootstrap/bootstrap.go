package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/archivo-expedientes/internal/config"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
	"github.com/kirillkom/archivo-expedientes/internal/core/usecase"
	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/report/excel"
	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/resilience"
	"github.com/kirillkom/archivo-expedientes/internal/infrastructure/security"
	redissession "github.com/kirillkom/archivo-expedientes/internal/infrastructure/session/redis"
	"github.com/kirillkom/archivo-expedientes/internal/observability/metrics"
)

const ServiceName = "archivo-api"

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Catalog   *usecase.CatalogUseCase
	CaseFiles *usecase.CaseFileUseCase
	Loans     *usecase.LoanUseCase
	Audit     *usecase.AuditUseCase
	Users     *usecase.UserUseCase

	// Auth and Reports are only wired by New; the admin CLI has no sessions or workbooks.
	Auth    *usecase.AuthUseCase
	Reports *usecase.ReportUseCase

	db      *sql.DB
	redis   *goredis.Client
	trail   *usecase.AuditTrail
	closeFn func()
}

// New wires the full API: database, optional Redis session store, tokens and reports.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app, err := NewAdmin(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	var revoker ports.TokenRevoker
	if cfg.RedisURL != "" {
		client, err := redissession.Connect(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.redis = client
		revoker = redissession.NewRevocationStore(client).
			WithBreaker(resilience.NewBreakers(resilience.DefaultConfig()))
	} else {
		logger.Warn("REDIS_URL not set, logout will not revoke tokens")
	}

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown report time zone, falling back to UTC", "time_zone", cfg.TimeZone, "error", err)
		location = time.UTC
	}

	app.Auth = usecase.NewAuthUseCase(
		postgres.NewUserRepository(app.db),
		security.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		revoker,
		postgres.NewStore(app.db),
		app.trail,
		app.Logger,
	)
	app.Reports = usecase.NewReportUseCase(
		postgres.NewCaseFileRepository(app.db),
		postgres.NewLoanRepository(app.db),
		postgres.NewAuditRepository(app.db),
		excel.NewRenderer(location),
	)
	return app, nil
}

// NewAdmin wires only the database-backed use cases, enough for archivoctl.
func NewAdmin(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN, logger); err != nil {
			return nil, fmt.Errorf("migrate on start: %w", err)
		}
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN, cfg.DBMaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewHTTPServerMetrics(ServiceName),
		db:      db,
	}

	store := postgres.NewStore(db)
	catalog := postgres.NewCatalogRepository(db)
	caseFiles := postgres.NewCaseFileRepository(db)
	loans := postgres.NewLoanRepository(db)
	audit := postgres.NewAuditRepository(db)
	users := postgres.NewUserRepository(db)
	trail := usecase.NewAuditTrail(audit, app.Metrics.ForAudit(ServiceName), logger)
	app.trail = trail

	app.Catalog = usecase.NewCatalogUseCase(catalog)
	app.CaseFiles = usecase.NewCaseFileUseCase(store, caseFiles, catalog, trail, cfg.OrgCode)
	app.Loans = usecase.NewLoanUseCase(store, loans, trail)
	app.Audit = usecase.NewAuditUseCase(trail, audit, users, caseFiles)
	app.Users = usecase.NewUserUseCase(store, users, catalog, security.NewBcryptHasher(cfg.BcryptCost), trail)

	app.closeFn = func() {
		if app.redis != nil {
			_ = app.redis.Close()
		}
		_ = db.Close()
	}
	return app, nil
}

// Ping reports database reachability for /health.
func (a *App) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
