package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/config"
	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
	"github.com/kirillkom/archivo-expedientes/internal/core/ports"
	"github.com/kirillkom/archivo-expedientes/internal/observability/metrics"
)

const (
	serviceName      = "archivo-api"
	backpressureWait = 500 * time.Millisecond
)

// Services groups the inbound ports the API exposes.
type Services struct {
	Auth      ports.AuthService
	Catalog   ports.CatalogService
	CaseFiles ports.CaseFileService
	Loans     ports.LoanService
	Audit     ports.AuditService
	Users     ports.UserService
	Reports   ports.ReportService
}

type Router struct {
	cfg     config.Config
	svc     Services
	metrics *metrics.HTTPServerMetrics
	health  func(ctx context.Context) error
}

// NewRouter wires the API. httpMetrics may be nil, which disables /metrics and instrumentation.
func NewRouter(cfg config.Config, svc Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:     cfg,
		svc:     svc,
		metrics: httpMetrics,
	}
}

// WithHealthCheck sets the dependency check reported by /health.
func (rt *Router) WithHealthCheck(check func(ctx context.Context) error) *Router {
	rt.health = check
	return rt
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.With(func(next http.Handler) http.Handler {
			return perClientRateLimitMiddleware(next, rt.cfg.LoginRateLimitRPS, rt.cfg.LoginRateLimitBurst)
		}).Post("/auth/login", rt.login)

		api.Group(func(p chi.Router) {
			p.Use(authMiddleware(rt.svc.Auth))

			p.Route("/auth", rt.authRoutes)
			p.Route("/catalog", rt.catalogRoutes)
			p.Route("/casefiles", rt.caseFileRoutes)
			p.Route("/loans", rt.loanRoutes)
			p.Route("/audit", rt.auditRoutes)
			p.Route("/users", rt.userRoutes)
			p.Route("/reports", rt.reportRoutes)
			p.Get("/dashboard", rt.dashboard)
		})
	})

	var handler http.Handler = r
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = clientIPMiddleware(handler, parseTrustedProxies(rt.cfg.TrustedProxies))
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, envelope{
				Success: false,
				Data:    map[string]string{"status": "degraded"},
				Message: "database unavailable",
			})
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

func (rt *Router) pageOf(q *queryReader) domain.Page {
	return q.page(rt.cfg.DefaultPageSize, rt.cfg.MaxPageSize)
}

func (rt *Router) recordLoanTransition(action string, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordLoanTransition(serviceName, action, err)
	}
}

func (rt *Router) recordLogin(err error) {
	if rt.metrics != nil {
		rt.metrics.RecordLogin(serviceName, err)
	}
}

func (rt *Router) recordReport(report string, rows int) {
	if rt.metrics != nil {
		rt.metrics.RecordReport(serviceName, report, rows)
	}
}
