package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"financas/internal/log"
	"financas/internal/middleware/metrics"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
	"financas/internal/session"
)

// readyTimeout bounds the backend check of /readyz.
const readyTimeout = 3 * time.Second

// Options configures a Server.
type Options struct {
	Service *services.LedgerService
	Gate    *session.Gate
	Logger  *log.Logger
	// Metrics is created when nil.
	Metrics            *metrics.Metrics
	RateLimitPerMinute int
	// TrustedProxies extends the private ranges whose forwarded headers
	// are trusted.
	TrustedProxies []string
	// Now defaults to time.Now and picks the default month of reports.
	Now func() time.Time
}

// Server is the JSON API.
type Server struct {
	http.Server
	svc      *services.LedgerService
	gate     *session.Gate
	logger   *log.Logger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	detector *security.Detector
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		svc:      opts.Service,
		gate:     opts.Gate,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		metrics:  opts.Metrics,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		now:      opts.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.metrics.Middleware)
	r.Use(s.limiter.Middleware(ratelimit.WritesOnly, s.detector.ExtractClientIP, s.rateLimited))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorCode(w, http.StatusNotFound, CodeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorCode(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.gate.Middleware(writeError))

			r.Post("/logout", s.handleLogout)
			r.Get("/household", s.handleHousehold)

			r.Route("/transactions", func(r chi.Router) {
				mountResource(r, s.svc.Transactions)
			})
			r.Route("/categories", func(r chi.Router) {
				mountResource(r, s.svc.Categories)
			})
			r.Route("/fixed-expenses", func(r chi.Router) {
				r.Get("/status", s.handleFixedStatus)
				mountResource(r, s.svc.FixedExpenses)
				r.Post("/{id}/payments", recordChild(s.svc.RecordFixedExpensePayment))
				r.Get("/{id}/payments", listChildren(s.svc.FixedExpensePayments))
			})
			r.Route("/fixed-incomes", func(r chi.Router) {
				mountResource(r, s.svc.FixedIncomes)
				r.Post("/{id}/receipts", recordChild(s.svc.RecordFixedIncomeReceipt))
				r.Get("/{id}/receipts", listChildren(s.svc.FixedIncomeReceipts))
			})
			r.Route("/reserves", func(r chi.Router) {
				mountResource(r, s.svc.Reserves)
				r.Post("/{id}/movements", recordChild(s.recordReserveMovement))
				r.Get("/{id}/movements", listChildren(s.svc.ReserveMovements))
			})
			r.Route("/goals", func(r chi.Router) {
				mountResource(r, s.svc.Goals)
				r.Post("/{id}/movements", recordChild(s.recordGoalMovement))
				r.Get("/{id}/movements", listChildren(s.svc.GoalMovements))
			})
			r.Route("/settlements", func(r chi.Router) {
				r.Get("/totals", s.handleSettlementTotals)
				mountResource(r, s.svc.Settlements)
			})

			r.Get("/dashboard", s.handleDashboard)
			r.Route("/reports", func(r chi.Router) {
				r.Get("/items", s.handleMonthItems)
				r.Get("/export.csv", s.handleExportCSV)
				r.Get("/comparison", s.handleComparison)
				r.Get("/trend", s.handleTrend)
			})
		})
	})
	return r
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeErrorCode(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, please try again later")
}

// Metrics returns the collectors served at /metrics.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports whether the Record Store backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.svc.Store().Ready(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
