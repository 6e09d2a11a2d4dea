package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/store"
	"fintrack/internal/view"
)

// BatteryReader is the slice of the battery monitor the API needs.
type BatteryReader interface {
	Level(ctx context.Context) (int, error)
	OpenSettings(ctx context.Context) error
}

type Server struct {
	http.Server

	store     *store.Store
	reminders *services.ReminderService
	battery   BatteryReader

	logger      *applog.Logger
	detector    *security.Detector
	headers     *security.HeadersMiddleware
	tracer      *trace.Middleware
	rateLimiter *ratelimit.Limiter

	// Computed views keyed by store version + options, so entries go
	// stale exactly when the collection changes.
	viewCache    *cache.LRUCache[view.View]
	cacheManager *cache.Manager

	defaultPageSize int
	shutdownOnce    sync.Once
}

// NewServer configures middleware and routes, returning a ready-to-run
// http.Server. reminders and battery may be nil; their endpoints then answer
// 503.
func NewServer(addr string, st *store.Store, reminders *services.ReminderService, battery BatteryReader, defaultPageSize int) *Server {
	if defaultPageSize < 1 {
		defaultPageSize = view.DefaultPageSize
	}

	detector := security.NewDetector()

	s := &Server{
		store:           st,
		reminders:       reminders,
		battery:         battery,
		logger:          applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		detector:        detector,
		headers:         security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		tracer:          trace.NewMiddleware(detector.ExtractClientIP),
		rateLimiter:     ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		viewCache:       cache.NewLRUCache[view.View](200, 5*time.Minute),
		cacheManager:    cache.NewManager(),
		defaultPageSize: defaultPageSize,
	}

	s.cacheManager.Register(s.viewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Exact patterns win over the subtree below, so refresh is safe to
	// register alongside the id route.
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/refresh", s.handleRefresh)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/summary", s.handleSummary)

	mux.HandleFunc("/api/tools/compound-interest", s.handleCompoundInterest)

	mux.HandleFunc("/api/battery", s.handleBattery)
	mux.HandleFunc("/api/battery/settings", s.handleBatterySettings)

	mux.HandleFunc("/api/calendar/access", s.handleCalendarAccess)
	mux.HandleFunc("/api/reminders", s.handleReminders)

	mux.HandleFunc("/api/metrics", s.handleMetrics)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.buildHandler(mux),
	}

	return s
}

// buildHandler stacks the middleware: security headers, tracing, suspicion
// screening, then rate limiting on mutating methods.
func (s *Server) buildHandler(mux *http.ServeMux) http.Handler {
	var h http.Handler = mux
	h = s.withWriteRateLimit(h)
	h = s.withSuspicionScreen(h)
	h = applog.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	h = s.headers.Middleware(h)
	return h
}

func (s *Server) withSuspicionScreen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			fields := applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"))
			fields[applog.FieldClientIP] = s.detector.ExtractClientIP(r)
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				fields.ToSlice()...)
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withWriteRateLimit applies per-client rate limiting to mutating requests.
// Reads are served from memory and stay unthrottled.
func (s *Server) withWriteRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			clientIP := s.detector.ExtractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP,
					"method", r.Method,
					"path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
