// Package server provides the HTTP API for the question pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/audit"
	"github.com/jonathan/sop-question-agent/internal/config"
	"github.com/jonathan/sop-question-agent/internal/db"
	"github.com/jonathan/sop-question-agent/internal/logging"
	"github.com/jonathan/sop-question-agent/internal/metrics"
	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/server/middleware"
	"github.com/jonathan/sop-question-agent/internal/server/ratelimit"
	"github.com/jonathan/sop-question-agent/internal/types"
)

const serviceName = "sop-question-agent"

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, profile types.ApplicantProfile, onUpdate pipeline.UpdateFunc) (*pipeline.State, error)
}

// RunStore persists finished runs. *db.DB implements it.
type RunStore interface {
	CreateRun(ctx context.Context, runID uuid.UUID, programCategory string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, result db.RunResult) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	SaveAuditEvents(ctx context.Context, runID uuid.UUID, log audit.Log) error
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	GetArtifactInto(ctx context.Context, runID uuid.UUID, step string, dst any) (bool, error)
	ListAuditEvents(ctx context.Context, runID uuid.UUID) ([]db.AuditEvent, error)
}

var _ RunStore = (*db.DB)(nil)

// Options configures the server. A nil JWT disables authentication, a nil
// Registry disables metrics and a nil RateLimit disables rate limiting.
type Options struct {
	Port               int
	RunTimeout         time.Duration
	CORSAllowedOrigins []string
	RateLimit          *ratelimit.Config
	JWT                *config.JWTConfig
	Clients            map[string]string // client id -> bcrypt hash of its secret
	Secrets            *config.SecretConfig
	Registry           *prometheus.Registry
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	runner      Runner
	store       RunStore
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
	runTimeout  time.Duration
	logger      *zap.Logger
}

// New creates a new server instance. store may be nil, in which case runs
// are not persisted and GET /runs/{id} is not served.
func New(runner Runner, store RunStore, opts Options, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RateLimit == nil {
		opts.RateLimit = &ratelimit.Config{Enabled: false}
	}

	s := &Server{
		runner:      runner,
		store:       store,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		runTimeout:  opts.RunTimeout,
		logger:      logger.Named("server"),
	}

	if opts.JWT != nil {
		s.jwtService = NewJWTService(opts.JWT)
		if len(opts.Clients) > 0 {
			if opts.Secrets == nil {
				return nil, fmt.Errorf("client credentials require a secret configuration")
			}
			s.authHandler = NewAuthHandler(opts.Clients, opts.Secrets, s.jwtService)
		}
	}

	s.router = s.routes(opts, logger)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for pipeline runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes(opts Options, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(logging.RequestLogger(logger, "http"))

	if opts.Registry != nil {
		httpMetrics := metrics.NewMiddleware(serviceName)
		opts.Registry.MustRegister(httpMetrics.Collectors()...)
		r.Use(httpMetrics.Handler)
	}
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)
	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}
	if s.authHandler != nil {
		r.Post("/auth/token", s.authHandler.Token)
	}

	r.Group(func(r chi.Router) {
		if s.jwtService != nil {
			r.Use(middleware.AuthMiddleware(s.jwtService.AsTokenValidator()))
		}
		r.Post("/pipeline/run", s.handleRun)
		if s.store != nil {
			r.Get("/runs/{id}", s.handleGetRun)
		}
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves requests until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// withRateLimit applies per-client rate limits keyed by remote IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is not trusted, so this is the peer IP.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Int("remaining", info.Remaining),
		zap.Time("reset_at", info.ResetTime))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
