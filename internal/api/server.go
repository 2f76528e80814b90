// Package api serves the query compiler and analyzers over HTTP. Each
// browser session gets its own store, tracked by a signed cookie.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlscope/internal/api/notifier"
	"github.com/leapstack-labs/sqlscope/internal/engine"
	"github.com/leapstack-labs/sqlscope/internal/session"
)

const (
	maxBody            = 32 << 20
	defaultSessionIdle = 30 * time.Minute
)

// Server is the HTTP API server.
type Server struct {
	engine       *engine.Engine
	sessions     *session.Registry
	cookieStore  *sessions.CookieStore
	notifier     *notifier.Notifier
	port         int
	rateLimit    RateLimitConfig
	sessionIdle  time.Duration
	normSample   int
	insightLimit int
	logger       *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Engine        *engine.Engine
	Sessions      *session.Registry
	Port          int
	SessionSecret string
	// SecureCookie restricts the session cookie to HTTPS.
	SecureCookie bool
	RateLimit    RateLimitConfig
	// SessionIdle evicts stores unused for this long (default 30m)
	SessionIdle time.Duration
	// NormalizationSample and InsightsSample cap rows read per table.
	NormalizationSample int
	InsightsSample      int
	Logger              *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.MaxAge(86400 * 7) // 7 days
	cookieStore.Options.Path = "/"
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = cfg.SecureCookie
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	idle := cfg.SessionIdle
	if idle <= 0 {
		idle = defaultSessionIdle
	}
	norm := cfg.NormalizationSample
	if norm <= 0 {
		norm = engine.DefaultNormalizationSample
	}
	ins := cfg.InsightsSample
	if ins <= 0 {
		ins = engine.DefaultInsightsSample
	}

	return &Server{
		engine:       cfg.Engine,
		sessions:     cfg.Sessions,
		cookieStore:  cookieStore,
		notifier:     notifier.New(),
		port:         cfg.Port,
		rateLimit:    cfg.RateLimit,
		sessionIdle:  idle,
		normSample:   norm,
		insightLimit: ins,
		logger:       logger,
	}
}

// Handler builds the router. The rate limiter's bookkeeping stops when
// ctx is done.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)
	if s.rateLimit.Enabled() {
		r.Use(RateLimiter(ctx, s.rateLimit))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/schema", s.handleSchema)
			r.Post("/query", s.handleQuery)
			r.Post("/compile", s.handleCompile)
			r.Get("/normalization", s.handleNormalization)
			r.Get("/insights", s.handleInsights)
			r.Post("/tables", s.handleLoadTable)
			r.Get("/history", s.handleHistory)
			r.Get("/events", s.handleEvents)
			r.Delete("/session", s.handleDestroySession)
		})
	})
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(egctx),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.sessions.Run(egctx, s.sessionIdle/2, s.sessionIdle)
		return nil
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}
