// Package server provides the HTTP API for résumé analysis and generation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/career-omni/internal/analysis"
	"github.com/jonathan/career-omni/internal/config"
	"github.com/jonathan/career-omni/internal/generation"
	"github.com/jonathan/career-omni/internal/server/middleware"
	"github.com/jonathan/career-omni/internal/server/ratelimit"
	"github.com/jonathan/career-omni/internal/session"
	"golang.org/x/sync/errgroup"
)

// Extractor turns an uploaded document into plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Analyzer critiques résumé text.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText string) (*analysis.Result, error)
}

// Generator drafts a résumé for a job description.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// Archiver stores exported analyses. It is optional.
type Archiver interface {
	PutAnalysis(ctx context.Context, sessionID uuid.UUID, data []byte) (string, error)
	GetAnalysis(ctx context.Context, sessionID uuid.UUID, name string) ([]byte, error)
}

// sweeper is implemented by stores that expire idle sessions in the background.
type sweeper interface {
	StartSweeper(ctx context.Context, interval time.Duration)
}

// Deps are the services the handlers call.
type Deps struct {
	Store       session.Store
	Extractor   Extractor
	Analyzer    Analyzer
	Generator   Generator
	Archiver    Archiver
	JWT         *JWTService
	RateLimiter *ratelimit.Limiter
	// Now defaults to time.Now
	Now func() time.Time
}

// Config holds server configuration
type Config struct {
	Port           int
	MaxUploadBytes int64
	// SweepInterval is how often expired sessions are removed; zero disables sweeping
	SweepInterval time.Duration
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	handler        http.Handler
	store          session.Store
	extractor      Extractor
	analyzer       Analyzer
	generator      Generator
	archiver       Archiver
	jwtService     *JWTService
	rateLimiter    *ratelimit.Limiter
	validator      *validator.Validate
	now            func() time.Time
	maxUploadBytes int64
	sweepInterval  time.Duration
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("server: session store is required")
	case deps.Extractor == nil:
		return nil, errors.New("server: extractor is required")
	case deps.Analyzer == nil:
		return nil, errors.New("server: analyzer is required")
	case deps.Generator == nil:
		return nil, errors.New("server: generator is required")
	case deps.JWT == nil:
		return nil, errors.New("server: JWT service is required")
	}

	s := &Server{
		store:          deps.Store,
		extractor:      deps.Extractor,
		analyzer:       deps.Analyzer,
		generator:      deps.Generator,
		archiver:       deps.Archiver,
		jwtService:     deps.JWT,
		rateLimiter:    deps.RateLimiter,
		validator:      validator.New(),
		now:            deps.Now,
		maxUploadBytes: cfg.MaxUploadBytes,
		sweepInterval:  cfg.SweepInterval,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = config.DefaultMaxUploadBytes
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)

	requireSession := middleware.SessionMiddleware(s.jwtService.AsTokenValidator())
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireSession(h))
	}

	protected("GET /session", s.handleGetSession)
	protected("DELETE /session", s.handleResetSession)

	protected("POST /resume", s.handleUploadResume)

	protected("POST /analysis", s.handleAnalyze)
	protected("POST /analysis/stream", s.handleAnalyzeStream)
	protected("GET /analysis", s.handleGetAnalysis)
	protected("GET /analysis/download", s.handleDownloadAnalysis)
	protected("GET /analysis/archive/{name}", s.handleGetArchivedAnalysis)

	protected("POST /generation", s.handleGenerate)
	protected("GET /generation", s.handleGetGeneration)
	protected("GET /generation/download/{format}", s.handleDownloadGeneration)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for model calls
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if sw, ok := s.store.(sweeper); ok && s.sweepInterval > 0 {
		g.Go(func() error {
			sw.StartSweeper(gctx, s.sweepInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.rateLimiter.Stop()
	log.Println("Server stopped")
	return err
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.TokenHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+ArchiveNameHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the logging middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d completed in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
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
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// warningResponse reports a request that was understood but did nothing.
func (s *Server) warningResponse(w http.ResponseWriter, message string) {
	s.jsonResponse(w, http.StatusUnprocessableEntity, map[string]string{"warning": message})
}

// writeError maps err to a status and user-facing message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s failed: %v", r.Method, r.URL.Path, err)
	}
	s.errorResponse(w, status, userMessage(err))
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
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
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
