// Package server provides the HTTP surface for the grader: batch upload,
// report download, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jonathan/rubric-grader/internal/config"
	"github.com/jonathan/rubric-grader/internal/grading"
	"github.com/jonathan/rubric-grader/internal/server/ratelimit"
	"github.com/jonathan/rubric-grader/internal/storage"
)

// Engine runs a grading batch. *grading.Scheduler satisfies it; tests
// substitute stubs.
type Engine interface {
	Run(ctx context.Context, subs []grading.Submission, rubric string) []grading.GradedResult
}

// Server is the HTTP server wrapping the grading engine.
type Server struct {
	httpServer  *http.Server
	cfg         config.Config
	engine      Engine
	store       *storage.Store
	limiter     *ratelimit.Limiter
	validate    *validator.Validate
	logger      zerolog.Logger
	rubricRule  string
	closeEngine func() error
}

// Options carries the collaborators the server needs.
type Options struct {
	Config config.Config
	Engine Engine
	Store  *storage.Store
	Logger zerolog.Logger
	// CloseEngine, if set, is called during shutdown to release the
	// scoring client.
	CloseEngine func() error
}

// New assembles the server and its routes.
func New(opts Options) *Server {
	s := &Server{
		cfg:         opts.Config,
		engine:      opts.Engine,
		store:       opts.Store,
		limiter:     ratelimit.NewLimiter(ratelimit.LoadConfig()),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      opts.Logger,
		rubricRule:  fmt.Sprintf("required,min=%d,max=%d", opts.Config.MinRubricLen, opts.Config.MaxRubricLen),
		closeEngine: opts.CloseEngine,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/grade", s.handleGrade)
	mux.HandleFunc("GET /api/download/{session_id}/{file_type}", s.handleDownload)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         opts.Config.HTTPAddress(),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute, // grading a full batch is slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start listens until interrupted, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-stop
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.limiter.Stop()
	if s.closeEngine != nil {
		if err := s.closeEngine(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close scoring client")
		}
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

// handleHealth reports whether the scoring backend is configured.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]string{"status": "healthy", "version": "1.0.0"}
	code := http.StatusOK
	if s.engine == nil {
		status["status"] = "degraded"
		status["gemini"] = "unavailable"
		code = http.StatusServiceUnavailable
	} else {
		status["gemini"] = "connected"
	}
	s.jsonResponse(w, code, status)
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// withRateLimit enforces per-client limits before work starts.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.limiter.Allow(clientID, r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractClientID identifies the client by IP address.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}
	s.logger.Warn().Int("limit", info.Limit).Msg("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("error encoding JSON response")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
