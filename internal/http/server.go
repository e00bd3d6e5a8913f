// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"khata/internal/core"
	"khata/internal/services"
)

type Server struct {
	http.Server
	service      *services.LedgerService
	rateLimiter  *rateLimiter
	requirePIN   bool
	shutdownOnce sync.Once
}

// Options tunes server behavior beyond the listen address.
type Options struct {
	// RequirePIN gates mutating API routes behind the X-Khata-Pin header.
	RequirePIN bool
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:     svc,
		rateLimiter: newRateLimiter(),
		requirePIN:  opts.RequirePIN,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))

	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.withPIN(s.handleCreateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.withPIN(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /api/reminders", s.withSecurityHeaders(s.handleListReminders))
	mux.HandleFunc("POST /api/reminders", s.withSecurityHeaders(s.withPIN(s.handleCreateReminder)))
	mux.HandleFunc("DELETE /api/reminders/{id}", s.withSecurityHeaders(s.withPIN(s.handleDeleteReminder)))
	mux.HandleFunc("POST /api/reminders/{id}/pay", s.withSecurityHeaders(s.withPIN(s.handlePayReminder)))

	mux.HandleFunc("GET /api/settings/{key}", s.withSecurityHeaders(s.handleGetSetting))
	mux.HandleFunc("PUT /api/settings/budget", s.withSecurityHeaders(s.withPIN(s.handleSetBudget)))
	mux.HandleFunc("PUT /api/settings/pin", s.withSecurityHeaders(s.withPIN(s.handleSetPIN)))

	mux.HandleFunc("POST /api/verify", s.withSecurityHeaders(s.handleVerifyPIN))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; reads are cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// withPIN gates a mutating route behind the X-Khata-Pin header.
func (s *Server) withPIN(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.requirePIN {
			next(w, r)
			return
		}

		pin := r.Header.Get("X-Khata-Pin")
		ok, err := s.service.VerifyPIN(r.Context(), pin)
		if err != nil {
			serviceError(w, r, err)
			return
		}
		if !ok {
			slog.WarnContext(r.Context(), "PIN verification failed", "url", r.URL.Path)
			writeError(w, r, http.StatusUnauthorized, "invalid pin")
			return
		}
		next(w, r)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestIDKey is the context key for the per-request trace ID.
type requestIDKey struct{}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness means the store answers. A missing table still counts as
	// ready: it needs a setup run, not a restart.
	if _, err := s.service.Reminders(r.Context()); err != nil && !errors.Is(err, core.ErrStoreMissing) {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
