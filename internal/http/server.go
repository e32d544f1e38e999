// Package http exposes the ledger over a JSON API plus the embedded
// single-page frontend.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"takatrack/internal/cache"
	"takatrack/internal/core"
	"takatrack/internal/ledger"
	"takatrack/internal/log"
	appweb "takatrack/web"
)

// Server wraps http.Server with the ledger and a metrics cache for closed
// months. Closed months are immutable, so their derived metrics can be
// cached aggressively.
type Server struct {
	http.Server

	ledger *ledger.Ledger
	log    *log.Logger

	metricsCache *cache.LRUCache[core.Metrics]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, led *ledger.Ledger, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		ledger:           led,
		log:              logger.WithComponent("http"),
		metricsCache:     cache.NewLRUCache[core.Metrics](100, 30*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/state", s.wrap(s.handleState))
	mux.HandleFunc("GET /api/metrics", s.wrap(s.handleMetrics))

	mux.HandleFunc("PUT /api/income", s.wrap(s.handleSetIncome))
	mux.HandleFunc("POST /api/income/adjust", s.wrap(s.handleAdjustIncome))

	mux.HandleFunc("POST /api/expenses", s.wrap(s.handleAddExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.wrap(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/expenses/{id}/restore", s.wrap(s.handleRestoreExpense))

	mux.HandleFunc("GET /api/goals", s.wrap(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.wrap(s.handleAddGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.wrap(s.handleEditGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.wrap(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.wrap(s.handleContribute))

	mux.HandleFunc("GET /api/savings", s.wrap(s.handleGetSavings))
	mux.HandleFunc("PUT /api/savings", s.wrap(s.handleSetSavings))
	mux.HandleFunc("POST /api/savings/adjust", s.wrap(s.handleAdjustSavings))
	mux.HandleFunc("POST /api/savings/borrow", s.wrap(s.handleBorrowSavings))

	mux.HandleFunc("GET /api/templates", s.wrap(s.handleListTemplates))
	mux.HandleFunc("DELETE /api/templates/{id}", s.wrap(s.handleDeleteTemplate))

	mux.HandleFunc("POST /api/month/close", s.wrap(s.handleCloseMonth))

	mux.HandleFunc("GET /api/theme", s.wrap(s.handleGetTheme))
	mux.HandleFunc("PUT /api/theme", s.wrap(s.handleSetTheme))
	mux.HandleFunc("POST /api/theme/toggle", s.wrap(s.handleToggleTheme))

	// Static frontend from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.FileServer(http.FS(sub))
		mux.Handle("GET /", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.log.Warn("failed to mount embedded static FS", "error", err)
	}

	return s
}

// startCacheCleanup periodically drops expired metrics entries.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.metricsCache.CleanExpired(); n > 0 {
				s.log.Debug("metrics cache cleanup", "entries_removed", n)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutine and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// wrap adds security headers and request logging around a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.log.InfoContext(r.Context(), "request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
