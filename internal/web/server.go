// Package web provides the HTTP server and JSON API for the expense
// documentation service.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/config"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/core"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/web/middleware"
)

// Server is the HTTP server for the expense documentation API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router with its middleware stack and routes.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// The import and photo endpoints move real bytes, so they sit behind
	// a tighter limiter than the rest of the API.
	var uploadLimit func(http.Handler) http.Handler
	if s.cfg.Rate.Enabled {
		uploadLimit = newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware
	} else {
		uploadLimit = func(next http.Handler) http.Handler { return next }
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleCreateDocument)
		r.Get("/documents/{documentID}", s.handleGetDocument)

		r.Get("/documents/{documentID}/items", s.handleListItems)
		r.Post("/documents/{documentID}/items", s.handleCreateItem)
		r.Delete("/documents/{documentID}/items", s.handleClearItems)

		r.With(uploadLimit).Post("/documents/{documentID}/import", s.handleImport)
		r.Get("/documents/{documentID}/export", s.handleExport)

		r.Get("/items/{itemID}", s.handleGetItem)
		r.Put("/items/{itemID}", s.handleUpdateItem)

		r.Get("/items/{itemID}/photos", s.handleListPhotos)
		r.With(uploadLimit).Post("/items/{itemID}/photos/{kind}/{slot}", s.handleUploadPhoto)
	})
}

// Start begins listening for HTTP requests. Blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders hardens every response. The service serves JSON and
// file attachments only, so the policy can be strict.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:  "Too many requests",
				Action: "Please wait a moment before trying again",
				Code:   "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
