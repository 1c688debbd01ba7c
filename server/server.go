// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/bookfinder/core"
)

// Searcher runs hybrid searches.
type Searcher interface {
	Search(ctx context.Context, query string, filters *core.FilterSpec) ([]core.RankedResult, error)
}

// Recommender finds items similar to a set of seeds.
type Recommender interface {
	Recommend(ctx context.Context, seeds []core.ID, limit int) ([]*core.Item, error)
}

// BookStore looks up single books. GetBook returns an error wrapping
// storage.ErrNotFound for unknown IDs.
type BookStore interface {
	GetBook(ctx context.Context, id core.ID) (*core.Item, error)
}

// HealthCheck reports whether the backing stores are usable.
type HealthCheck func(ctx context.Context) error

const (
	DefaultMaxBodyBytes    = 1 << 20
	DefaultRequestTimeout  = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Server is the HTTP boundary in front of the search engine.
type Server struct {
	searcher    Searcher
	recommender Recommender
	books       BookStore
	health      HealthCheck
	validate    *validator.Validate
	logger      *slog.Logger

	corsOrigins       []string
	rateLimitRequests int
	rateLimitWindow   time.Duration
	maxBodyBytes      int64
	requestTimeout    time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	shutdownTimeout   time.Duration

	router http.Handler
}

// Option is a functional option for configuring a Server.
type Option func(*Server) error

// WithLogger sets the logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithHealthCheck sets the check behind GET /healthz.
func WithHealthCheck(check HealthCheck) Option {
	return func(s *Server) error {
		s.health = check
		return nil
	}
}

// WithCORSOrigins sets the allowed CORS origins. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.corsOrigins = origins
		return nil
	}
}

// WithRateLimit limits each client IP to requests per window.
// Zero requests disables rate limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) error {
		if requests < 0 {
			return errors.New("rate limit requests cannot be negative")
		}
		if requests > 0 && window <= 0 {
			return errors.New("rate limit window must be positive")
		}
		s.rateLimitRequests = requests
		s.rateLimitWindow = window
		return nil
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) error {
		if n <= 0 {
			return errors.New("max body bytes must be positive")
		}
		s.maxBodyBytes = n
		return nil
	}
}

// WithTimeouts sets the listener read, write and shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(s *Server) error {
		if read <= 0 || write <= 0 || shutdown <= 0 {
			return errors.New("timeouts must be positive")
		}
		s.readTimeout = read
		s.writeTimeout = write
		s.shutdownTimeout = shutdown
		return nil
	}
}

// WithRequestTimeout bounds the time spent serving one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		s.requestTimeout = d
		return nil
	}
}

// New creates a Server. The router is built once; Handler returns it.
func New(searcher Searcher, recommender Recommender, books BookStore, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if recommender == nil {
		return nil, ErrRecommenderRequired
	}
	if books == nil {
		return nil, ErrBookStoreRequired
	}

	s := &Server{
		searcher:        searcher,
		recommender:     recommender,
		books:           books,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		logger:          slog.Default(),
		corsOrigins:     []string{"*"},
		maxBodyBytes:    DefaultMaxBodyBytes,
		requestTimeout:  DefaultRequestTimeout,
		readTimeout:     DefaultReadTimeout,
		writeTimeout:    DefaultWriteTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")
	jsonFieldNames(s.validate)
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Use(instrument)
		r.Use(chimiddleware.Timeout(s.requestTimeout))

		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearchPost)
		r.Post("/recommend", s.handleRecommend)
		r.Get("/book/{id}", s.handleGetBook)
	})

	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.rateLimitRequests == 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		s.rateLimitRequests,
		s.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, msgRateLimited)
		}),
	)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
