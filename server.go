package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/shortlink-go/apperror"
	"github.com/user/shortlink-go/auth"
	_ "github.com/user/shortlink-go/docs" // registers the Swagger document
	"github.com/user/shortlink-go/logging"
	"github.com/user/shortlink-go/metrics"
)

// Server timeouts. requestTimeout must stay below writeTimeout: once the server's
// write deadline passes the connection is cut, and middleware.Timeout never gets
// to answer with its 504.
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// routes collects what the router needs to serve.
type routes struct {
	auth           *auth.Handlers
	registry       *prometheus.Registry
	allowedOrigins []string
	logger         *slog.Logger
}

// newRouter builds the HTTP handler. Middleware is registered before any route,
// as chi requires.
func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()

	// Global middleware, outermost first. RequestID runs before the logger and
	// the recovery handler so both can tag their lines with the same id.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(rt.logger))
	r.Use(recoverJSON(rt.logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	// Everything the web client calls lives under /api; /metrics and /swagger
	// are operator endpoints and stay at the root.
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Post("/users", rt.auth.HandleRegister())
		r.Post("/auth", rt.auth.HandleLogin())
	})

	r.Handle("/metrics", metrics.Handler(rt.registry))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}

// handleHealth godoc
// @Summary Health check
// @Description Liveness probe.
// @Tags Health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// recoverJSON turns a handler panic into a 500 ErrorResponse, so a crash looks
// the same to the client as any other internal error.
func recoverJSON(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The deferred func runs after next.ServeHTTP returns or panics;
			// recover() only yields a value in the panic case.
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				// ErrAbortHandler is net/http's way of aborting a response on
				// purpose; re-panic so the server handles it as usual.
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rvr),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				writeError(w, apperror.NewInternalError(fmt.Errorf("panic: %v", rvr)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// writeError is a local copy of auth.WriteError for the recovery middleware,
// which must not depend on any handler package.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}

// newHTTPServer wraps handler in an http.Server with the service timeouts.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// runServer serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownTimeout.
func runServer(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	// ListenAndServe blocks, so it runs in its own goroutine and reports back on
	// errCh. The buffer lets it exit even if nobody is receiving any more.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Either the listener fails on its own (port taken, for example) or we are
	// asked to stop via SIGINT/SIGTERM, which cancels ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown stops accepting connections and waits for active requests. The
	// shutdown context is detached from ctx, which is already cancelled here.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	// ListenAndServe returns ErrServerClosed after a clean Shutdown.
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
