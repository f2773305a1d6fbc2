// Package server assembles the HTTP router and runs it with graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/auth"
	"github.com/user/starter-go/config"
	_ "github.com/user/starter-go/docs" // registers the Swagger document
	"github.com/user/starter-go/items"
	"github.com/user/starter-go/logging"
	"github.com/user/starter-go/users"
)

// requestTimeout bounds every request through middleware.Timeout.
const requestTimeout = 60 * time.Second

// Pinger reports whether the backing store is reachable.
// *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs. Pinger may be nil when there is
// no database to check.
type Deps struct {
	Users  users.Repository
	Items  items.Repository
	Hasher auth.PasswordHasher
	Tokens *auth.TokenService
	Pinger Pinger
	Logger *zap.Logger
	Server config.ServerConfig
}

// NewRouter wires services, handlers and middleware into a chi router.
func NewRouter(d Deps) http.Handler {
	authHandlers := auth.NewHandlers(auth.NewAuthService(d.Users, d.Hasher, d.Tokens))
	userHandlers := users.NewUserHandlers(users.NewUserService(d.Users, d.Hasher), d.Tokens)
	itemHandlers := items.NewItemHandlers(items.NewItemService(d.Items))
	guard := auth.Guard(d.Tokens)

	r := chi.NewRouter()

	// RequestID runs first so the request logger can pick the id up.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(d.Logger))
	r.Use(recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// Credentialed CORS cannot use a wildcard origin, so origins are explicit.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth(d.Pinger))

		r.Post("/access-tokens", authHandlers.HandleLogin())
		r.Delete("/access-tokens", authHandlers.HandleLogout())
		r.With(guard).Get("/me", authHandlers.HandleMe())

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandlers.HandleBrowse())
			r.Get("/{id}", userHandlers.HandleRead())
			r.Post("/", userHandlers.HandleAdd())

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Put("/{id}", userHandlers.HandleEdit())
				r.Delete("/{id}", userHandlers.HandleDestroy())
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandlers.HandleBrowse())
			r.Get("/{id}", itemHandlers.HandleRead())

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Post("/", itemHandlers.HandleAdd())
				r.Put("/{id}", itemHandlers.HandleEdit())
				r.Delete("/{id}", itemHandlers.HandleDestroy())
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteError(w, r, apperror.NewNotFoundError("route not found", nil))
	})

	return r
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// handleHealth godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} server.HealthResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/health [get]
func handleHealth(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				apperror.WriteError(w, r, apperror.NewDatabaseError("database unreachable", err))
				return
			}
		}
		apperror.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// recoverer turns a panic into a logged 500 with the standard error body.
// middleware.Recoverer would answer in plain text.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			logging.FromContext(r.Context()).Error("Panic recovered",
				zap.Any("panic", rvr),
				zap.Stack("stack"),
			)
			apperror.WriteError(w, r, apperror.NewInternalError("internal server error", fmt.Errorf("panic: %v", rvr)))
		}()
		next.ServeHTTP(w, r)
	})
}

// Run serves handler on cfg.Port until ctx is cancelled, then shuts down,
// giving in-flight requests cfg.ShutdownTimeout to finish.
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Server shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
