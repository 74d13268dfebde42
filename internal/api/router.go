package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Aryan9626/chess-app/internal/api/handler"
	apimiddleware "github.com/Aryan9626/chess-app/internal/api/middleware"
	"github.com/Aryan9626/chess-app/internal/gateway"
	"github.com/Aryan9626/chess-app/internal/middleware"
	"github.com/Aryan9626/chess-app/internal/services/auth"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Gateway     *gateway.Gateway
}

// NewRouter creates the router: identity endpoints, the websocket upgrade
// route, and a health check.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)

	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Identity routes (no auth required for creating identities/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected identity routes
	protected := api.PathPrefix("/players").Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// WebSocket upgrade. The gateway authenticates optionally from the
	// token query parameter; logging middleware would hijack the upgrade,
	// so the route sits outside the api subrouter.
	r.HandleFunc("/ws", cfg.Gateway.ServeWS)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
