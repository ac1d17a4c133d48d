package rest

import (
	"net/http"

	"formpilot/internal/service"
	"formpilot/internal/transport/rest/handler"
	"formpilot/internal/transport/rest/middleware"
	"formpilot/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService *service.AuthService
	UserService *service.UserService
	FormService *service.FormService
	RunService  *service.RunService
	NameService *service.NameService
	WSHub       *ws.Hub
	Logger      *zap.Logger

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.UserService, c.NameService, c.Logger)
	formHandler := handler.NewFormHandler(c.FormService)
	runHandler := handler.NewRunHandler(c.RunService)
	userHandler := handler.NewUserHandler(c.UserService, c.NameService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.RunService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/runs/{runId}", wsHandler.RunWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/me", authHandler.Me).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/forms/analyze", formHandler.Analyze).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/forms/selection", formHandler.GetSelection).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/forms/selection", formHandler.UpdateSelection).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/forms/selection/questions/{questionId}/balance", formHandler.Balance).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/runs", runHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/runs/{runId}", runHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/runs/{runId}/cancel", runHandler.Cancel).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/names/reseed", userHandler.Reseed).Methods("POST", "OPTIONS")

	// Admin routes (require admin role)
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireUser, authMW.RequireAdmin)

	adminRoutes.HandleFunc("/users", userHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/users", userHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/users/{userId}", userHandler.Update).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/usage", userHandler.Usage).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
