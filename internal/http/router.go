package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patio-backend/internal/handlers"
	"patio-backend/internal/health"
	"patio-backend/internal/middleware"
	"patio-backend/internal/ws"
)

// NewRouter wires every route of the FilaX backend. Specific paths are
// registered before the /{id} catch-alls so "arquivados" or "historico"
// never get treated as card ids.
func NewRouter(
	authHandler *handlers.AuthHandler,
	queueHandler *handlers.QueueHandler,
	stageHandler *handlers.StageHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	orderHandler *handlers.OrderHandler,
	healthChecker *health.Checker,
	hub *ws.Hub,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes - Authentication
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health probes and Prometheus metrics
	r.HandleFunc("/health", healthChecker.Liveness).Methods("GET")
	r.HandleFunc("/health/ready", healthChecker.Readiness).Methods("GET")
	r.HandleFunc("/health/detailed", healthChecker.Detailed).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// FilaX board
	filaAPI := r.PathPrefix("/api/fila-x").Subrouter()
	filaAPI.Use(authMiddleware.Authenticate)
	filaAPI.HandleFunc("", queueHandler.List).Methods("GET")
	filaAPI.HandleFunc("", queueHandler.Create).Methods("POST")
	filaAPI.HandleFunc("/arquivados", queueHandler.ListArchived).Methods("GET")
	filaAPI.HandleFunc("/historico", queueHandler.CompanyHistory).Methods("GET")
	filaAPI.HandleFunc("/analytics/usuarios", analyticsHandler.Users).Methods("GET")
	filaAPI.HandleFunc("/arquivar-estagio/{estagio}", queueHandler.ArchiveStage).Methods("PUT")
	filaAPI.HandleFunc("/{id}", queueHandler.Get).Methods("GET")
	filaAPI.HandleFunc("/{id}/mover", queueHandler.Move).Methods("PUT")
	filaAPI.HandleFunc("/{id}/editar", queueHandler.Edit).Methods("PATCH")
	filaAPI.HandleFunc("/{id}/arquivar", queueHandler.Archive).Methods("PUT")
	filaAPI.HandleFunc("/{id}/vincular-ordem", queueHandler.LinkOrder).Methods("POST")
	filaAPI.HandleFunc("/{id}/desvincular-ordem/{ordem_id}", queueHandler.UnlinkOrder).Methods("DELETE")
	filaAPI.HandleFunc("/{id}/historico", queueHandler.History).Methods("GET")
	filaAPI.HandleFunc("/{id}/sla", queueHandler.SLAReport).Methods("GET")

	// Stage catalogue. Reading is open to every operator; changing the
	// catalogue is an admin action.
	stageAPI := r.PathPrefix("/api/estagios").Subrouter()
	stageAPI.Use(authMiddleware.Authenticate)
	stageAPI.HandleFunc("", stageHandler.List).Methods("GET")

	stageAdmin := r.PathPrefix("/api/estagios").Subrouter()
	stageAdmin.Use(authMiddleware.Authenticate, authMiddleware.RequireRole("admin"))
	stageAdmin.HandleFunc("", stageHandler.Create).Methods("POST")
	stageAdmin.HandleFunc("/{key}", stageHandler.Update).Methods("PUT")

	// Order provider (read only)
	orderAPI := r.PathPrefix("/api/ordens").Subrouter()
	orderAPI.Use(authMiddleware.Authenticate)
	orderAPI.HandleFunc("/search", orderHandler.Search).Methods("GET")

	// Websocket board updates
	wsRoute := r.PathPrefix("/ws/fila").Subrouter()
	wsRoute.Use(authMiddleware.Authenticate)
	wsRoute.HandleFunc("", hub.Handle)

	return r
}
