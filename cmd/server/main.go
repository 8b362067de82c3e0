package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"patio-backend/internal/auth"
	"patio-backend/internal/cache"
	"patio-backend/internal/config"
	"patio-backend/internal/database"
	"patio-backend/internal/db"
	"patio-backend/internal/handlers"
	"patio-backend/internal/health"
	h "patio-backend/internal/http"
	"patio-backend/internal/middleware"
	"patio-backend/internal/repositories"
	"patio-backend/internal/services"
	"patio-backend/internal/ws"
	"patio-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional - graceful fallback if unavailable
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (board reads hit the database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations (embedded, standalone binary operation)
	log.Println("Running database migrations...")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	queueRepo := repositories.NewQueueRepository(pool)
	eventRepo := repositories.NewEventRepository(pool)
	stageRepo := repositories.NewStageRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)

	// Services
	registry := services.NewStageRegistry(stageRepo)
	queueService := services.NewQueueService(queueRepo, eventRepo, registry, orderRepo)
	slaService := services.NewSLAService(queueRepo, eventRepo, registry)
	analyticsService := services.NewAnalyticsService(queueRepo, eventRepo, registry)
	userService := services.NewUserService(userRepo, jwtManager)

	// Websocket hub for live board updates
	hub := ws.NewHub()
	go hub.Run()
	queueService.SetNotifier(hub)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	queueHandler := handlers.NewQueueHandler(queueService, slaService, cfg)
	stageHandler := handlers.NewStageHandler(registry)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, cfg)
	orderHandler := handlers.NewOrderHandler(orderRepo)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := h.NewRouter(
		authHandler,
		queueHandler,
		stageHandler,
		analyticsHandler,
		orderHandler,
		healthChecker,
		hub,
		authMiddleware,
	)

	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			middleware.NewCORS(cfg)(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("FilaX backend running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
