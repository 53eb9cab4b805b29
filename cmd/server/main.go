package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ironmanager/membership-engine/internal/config"
	"github.com/ironmanager/membership-engine/internal/handler"
	"github.com/ironmanager/membership-engine/internal/repository"
	"github.com/ironmanager/membership-engine/internal/service"
	"github.com/ironmanager/membership-engine/pkg/response"
)

func main() {
	// Load .env into the environment before viper reads it (optional)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := repository.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis (optional cache)
	redisClient := initRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize repository and service
	ledgerRepo := repository.NewLedgerRepository(db)
	ledgerService := service.NewLedgerService(ledgerRepo, redisClient, cfg)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(ledgerHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initRedis(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(ledgerHandler *handler.LedgerHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.RequestIDMiddleware, response.LoggingMiddleware, response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/payments", ledgerHandler.RegisterPayment).Methods("POST")
	api.HandleFunc("/payments", ledgerHandler.ListPayments).Methods("GET")
	api.HandleFunc("/payments/{paymentId}", ledgerHandler.EditPayment).Methods("PUT")
	api.HandleFunc("/payments/{paymentId}", ledgerHandler.DeletePayment).Methods("DELETE")
	api.HandleFunc("/clients/status", ledgerHandler.ClientStatuses).Methods("GET")
	api.HandleFunc("/clients/names", ledgerHandler.ClientNames).Methods("GET")
	api.HandleFunc("/clients/{clientId}/status", ledgerHandler.ClientStatus).Methods("GET")
	api.HandleFunc("/reports/monthly-totals", ledgerHandler.MonthlyTotals).Methods("GET")
	api.HandleFunc("/reports/years", ledgerHandler.Years).Methods("GET")

	return router
}
