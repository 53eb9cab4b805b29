package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/ironmanager/membership-engine/internal/config"
	"github.com/ironmanager/membership-engine/internal/domain"
	"github.com/ironmanager/membership-engine/internal/repository"
	"github.com/ironmanager/membership-engine/internal/service"
)

func main() {
	log.Println("Starting ledger scheduler...")

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
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	ledgerRepo := repository.NewLedgerRepository(db)
	ledgerService := service.NewLedgerService(ledgerRepo, redisClient, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Schedule tasks
	setupCronJobs(c, cfg, ledgerService)

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, ledgerService *service.LedgerService) {
	// Daily job: log the severity breakdown and warm the totals cache
	_, err := c.AddFunc(cfg.Scheduler.SummarySchedule, func() {
		runSeveritySummary(ledgerService)
	})
	if err != nil {
		log.Printf("Error scheduling severity summary job: %v", err)
		return
	}

	log.Println("Cron jobs scheduled successfully")
}

func runSeveritySummary(ledgerService *service.LedgerService) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	current := domain.NewPeriod(int(now.Month()), now.Year())

	summary, err := ledgerService.SeveritySummary(ctx, current)
	if err != nil {
		log.Printf("Severity summary failed: %v", err)
		return
	}

	log.Printf("Client status for %s: current=%d overdue=%d delinquent=%d",
		current,
		summary[domain.SeverityCurrent],
		summary[domain.SeverityOverdue],
		summary[domain.SeverityDelinquent])

	// Warming the cache keeps the first dashboard read of the day fast.
	if _, err := ledgerService.MonthlyTotals(ctx, current.Year); err != nil {
		log.Printf("Totals cache warm failed: %v", err)
	}
}
