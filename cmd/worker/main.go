package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm/logger"

	"koalbot_console/internal/config"
	"koalbot_console/internal/services"
	"koalbot_console/internal/tasks"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to the .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize Database
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Task Registry
	tasks.DefineTasks(services.NewAuditLog(db), cfg.AuditRetention)

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	job := tasks.Job{
		TaskName:   tasks.PruneAuditTask.TaskID(),
		Rule:       cfg.AuditPruneSchedule,
		MaxAttempt: 3,
	}

	// Run once on start, then follow the schedule
	if result, err := tasks.GlobalRegistry.Execute(ctx, job); err != nil {
		log.Printf("Initial run failed: %v", err)
	} else {
		log.Printf("Initial run: %v", result)
	}

	log.Printf("Worker started with schedule %s", job.Rule)
	if err := tasks.GlobalRegistry.Run(ctx, job); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
	log.Println("Shutting down worker...")
}
