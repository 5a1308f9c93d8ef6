package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm/logger"

	"koalbot_console/internal/config"
	"koalbot_console/internal/services"
	"koalbot_console/internal/tasks"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	maxAttempt := flag.Int("max_attempt", 1, "Max attempts (optional, default: 1)")
	envFile := flag.String("env-file", ".env", "Path to the .env file")

	flag.Parse()

	if *taskName == "" {
		fmt.Println("Usage: run_task -task_name <name> [-arguments <json_args>] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		log.Fatalf("Invalid JSON arguments: %v", err)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := services.InitDB(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		log.Fatalf("Failed to connect DB: %v", err)
	}

	tasks.DefineTasks(services.NewAuditLog(db), cfg.AuditRetention)

	result, err := tasks.GlobalRegistry.Execute(context.Background(), tasks.Job{
		TaskName:   *taskName,
		Arguments:  args,
		MaxAttempt: *maxAttempt,
	})
	if err != nil {
		log.Fatalf("Task failed: %v", err)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("Task %s finished:\n%s\n", *taskName, out)
}
