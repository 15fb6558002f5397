// Command migrate runs AutoMigrate against the configured database and exits
package main

import (
	"log"

	"github.com/sahilchouksey/elearning-api/config"
	"github.com/sahilchouksey/elearning-api/database"
	"github.com/sahilchouksey/elearning-api/utils/logger"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Fatal("Failed to load environment variables:", err)
	}
	env, err := config.Get()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	appLog, err := logger.New(env.GO_ENV)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer appLog.Sync()

	store, err := database.StartGORM(env, appLog)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	appLog.Info("migrations completed", "tables", len(database.Models()))
}
