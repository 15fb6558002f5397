package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/sahilchouksey/elearning-api/config"
	"github.com/sahilchouksey/elearning-api/database"
	"github.com/sahilchouksey/elearning-api/utils/logger"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog, err := logger.New(env.GO_ENV)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	store, err := database.StartGORM(env, appLog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Printf("%s - Database Seeding\n", env.APP_NAME)
	fmt.Println(separator)

	if err := database.NewSeeder(store.DB(), appLog).SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed")
	fmt.Println("The manager account is created from MANAGER_EMAIL and MANAGER_PASSWORD when no manager exists.")
	fmt.Println(separator)
}
