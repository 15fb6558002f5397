// Command reconcile runs one payment reconciliation pass outside the scheduler
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/elearning-api/config"
	"github.com/sahilchouksey/elearning-api/database"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/services/email"
	"github.com/sahilchouksey/elearning-api/services/gateway"
	"github.com/sahilchouksey/elearning-api/utils/logger"
)

func main() {
	minAge := flag.Duration("min-age", 5*time.Minute, "skip payments created more recently than this")
	limit := flag.Int("limit", 500, "maximum payments to check")
	flag.Parse()

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

	client := gateway.NewClient(gateway.Config{
		BaseURL:   env.PAYMENT_GATEWAY_URL,
		SecretKey: env.PAYMENT_GATEWAY_SECRET_KEY,
		Timeout:   env.PAYMENT_GATEWAY_TIMEOUT,
	}, appLog)

	enrollments := services.NewEnrollmentService(store.DB(), client, email.NewConsoleMailer(appLog), appLog, services.EnrollmentConfig{
		Currency:       env.PAYMENT_CURRENCY,
		PublicBaseURL:  env.PUBLIC_BASE_URL,
		GatewayTimeout: env.PAYMENT_GATEWAY_TIMEOUT,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := enrollments.ReconcilePending(ctx, *minAge, *limit)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	fmt.Printf("Checked %d pending payments, confirmed %d, %d lookups failed\n",
		summary.Checked, summary.Confirmed, summary.Failed)
}
