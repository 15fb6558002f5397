package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/sahilchouksey/elearning-api/api"
	"github.com/sahilchouksey/elearning-api/config"
	"github.com/sahilchouksey/elearning-api/database"
	"github.com/sahilchouksey/elearning-api/router"
	"github.com/sahilchouksey/elearning-api/services"
	"github.com/sahilchouksey/elearning-api/services/cron"
	"github.com/sahilchouksey/elearning-api/services/email"
	"github.com/sahilchouksey/elearning-api/services/gateway"
	"github.com/sahilchouksey/elearning-api/services/storage"
	"github.com/sahilchouksey/elearning-api/utils/auth"
	"github.com/sahilchouksey/elearning-api/utils/cache"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"github.com/sahilchouksey/elearning-api/utils/middleware"
)

// Version is stamped at build time with -ldflags
var Version = "dev"

func SetupAndRunServer(ctx context.Context) error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}
	if env.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	baseLog, err := logger.New(env.GO_ENV)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	reporter := logger.NewRollbarReporter(env.ROLLBAR_TOKEN, env.GO_ENV, Version)
	log := baseLog.WithReporter(reporter)
	defer func() {
		reporter.Close()
		log.Sync()
	}()

	// Initialize GORM database connection
	store, err := database.StartGORM(env, log)
	if err != nil {
		log.Error("check whether Postgres is running (make docker-up or make db-up)", "error", err)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Error("failed to initialize database tables", "error", err)
		return err
	}
	db := store.DB()

	if env.SEED_ON_START {
		if err := database.NewSeeder(db, log).SeedAll(); err != nil {
			return err
		}
	}

	// Redis is optional: without it brute force protection and report caching are off
	var redisStore *cache.Store
	var bruteForce *middleware.BruteForceProtection
	if env.REDIS_URL != "" {
		redisStore, err = cache.Connect(ctx, env.REDIS_URL)
		if err != nil {
			log.Warn("failed to connect to redis, brute force protection disabled", "error", err)
			redisStore = nil
		} else {
			defer redisStore.Close()
			bruteForce = middleware.NewBruteForceProtection(redisStore, log)
		}
	}

	var blobs storage.BlobStore
	s3Store, err := storage.NewS3Store(storage.S3Config{
		AccessKey: env.SPACES_ACCESS_KEY,
		SecretKey: env.SPACES_SECRET_KEY,
		Bucket:    env.SPACES_BUCKET,
		Region:    env.SPACES_REGION,
		Endpoint:  env.SPACES_ENDPOINT,
	})
	switch {
	case err == nil:
		blobs = s3Store
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn("object storage not configured, video uploads disabled")
	default:
		return err
	}

	mailer := newMailer(env, log)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:   env.PAYMENT_GATEWAY_URL,
		SecretKey: env.PAYMENT_GATEWAY_SECRET_KEY,
		Timeout:   env.PAYMENT_GATEWAY_TIMEOUT,
	}, log)

	policy, err := auth.NewPolicy()
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        env.JWT_ISSUER,
	})
	blacklist := auth.NewBlacklistService(db)

	enrollments := services.NewEnrollmentService(db, gatewayClient, mailer, log, services.EnrollmentConfig{
		Currency:       env.PAYMENT_CURRENCY,
		PublicBaseURL:  env.PUBLIC_BASE_URL,
		GatewayTimeout: env.PAYMENT_GATEWAY_TIMEOUT,
	})

	// Initialize Cron Manager (only if enabled via environment variable)
	if env.CRON_ENABLED {
		cronManager := cron.NewCronManager(db, enrollments, blacklist, log)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", "error", err)
		} else {
			defer cronManager.Stop()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), log)

	router.SetupRoutes(server.GetEngine(), router.Dependencies{
		DB:                db,
		Health:            store,
		JWT:               jwtManager,
		Policy:            policy,
		Blacklist:         blacklist,
		BruteForce:        bruteForce,
		Accounts:          services.NewAccountService(db, log),
		Catalog:           services.NewCatalogService(db, blobs, log),
		Enrollments:       enrollments,
		Progress:          services.NewProgressService(db, blobs, log),
		Ratings:           services.NewRatingService(db),
		Reports:           services.NewReportService(db, redisStore, log),
		Log:               log,
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,
	})

	return server.Run(ctx)
}

// newMailer uses SendGrid when a key is configured and logs mail to the console otherwise
func newMailer(env *config.EnviornmentVariable, log *logger.Logger) email.Mailer {
	if env.SENDGRID_API_KEY == "" {
		return email.NewConsoleMailer(log)
	}
	from := mail.Address{Name: env.APP_NAME, Address: env.EMAIL_FROM}
	return email.NewSendgridMailer(env.SENDGRID_API_KEY, from, env.APP_NAME, log)
}
