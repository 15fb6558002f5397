package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// A missing .env is fine in development, variables may come from the shell
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Payment gateway (hosted checkout)
	PAYMENT_GATEWAY_URL        string
	PAYMENT_GATEWAY_SECRET_KEY string
	PAYMENT_CURRENCY           string
	PAYMENT_GATEWAY_TIMEOUT    time.Duration
	PUBLIC_BASE_URL            string
	// Object storage for video files
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	// Email
	SENDGRID_API_KEY string
	EMAIL_FROM       string
	APP_NAME         string
	// Error reporting
	ROLLBAR_TOKEN string
	// Misc
	ALLOWED_ORIGINS string
	CRON_ENABLED    bool
	SEED_ON_START   bool
}

// IsProduction reports whether GO_ENV is production
func (e *EnviornmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	gatewayTimeout := 10 * time.Second
	if raw := os.Getenv("PAYMENT_GATEWAY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
		gatewayTimeout = d
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "elearning-api"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Payments
		PAYMENT_GATEWAY_URL:        getEnvOrDefault("PAYMENT_GATEWAY_URL", "https://api.stripe.com"),
		PAYMENT_GATEWAY_SECRET_KEY: os.Getenv("PAYMENT_GATEWAY_SECRET_KEY"),
		PAYMENT_CURRENCY:           strings.ToLower(getEnvOrDefault("PAYMENT_CURRENCY", "usd")),
		PAYMENT_GATEWAY_TIMEOUT:    gatewayTimeout,
		PUBLIC_BASE_URL:            strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		// Storage
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     getEnvOrDefault("SPACES_REGION", "us-east-1"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
		// Email
		SENDGRID_API_KEY: os.Getenv("SENDGRID_API_KEY"),
		EMAIL_FROM:       getEnvOrDefault("EMAIL_FROM", "noreply@elearning.local"),
		APP_NAME:         getEnvOrDefault("APP_NAME", "E-Learning"),
		// Error reporting
		ROLLBAR_TOKEN: os.Getenv("ROLLBAR_TOKEN"),
		// Misc
		ALLOWED_ORIGINS: getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		SEED_ON_START:   os.Getenv("SEED_ON_START") == "true",
	}

	return envVariables, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
