package database

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/elearning-api/config"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage is the lifecycle surface the app needs from the database
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	DB() *gorm.DB
}

// Models lists every table managed by AutoMigrate, in dependency order
func Models() []interface{} {
	return []interface{}{
		// Identity & directory
		&model.Country{},
		&model.State{},
		&model.District{},
		&model.User{},
		&model.JWTTokenBlacklist{},

		// Catalog
		&model.CourseCategory{},
		&model.Course{},
		&model.Video{},

		// Enrollment ledger
		&model.Enrollment{},
		&model.VideoProgress{},

		// Feedback
		&model.Rating{},

		// Payments
		&model.Payment{},

		// Scheduled jobs
		&model.CronJobLog{},
	}
}

type GORMStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB, log *logger.Logger) *GORMStore {
	return &GORMStore{db: db, log: log}
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(env *config.EnviornmentVariable, log *logger.Logger) (*GORMStore, error) {
	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		env.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := gormlogger.Default.LogMode(gormlogger.Info)
	if env.IsProduction() {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to postgres", "host", env.DB_HOST, "database", env.DB_NAME)

	return NewGORMStore(db, log), nil
}

// Init runs AutoMigrate, which also creates the unique constraints the
// enrollment, progress and rating upserts depend on
func (s *GORMStore) Init() error {
	s.log.Info("running AutoMigrate")

	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	s.log.Info("AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing postgres connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM handle for services and handlers
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
