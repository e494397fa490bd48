package database

import (
	"fmt"

	"github.com/mashcatg/visa-cracked/internal/config"
	logging "github.com/mashcatg/visa-cracked/internal/logging"
	"github.com/mashcatg/visa-cracked/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create custom indexes, so we handle that separately.
	err := DB.AutoMigrate(
		&models.Country{},
		&models.VisaType{},
		&models.InterviewSession{},
		&models.InterviewReport{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	// The report poller reads a user's latest sessions repeatedly; keep that
	// query on an index.
	sessionIndex := `CREATE INDEX IF NOT EXISTS idx_sessions_user_recent ON interview_sessions (user_id, created_at DESC);`
	if err := DB.Exec(sessionIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on interview_sessions", zap.Error(err))
	}
	log.Info("Custom indexes ensured successfully.")
}
