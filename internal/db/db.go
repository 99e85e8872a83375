package db

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/clinic-pos/internal/config"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// Open connects to postgres or to a sqlite file depending on DATABASE_URL.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.IsSQLite() {
		dialector = sqlite.Open(cfg.SQLitePath() + "?_busy_timeout=5000&_foreign_keys=on")
	} else {
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	level := gormlogger.Warn
	if cfg.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt: !cfg.IsSQLite(),
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// NewDB opens and migrates the store, exiting the process on failure.
func NewDB(cfg *config.Config, log *logrus.Logger) *gorm.DB {
	db, err := Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	if err := Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate")
	}

	return db
}
