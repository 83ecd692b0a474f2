package sqlpass

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/config"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/passstore"
)

func init() {
	passstore.Register("postgres", func(ctx context.Context, cfg config.Config, logger *slog.Logger) (passstore.Store, error) {
		db, err := OpenPostgres(ctx, logger, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return New(db), nil
	})
	passstore.Register("sqlite", func(_ context.Context, cfg config.Config, logger *slog.Logger) (passstore.Store, error) {
		db, err := OpenSQLite(logger, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return New(db), nil
	})
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// OpenPostgres connects with exponential backoff and migrates the schema.
func OpenPostgres(ctx context.Context, logger *slog.Logger, cfg config.PostgresCfg) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
	dblog := logger.With("component", "database", "host", cfg.Host, "database", cfg.Database)

	var db *gorm.DB
	var err error
	const maxRetries = 5
	retryDelay := 2 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig())
		if err == nil {
			break
		}
		dblog.Warn("database connection failed", "attempt", attempt, "err", err)

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}
	}
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}
	dblog.Info("database connection established")
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database at path. ":memory:" is
// accepted and pinned to a single connection.
func OpenSQLite(logger *slog.Logger, path string) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		return nil, err
	}
	logger.Info("sqlite store ready", "path", path)
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&TrackedObject{}, &CachedPass{}); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	return nil
}
