// Package database opens the PostgreSQL connection and keeps its schema current.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/middleware"
	"vidtube/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger routes GORM output through the application's slog logger and records the
// latency of every statement it sees.
type gormLogger struct {
	logger *slog.Logger
	cfg    logger.Config
}

// NewGormLogger returns the logger used for every connection: warnings and slow queries
// (over 200ms) are logged, record-not-found is not an error.
func NewGormLogger() logger.Interface {
	return &gormLogger{
		logger: middleware.Logger,
		cfg: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.cfg.LogLevel = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.cfg.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.cfg.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.cfg.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	op, table := sqlShape(sql)
	observability.ObserveQuery(op, table, begin)

	if l.cfg.LogLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && l.cfg.LogLevel >= logger.Error &&
		!(l.cfg.IgnoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound)):
		l.logger.ErrorContext(ctx, "query failed", append(attrs, slog.String("error", err.Error()))...)
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.cfg.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "slow query", attrs...)
	case l.cfg.LogLevel >= logger.Info:
		l.logger.DebugContext(ctx, "query", attrs...)
	}
}

// sqlShape extracts the statement verb and the first table it touches, for metric labels.
func sqlShape(sql string) (op, table string) {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown", "unknown"
	}
	op = strings.ToLower(fields[0])
	table = "unknown"

	marker := map[string]string{"select": "from", "delete": "from", "insert": "into", "update": "update"}[op]
	if marker == "" {
		return op, table
	}
	for i, f := range fields {
		if strings.EqualFold(f, marker) && i+1 < len(fields) {
			table = strings.Trim(fields[i+1], "\"`();")
			break
		}
	}
	return op, table
}

// ConnectOptions controls optional work done while connecting.
type ConnectOptions struct {
	// ApplySchema runs migrations and/or AutoMigrate according to DB_SCHEMA_MODE.
	ApplySchema bool
}

// DSN builds the PostgreSQL connection string from cfg.
func DSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)
}

// Connect opens a database connection and applies the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
}

// ConnectWithOptions opens a database connection using the provided configuration and returns the gorm DB instance.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	dbInstance, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: NewGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(dbInstance, cfg); err != nil {
		return nil, err
	}

	middleware.Logger.Info("database connected", slog.String("host", cfg.DBHost), slog.String("name", cfg.DBName))

	if opts.ApplySchema {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := ApplySchema(ctx, dbInstance, cfg); err != nil {
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		middleware.Logger.Info("database schema ready")
	}

	return dbInstance, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}
