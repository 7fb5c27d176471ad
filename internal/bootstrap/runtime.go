// Package bootstrap wires the process-wide runtime shared by the server and the CLI tools.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and, in development, ensures the bootstrap admin exists.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, rdb, nil
}

// EnsureDevAdmin creates or promotes the configured admin account. It only acts in the
// development environment with DEV_BOOTSTRAP_ADMIN enabled.
func EnsureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := validation.NormalizeUsername(cfg.DevAdminUsername)
	if username == "" {
		username = "vidtube_admin"
	}
	email := validation.NormalizeEmail(cfg.DevAdminEmail)
	if email == "" {
		email = "admin@vidtube.local"
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		err := tx.Where("username = ?", username).First(&admin).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, hashErr := bcrypt.GenerateFromPassword([]byte(cfg.DevAdminPassword), bcrypt.DefaultCost)
			if hashErr != nil {
				return fmt.Errorf("hash admin password: %w", hashErr)
			}
			admin = models.User{
				Username: username,
				Email:    email,
				Fullname: "Vidtube Admin",
				Password: string(hash),
				IsAdmin:  true,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
			middleware.Logger.Info("development admin created", slog.String("username", username))
		case err != nil:
			return err
		case !admin.IsAdmin:
			if err := tx.Model(&admin).Update("is_admin", true).Error; err != nil {
				return err
			}
			middleware.Logger.Info("development admin promoted", slog.String("username", username))
		}
		return nil
	})
}
