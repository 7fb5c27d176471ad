package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/middleware"

	"gorm.io/gorm"
)

// Values accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema steps run at startup for a configuration.
type SchemaPlan struct {
	Mode        string
	Migrations  bool
	AutoMigrate bool
}

// PlanSchema resolves DB_SCHEMA_MODE against the environment. AutoMigrate never runs in
// production or staging; asking for "auto" there is an error.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}

	var guarded bool
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "production", "prod", "staging", "stage":
		guarded = true
	}

	plan := SchemaPlan{Mode: mode}
	switch mode {
	case SchemaModeSQL:
		plan.Migrations = true
	case SchemaModeAuto:
		if guarded {
			return SchemaPlan{}, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q", cfg.Env)
		}
		plan.AutoMigrate = true
	case SchemaModeHybrid:
		plan.Migrations = true
		plan.AutoMigrate = !guarded
	default:
		return SchemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// ApplySchema runs the steps chosen by PlanSchema: embedded SQL migrations first, then
// AutoMigrate over PersistentModels.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.Migrations {
		migrator, err := NewEmbeddedMigrator(db)
		if err != nil {
			return err
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		middleware.Logger.InfoContext(ctx, "sql migrations done", slog.Int("applied", len(applied)))
	}

	if plan.AutoMigrate {
		middleware.Logger.InfoContext(ctx, "running gorm automigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus is the read-only report printed by the migrate command.
type SchemaStatus struct {
	Plan    SchemaPlan
	Env     string
	Applied []int
	Pending []Migration
}

// GetSchemaStatus reports the plan and, when SQL migrations are part of it, which
// versions are applied and pending. Nothing is changed apart from creating the
// bookkeeping table.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{Plan: plan, Env: cfg.Env}
	if !plan.Migrations {
		return status, nil
	}

	migrator, err := NewEmbeddedMigrator(db)
	if err != nil {
		return nil, err
	}
	if status.Applied, err = migrator.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = migrator.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
