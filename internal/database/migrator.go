package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"vidtube/internal/middleware"

	"gorm.io/gorm"
)

// appliedMigration is the bookkeeping row written for every applied migration.
type appliedMigration struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string {
	return "schema_migrations"
}

// Migrator applies and reverts versioned SQL migrations.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over the given migrations, which must be sorted by version.
func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

// NewEmbeddedMigrator returns a Migrator over the migrations compiled into the binary.
func NewEmbeddedMigrator(db *gorm.DB) (*Migrator, error) {
	migrations, err := EmbeddedMigrations()
	if err != nil {
		return nil, err
	}
	return NewMigrator(db, migrations), nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Applied returns the versions recorded as applied, ascending.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var versions []int
	if err := m.db.WithContext(ctx).Model(&appliedMigration{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

// Pending returns the migrations not yet applied. The database must not record versions
// that this binary does not know about.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkUnknownVersions(applied, m.migrations); err != nil {
		return nil, err
	}

	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration in version order and returns what it applied.
// Each script runs in its own transaction together with its bookkeeping row.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for i, mig := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&appliedMigration{Version: mig.Version, Name: mig.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return pending[:i], fmt.Errorf("apply %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "migration applied", slog.String("migration", mig.String()))
	}
	return pending, nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %06d is not known", version)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !containsVersion(applied, version) {
		return fmt.Errorf("migration %s has not been applied", target)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.Down).Error; err != nil {
			return err
		}
		return tx.Delete(&appliedMigration{}, "version = ?", version).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", target, err)
	}
	middleware.Logger.InfoContext(ctx, "migration reverted", slog.String("migration", target.String()))
	return nil
}

func containsVersion(versions []int, v int) bool {
	for _, x := range versions {
		if x == v {
			return true
		}
	}
	return false
}

func checkUnknownVersions(applied []int, known []Migration) error {
	registered := make(map[int]struct{}, len(known))
	for _, mig := range known {
		registered[mig.Version] = struct{}{}
	}

	var unknown []string
	for _, v := range applied {
		if _, ok := registered[v]; !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("database records migrations this build does not know: %s", strings.Join(unknown, ", "))
}
