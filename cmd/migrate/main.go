// Command migrate applies, reverts and inspects the vidtube database schema.
//
//	migrate up             apply pending SQL migrations
//	migrate down <version> revert one migration
//	migrate auto           run GORM AutoMigrate (refused in production)
//	migrate status         print the schema plan and pending migrations
//	migrate constraints    list table constraints (PostgreSQL)
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/database"

	"gorm.io/gorm"
)

type command struct {
	args int
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up":          {run: up},
	"down":        {args: 1, run: down},
	"auto":        {run: auto},
	"status":      {run: status},
	"constraints": {run: constraints},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("usage: migrate <%s> [version]", strings.Join(names, "|"))
}

func run(args []string) error {
	if len(args) == 0 {
		return usage()
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok || len(args)-1 < cmd.args {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	return cmd.run(context.Background(), db, cfg, args[1:])
}

func up(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	migrator, err := database.NewEmbeddedMigrator(db)
	if err != nil {
		return err
	}
	applied, err := migrator.Up(ctx)
	for _, m := range applied {
		log.Printf("applied %s", m)
	}
	if err != nil {
		return err
	}
	log.Printf("%d migration(s) applied", len(applied))
	return nil
}

func down(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	migrator, err := database.NewEmbeddedMigrator(db)
	if err != nil {
		return err
	}
	if err := migrator.Down(ctx, version); err != nil {
		return err
	}
	log.Printf("reverted %06d", version)
	return nil
}

func auto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return err
	}
	log.Println("automigrate done")
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	log.Printf("env=%s mode=%s sql=%t automigrate=%t applied=%v",
		st.Env, st.Plan.Mode, st.Plan.Migrations, st.Plan.AutoMigrate, st.Applied)
	for _, m := range st.Pending {
		log.Printf("pending %s", m)
	}
	return nil
}

// constraints prints the foreign keys, unique and check constraints of the public schema.
func constraints(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	var rows []struct {
		Table      string
		Name       string
		Definition string
	}
	err := db.WithContext(ctx).Raw(`
SELECT r.relname AS "table", c.conname AS name, pg_get_constraintdef(c.oid) AS definition
FROM pg_constraint c
JOIN pg_class r ON c.conrelid = r.oid
JOIN pg_namespace n ON n.oid = r.relnamespace
WHERE n.nspname = 'public'
ORDER BY r.relname, c.conname`).Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("list constraints: %w", err)
	}
	for _, r := range rows {
		log.Printf("%-24s %-40s %s", r.Table, r.Name, r.Definition)
	}
	return nil
}
