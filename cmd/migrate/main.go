package main

import (
	"context"
	"io/fs"
	"log"
	"os"

	"arbor/internal/config"
	"arbor/internal/db"
	"arbor/internal/migrate"
	"arbor/internal/migrations"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	// MIGRATIONS_DIR selects a deployment's own schema; without it the
	// embedded demo schema applies.
	source, dir := fs.FS(migrations.FS()), migrations.Dir
	if cfg.MigrationsDir != "" {
		source, dir = os.DirFS(cfg.MigrationsDir), "."
	}

	if err := migrate.Apply(ctx, pool, source, dir); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Println("migrations applied")
}
