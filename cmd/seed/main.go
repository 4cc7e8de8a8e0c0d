package main

import (
	"context"
	"log"
	"os"

	"arbor/internal/config"
	"arbor/internal/db"
	"arbor/internal/i18n"
	"arbor/internal/migrate"
	"arbor/internal/migrations"
	"arbor/internal/pagetype"
	"arbor/internal/pagetypes"
	pagerepo "arbor/internal/repository/page"
	siterepo "arbor/internal/repository/site"
	translationrepo "arbor/internal/repository/translation"
	userrepo "arbor/internal/repository/user"
	"arbor/internal/seed"
	pagesvc "arbor/internal/service/page"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	// The demo fixture assumes the demo schema.
	if err := migrate.Apply(ctx, pool, migrations.FS(), migrations.Dir); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	langs, err := i18n.New(cfg.Languages, cfg.DefaultLanguage, cfg.LangPrefixDefault)
	if err != nil {
		logger.Fatalf("language configuration: %v", err)
	}

	registry := pagetype.NewRegistry()
	pageRepo := pagerepo.NewPostgres(pool, registry, logger)
	translationRepo := translationrepo.NewPostgres(pool)
	pageService := pagesvc.New(pageRepo, translationRepo, registry, langs.Default())
	registry.MustRegister(pagetypes.Page())
	registry.MustRegister(pagetypes.Category(pageService))
	registry.MustRegister(pagetypes.Post(pageService))

	siteRepo := siterepo.NewPostgres(pool)
	userRepo := userrepo.NewPostgres(pool)

	if err := seed.Apply(ctx, siteRepo, userRepo, pageService, cfg.AdminPassword); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
