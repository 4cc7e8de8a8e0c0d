package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"arbor/internal/config"
	"arbor/internal/db"
	"arbor/internal/domain"
	"arbor/internal/i18n"
	"arbor/internal/importer"
	"arbor/internal/pagetype"
	"arbor/internal/pagetypes"
	pagerepo "arbor/internal/repository/page"
	siterepo "arbor/internal/repository/site"
	translationrepo "arbor/internal/repository/translation"
	pagesvc "arbor/internal/service/page"
)

func main() {
	var (
		contentDir string
		siteKey    string
		siteHost   string
	)
	flag.StringVar(&contentDir, "dir", "", "Path to the markdown content tree (default: CONTENT_DIR)")
	flag.StringVar(&siteKey, "site", "", "Site key to import into")
	flag.StringVar(&siteHost, "host", "", "Host to register when the site does not exist yet")
	flag.Parse()

	cfg := config.FromEnv()
	if contentDir == "" {
		contentDir = cfg.ContentDir
	}
	if contentDir == "" || siteKey == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[import] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	siteRepo := siterepo.NewPostgres(pool)
	site, err := siteRepo.GetByKey(ctx, siteKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Fatalf("load site %q: %v", siteKey, err)
		}
		if siteHost == "" {
			logger.Fatalf("site %q does not exist; pass -host to create it", siteKey)
		}
		site, err = siteRepo.Upsert(ctx, domain.Site{Key: siteKey, Name: siteKey, Host: siteHost})
		if err != nil {
			logger.Fatalf("create site %q: %v", siteKey, err)
		}
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

	imp := importer.NewTreeImporter(os.DirFS(contentDir), pageService, site.ID)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d pages into site %s in %s\n", count, siteKey, time.Since(start).Truncate(time.Millisecond))
}
