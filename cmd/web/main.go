package main

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"arbor/internal/auth"
	"arbor/internal/config"
	"arbor/internal/db"
	"arbor/internal/httpserver"
	"arbor/internal/i18n"
	"arbor/internal/pagetype"
	"arbor/internal/pagetypes"
	"arbor/internal/render"
	pagerepo "arbor/internal/repository/page"
	siterepo "arbor/internal/repository/site"
	translationrepo "arbor/internal/repository/translation"
	userrepo "arbor/internal/repository/user"
	pagesvc "arbor/internal/service/page"
	"arbor/templates"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[web] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	langs, err := i18n.New(cfg.Languages, cfg.DefaultLanguage, cfg.LangPrefixDefault)
	if err != nil {
		logger.Fatalf("language configuration: %v", err)
	}

	registry := pagetype.NewRegistry()
	pageRepo := pagerepo.NewPostgres(dbpool, registry, logger)
	translationRepo := translationrepo.NewPostgres(dbpool)
	pageService := pagesvc.New(pageRepo, translationRepo, registry, langs.Default())

	// The category and post contexts read back through the page service, so
	// the service exists before the types register against the registry.
	registry.MustRegister(pagetypes.Page())
	registry.MustRegister(pagetypes.Category(pageService))
	registry.MustRegister(pagetypes.Post(pageService))

	siteRepo := siterepo.NewPostgres(dbpool)
	userRepo := userrepo.NewPostgres(dbpool)

	authService, err := auth.New(userRepo, cfg.SessionKey, logger)
	if err != nil {
		logger.Fatalf("init auth: %v", err)
	}

	var templateFS fs.FS = templates.FS()
	if cfg.TemplatesDir != "" {
		templateFS = os.DirFS(cfg.TemplatesDir)
	}
	markdown := render.NewMarkdown()
	tmpl, err := render.LoadTemplates(templateFS, template.FuncMap{"markdown": markdown.HTML})
	if err != nil {
		logger.Fatalf("load templates: %v", err)
	}
	for _, name := range registry.Names() {
		t, _ := registry.Get(name)
		if !tmpl.Has(t.Template) {
			logger.Fatalf("page type %q: template %q not found", name, t.Template)
		}
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sites:       siteRepo,
		Pages:       pageService,
		Types:       registry,
		Auth:        authService,
		Templates:   tmpl,
		Langs:       langs,
		DefaultSite: cfg.DefaultSite,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
