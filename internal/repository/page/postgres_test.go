package page_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/domain"
	"arbor/internal/migrate"
	"arbor/internal/migrations"
	"arbor/internal/pagetype"
	"arbor/internal/pagetypes"
	"arbor/internal/repository/page"
)

// Integration tests run against a live Postgres and skip without TEST_DB_DSN.

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool, migrations.FS(), migrations.Dir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE page_translations, page_posts, page_categories, page_contents, pages, users, sites RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

func testRegistry() *pagetype.Registry {
	reg := pagetype.NewRegistry()
	reg.MustRegister(pagetypes.Page())
	reg.MustRegister(pagetypes.Category(nil))
	reg.MustRegister(pagetypes.Post(nil))
	return reg
}

func insertSite(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key, host string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `INSERT INTO sites (key, name, host) VALUES ($1, $1, $2) RETURNING id::text`, key, host).Scan(&id)
	if err != nil {
		t.Fatalf("insert site: %v", err)
	}
	return id
}

func TestPostgres_CreateAndResolveChain(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := page.NewPostgres(pool, testRegistry(), log.New(io.Discard, "", 0))
	siteID := insertSite(ctx, t, pool, "site-a", "a.example.com")

	home, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypePage, Slug: "", Title: "Home", Active: true,
	}, &pagetypes.ContentFields{Body: "welcome"})
	if err != nil {
		t.Fatalf("create home: %v", err)
	}
	blog, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypeCategory, Slug: "blog", Title: "Blog", Active: true,
	}, &pagetypes.CategoryFields{Intro: "posts"})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	post, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, ParentID: blog.Page.ID, Type: pagetypes.TypePost, Slug: "first", Title: "First", Active: true,
	}, &pagetypes.PostFields{Body: "body", Excerpt: "x"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	got, err := repo.ActiveChildBySlug(ctx, siteID, "", "")
	if err != nil {
		t.Fatalf("resolve home: %v", err)
	}
	if got.ID != home.Page.ID {
		t.Errorf("home resolve = %s, want %s", got.ID, home.Page.ID)
	}

	got, err = repo.ActiveChildBySlug(ctx, siteID, blog.Page.ID, "first")
	if err != nil {
		t.Fatalf("resolve post: %v", err)
	}
	if got.ID != post.Page.ID {
		t.Errorf("post resolve = %s, want %s", got.ID, post.Page.ID)
	}

	entry, err := repo.GetByID(ctx, siteID, post.Page.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	fields, ok := entry.Payload.(*pagetypes.PostFields)
	if !ok {
		t.Fatalf("post payload is %T", entry.Payload)
	}
	if fields.Body != "body" || fields.Excerpt != "x" {
		t.Errorf("post payload = %+v", fields)
	}
}

func TestPostgres_ActiveAndSiteScoping(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := page.NewPostgres(pool, testRegistry(), log.New(io.Discard, "", 0))
	siteA := insertSite(ctx, t, pool, "site-a", "a.example.com")
	siteB := insertSite(ctx, t, pool, "site-b", "b.example.com")

	if _, err := repo.Create(ctx, &domain.Page{
		SiteID: siteA, Type: pagetypes.TypePage, Slug: "hidden", Title: "Hidden", Active: false,
	}, &pagetypes.ContentFields{}); err != nil {
		t.Fatalf("create inactive: %v", err)
	}
	if _, err := repo.ActiveChildBySlug(ctx, siteA, "", "hidden"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("inactive page resolve err = %v, want ErrNotFound", err)
	}

	if _, err := repo.Create(ctx, &domain.Page{
		SiteID: siteB, Type: pagetypes.TypePage, Slug: "about", Title: "About B", Active: true,
	}, &pagetypes.ContentFields{}); err != nil {
		t.Fatalf("create on site b: %v", err)
	}
	if _, err := repo.ActiveChildBySlug(ctx, siteA, "", "about"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-site resolve err = %v, want ErrNotFound", err)
	}
}

func TestPostgres_SiblingSlugConflict(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := page.NewPostgres(pool, testRegistry(), log.New(io.Discard, "", 0))
	siteID := insertSite(ctx, t, pool, "site-a", "a.example.com")

	if _, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypePage, Slug: "about", Title: "About", Active: true,
	}, &pagetypes.ContentFields{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypePage, Slug: "about", Title: "About again", Active: true,
	}, &pagetypes.ContentFields{})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate sibling slug err = %v, want ErrAlreadyExists", err)
	}
}

func TestPostgres_ChildOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := page.NewPostgres(pool, testRegistry(), log.New(io.Discard, "", 0))
	siteID := insertSite(ctx, t, pool, "site-a", "a.example.com")

	blog, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypeCategory, Slug: "blog", Title: "Blog", Active: true,
	}, &pagetypes.CategoryFields{})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	for _, p := range []struct {
		slug   string
		pos    int
		active bool
	}{
		{"second", 2, true},
		{"first", 1, true},
		{"draft", 0, false},
	} {
		if _, err := repo.Create(ctx, &domain.Page{
			SiteID: siteID, ParentID: blog.Page.ID, Type: pagetypes.TypePost,
			Slug: p.slug, Title: p.slug, Position: p.pos, Active: p.active,
		}, &pagetypes.PostFields{Body: p.slug}); err != nil {
			t.Fatalf("create %s: %v", p.slug, err)
		}
	}

	entries, err := repo.ListChildren(ctx, siteID, blog.Page.ID, page.ChildFilter{
		Type: pagetypes.TypePost, OnlyActive: true, WithPayloads: true,
	})
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("children = %d, want 2", len(entries))
	}
	if entries[0].Page.Slug != "first" || entries[1].Page.Slug != "second" {
		t.Errorf("order = %s, %s", entries[0].Page.Slug, entries[1].Page.Slug)
	}
	if body := entries[0].Payload.(*pagetypes.PostFields).Body; body != "first" {
		t.Errorf("payload of first = %q", body)
	}
}

func TestPostgres_MoveAndDeleteCascade(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := page.NewPostgres(pool, testRegistry(), log.New(io.Discard, "", 0))
	siteID := insertSite(ctx, t, pool, "site-a", "a.example.com")

	blog, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypeCategory, Slug: "blog", Title: "Blog", Active: true,
	}, &pagetypes.CategoryFields{})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	post, err := repo.Create(ctx, &domain.Page{
		SiteID: siteID, Type: pagetypes.TypePost, Slug: "stray", Title: "Stray", Active: true,
	}, &pagetypes.PostFields{Body: "b"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if err := repo.Move(ctx, siteID, post.Page.ID, blog.Page.ID, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	moved, err := repo.GetBase(ctx, siteID, post.Page.ID)
	if err != nil {
		t.Fatalf("get moved: %v", err)
	}
	if moved.ParentID != blog.Page.ID {
		t.Errorf("parent after move = %q, want %q", moved.ParentID, blog.Page.ID)
	}

	if err := repo.Delete(ctx, siteID, blog.Page.ID); err != nil {
		t.Fatalf("delete blog: %v", err)
	}
	if _, err := repo.GetBase(ctx, siteID, post.Page.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("child after cascade err = %v, want ErrNotFound", err)
	}
	var payloadRows int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM page_posts`).Scan(&payloadRows); err != nil {
		t.Fatalf("count payload rows: %v", err)
	}
	if payloadRows != 0 {
		t.Errorf("payload rows after cascade = %d, want 0", payloadRows)
	}
}
