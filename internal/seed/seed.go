package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arbor/internal/auth"
	"arbor/internal/domain"
	"arbor/internal/pagetype"
	"arbor/internal/pagetypes"
	pagerepo "arbor/internal/repository/page"
	siterepo "arbor/internal/repository/site"
	userrepo "arbor/internal/repository/user"
	pagesvc "arbor/internal/service/page"
)

type pageSeed struct {
	Type         string
	Slug         string
	Title        string
	Position     int
	Active       bool
	Payload      pagetype.Payload
	Translations map[string]map[string]string
	Children     []pageSeed
}

// Apply inserts the demo fixture: one site on localhost, a small page tree
// and an admin user. Pages that already exist are left alone, so edits
// survive a re-run.
func Apply(ctx context.Context, sites siterepo.Repository, users userrepo.Repository, pages *pagesvc.Service, adminPassword string) error {
	site, err := sites.Upsert(ctx, domain.Site{Key: "demo", Name: "Arbor Demo", Host: "localhost"})
	if err != nil {
		return fmt.Errorf("ensure site: %w", err)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := users.Upsert(ctx, "admin", hash); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}

	published := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	tree := []pageSeed{
		{
			Type: pagetypes.TypePage, Slug: "", Title: "Home", Position: 0, Active: true,
			Payload: &pagetypes.ContentFields{Body: "# Welcome\n\nThis demo runs on a page tree: every URL segment is a slug."},
		},
		{
			Type: pagetypes.TypePage, Slug: "about", Title: "About", Position: 1, Active: true,
			Payload:      &pagetypes.ContentFields{Body: "We publish notes about trees, slugs and templates."},
			Translations: map[string]map[string]string{"de": {"title": "Über uns", "body": "Wir schreiben über Bäume, Slugs und Templates."}},
		},
		{
			Type: pagetypes.TypeCategory, Slug: "blog", Title: "Blog", Position: 2, Active: true,
			Payload: &pagetypes.CategoryFields{Intro: "Latest posts, newest first."},
			Children: []pageSeed{
				{
					Type: pagetypes.TypePost, Slug: "hello-world", Title: "Hello, World", Position: 0, Active: true,
					Payload: &pagetypes.PostFields{
						Body:        "The obligatory first post.\n\n```go\nfmt.Println(\"hello\")\n```",
						Excerpt:     "The obligatory first post.",
						PublishedAt: &published,
					},
				},
				{
					Type: pagetypes.TypePost, Slug: "drafting", Title: "Drafting in the open", Position: 1, Active: false,
					Payload: &pagetypes.PostFields{
						Body:    "Not ready yet. Inactive pages stay invisible on the public site.",
						Excerpt: "Not ready yet.",
					},
				},
			},
		},
	}

	for _, s := range tree {
		if err := ensurePage(ctx, pages, site.ID, "", s); err != nil {
			return err
		}
	}
	return nil
}

func ensurePage(ctx context.Context, pages *pagesvc.Service, siteID, parentID string, s pageSeed) error {
	var id string
	entry, err := pages.Create(ctx, pagesvc.CreateInput{
		SiteID:   siteID,
		Type:     s.Type,
		ParentID: parentID,
		Slug:     s.Slug,
		Title:    s.Title,
		Position: s.Position,
		Active:   s.Active,
		Payload:  s.Payload,
	})
	switch {
	case err == nil:
		id = entry.Page.ID
		for lang, values := range s.Translations {
			if err := pages.SetTranslations(ctx, siteID, id, lang, values); err != nil {
				return fmt.Errorf("seed translations of %q: %w", s.Slug, err)
			}
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		existing, err := findChild(ctx, pages, siteID, parentID, s.Slug)
		if err != nil {
			return err
		}
		id = existing.ID
	default:
		return fmt.Errorf("seed page %q: %w", s.Slug, err)
	}

	for _, c := range s.Children {
		if err := ensurePage(ctx, pages, siteID, id, c); err != nil {
			return err
		}
	}
	return nil
}

func findChild(ctx context.Context, pages *pagesvc.Service, siteID, parentID, slug string) (*domain.Page, error) {
	entries, err := pages.Children(ctx, siteID, parentID, "", pagerepo.ChildFilter{})
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Page.Slug == slug {
			return &entries[i].Page, nil
		}
	}
	return nil, fmt.Errorf("seed page %q: %w", slug, domain.ErrNotFound)
}
