package page

import (
	"context"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
)

// Entry is a page with its subtype payload loaded.
type Entry struct {
	Page    domain.Page
	Payload pagetype.Payload
}

// ChildFilter narrows child listings. The zero value lists every child in the
// declared order (position, then creation time).
type ChildFilter struct {
	// Type keeps only children with this discriminator.
	Type string
	// OnlyActive keeps only active children.
	OnlyActive bool
	// WithPayloads loads each child's extension row.
	WithPayloads bool
}

type Repository interface {
	// GetByID loads the base record and its payload.
	GetByID(ctx context.Context, siteID, id string) (*Entry, error)
	// GetBase loads the base record only.
	GetBase(ctx context.Context, siteID, id string) (*domain.Page, error)
	// WithPayload loads p's extension row and returns the combined entry.
	WithPayload(ctx context.Context, p *domain.Page) (*Entry, error)
	// ActiveChildBySlug returns the active child of parentID carrying slug.
	// parentID "" addresses the root level. Inactive pages are invisible
	// here; this is the resolver's step query.
	ActiveChildBySlug(ctx context.Context, siteID, parentID, slug string) (*domain.Page, error)
	// ListChildren lists the children of parentID ("" for roots).
	ListChildren(ctx context.Context, siteID, parentID string, f ChildFilter) ([]Entry, error)
	// ListBySite returns every page of the site, parents before children.
	ListBySite(ctx context.Context, siteID string) ([]domain.Page, error)
	// Create inserts the base record and payload in one transaction and
	// returns the stored entry.
	Create(ctx context.Context, p *domain.Page, payload pagetype.Payload) (*Entry, error)
	// Update rewrites the mutable base fields (slug, title, position,
	// active) and the payload. The type discriminator never changes.
	Update(ctx context.Context, p *domain.Page, payload pagetype.Payload) (*Entry, error)
	// Move reparents the page. Callers are responsible for cycle checks.
	Move(ctx context.Context, siteID, id, newParentID string, position int) error
	// Delete removes the page; the schema cascades over subtree, payload
	// rows and translations.
	Delete(ctx context.Context, siteID, id string) error
}
