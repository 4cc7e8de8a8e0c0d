// Package pagetype defines the page type registry: the set of page variants
// an application registers at startup. Everything the engine needs to serve a
// variant — its template, payload storage, translatable fields and context
// override — is declared on the Type descriptor, so resolution, rendering and
// admin handling stay uniform and never name a concrete type.
package pagetype

import (
	"context"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"arbor/internal/domain"
)

// Payload carries the subtype-specific fields of one page.
type Payload interface {
	// PageType returns the discriminator of the type the payload belongs to.
	PageType() string
}

// Localizer is implemented by payloads with translatable fields.
type Localizer interface {
	// Localize overwrites translatable fields with the given values, keyed
	// by field name. Unknown keys are ignored.
	Localize(values map[string]string)
}

// Querier is the subset of pgx used by payload stores. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so payload writes can join the base-row transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store loads and saves a type's extension row. Deletion rides on the base
// row's foreign key cascade.
type Store interface {
	Load(ctx context.Context, q Querier, pageID string) (Payload, error)
	Save(ctx context.Context, q Querier, pageID string, p Payload) error
}

// Context is the template context: the base mapping plus whatever the page's
// type adds to it.
type Context map[string]any

// NavItem is one entry of the site's top navigation.
type NavItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Request carries the resolved request data a context is built from. The
// handler fills it after resolution; context funcs only read it.
type Request struct {
	Site    domain.Site
	Page    *domain.Page
	Payload Payload
	Lang    string
	// Path is the canonical request path, language prefix included.
	Path  string
	Query url.Values
	// Nav holds the site's active root pages, prefetched by the handler.
	Nav []NavItem
}

// ContextFunc extends the base context for one page type. Implementations add
// keys to tc and leave the base keys intact; the map itself cannot be swapped
// out.
type ContextFunc func(ctx context.Context, req Request, tc Context) error

// BaseContext builds the mapping every template can rely on, for any type.
func BaseContext(req Request) Context {
	return Context{
		"object":  req.Page,
		"payload": req.Payload,
		"site":    req.Site,
		"lang":    req.Lang,
		"path":    req.Path,
		"query":   req.Query,
		"nav":     req.Nav,
	}
}

// Type describes one registered page variant.
type Type struct {
	// Name is the discriminator stored on the base record.
	Name string
	// Template is the file name of the type's template within the layout set.
	Template string
	// Localized names the payload fields that accept translations. Title is
	// localizable on every type and is not listed here.
	Localized []string
	// NewPayload returns an empty payload, used to decode admin input.
	NewPayload func() Payload
	// Store persists the payload rows.
	Store Store
	// Context extends the base context; nil serves the base context as is.
	Context ContextFunc
}

// Localizable reports whether field accepts translations for this type.
func (t Type) Localizable(field string) bool {
	if field == "title" {
		return true
	}
	for _, f := range t.Localized {
		if f == field {
			return true
		}
	}
	return false
}
