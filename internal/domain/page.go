package domain

import "time"

// Page is the base record shared by every page type. The base table owns tree
// structure, slugs and activation; subtype fields live in extension tables
// keyed by page id and are loaded through the type registry.
type Page struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"-"`
	ParentID  string    `json:"parentId,omitempty"`
	Type      string    `json:"type"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsRoot reports whether the page sits at the top of its site's tree.
func (p Page) IsRoot() bool { return p.ParentID == "" }

// PageNode is a page with its children, as served to the admin tree screen.
// Children follow the declared ordering: position, then creation time.
type PageNode struct {
	Page
	Children []*PageNode `json:"children"`
}
