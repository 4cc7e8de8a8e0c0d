// Package pagetypes declares the built-in page types: the basic content
// page, the category, and the blog post. It is the reference for declaring
// further types: a payload struct, a store for the extension table, and an
// optional context func, registered together as one pagetype.Type.
package pagetypes

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
	pagerepo "arbor/internal/repository/page"
)

const (
	TypePage     = "page"
	TypeCategory = "category"
	TypePost     = "post"
)

// PageReader is the read surface the built-in context funcs consume,
// implemented by the page service. Results come back with translation
// overlays already applied for the requested language.
type PageReader interface {
	Children(ctx context.Context, siteID, parentID, lang string, f pagerepo.ChildFilter) ([]pagerepo.Entry, error)
	PageByID(ctx context.Context, siteID, id, lang string) (*pagerepo.Entry, error)
}

// PostItem is one post row in a category listing.
type PostItem struct {
	Page   domain.Page
	Fields *PostFields
	URL    string
}

// CategoryLink points a post back at its category.
type CategoryLink struct {
	Title string
	URL   string
}

// Page returns the basic content page type. It adds nothing to the base
// context; the page template renders the body alone.
func Page() pagetype.Type {
	return pagetype.Type{
		Name:       TypePage,
		Template:   "page.html",
		Localized:  []string{"body"},
		NewPayload: func() pagetype.Payload { return &ContentFields{} },
		Store:      contentStore{},
	}
}

// Category returns the category type. Its context carries the active child
// posts under the key "posts", in the declared child order.
func Category(reader PageReader) pagetype.Type {
	return pagetype.Type{
		Name:       TypeCategory,
		Template:   "category.html",
		Localized:  []string{"intro"},
		NewPayload: func() pagetype.Payload { return &CategoryFields{} },
		Store:      categoryStore{},
		Context:    categoryContext(reader),
	}
}

// Post returns the blog post type. Its context links back to the parent
// category under the key "category" when there is one.
func Post(reader PageReader) pagetype.Type {
	return pagetype.Type{
		Name:       TypePost,
		Template:   "post.html",
		Localized:  []string{"body", "excerpt"},
		NewPayload: func() pagetype.Payload { return &PostFields{} },
		Store:      postStore{},
		Context:    postContext(reader),
	}
}

func categoryContext(reader PageReader) pagetype.ContextFunc {
	return func(ctx context.Context, req pagetype.Request, tc pagetype.Context) error {
		entries, err := reader.Children(ctx, req.Site.ID, req.Page.ID, req.Lang, pagerepo.ChildFilter{
			Type:         TypePost,
			OnlyActive:   true,
			WithPayloads: true,
		})
		if err != nil {
			return fmt.Errorf("list category posts: %w", err)
		}
		items := make([]PostItem, 0, len(entries))
		for _, e := range entries {
			fields, _ := e.Payload.(*PostFields)
			items = append(items, PostItem{
				Page:   e.Page,
				Fields: fields,
				URL:    path.Join(req.Path, e.Page.Slug),
			})
		}
		tc["posts"] = items
		return nil
	}
}

func postContext(reader PageReader) pagetype.ContextFunc {
	return func(ctx context.Context, req pagetype.Request, tc pagetype.Context) error {
		if req.Page.ParentID == "" {
			return nil
		}
		parent, err := reader.PageByID(ctx, req.Site.ID, req.Page.ParentID, req.Lang)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("load post parent: %w", err)
		}
		if parent.Page.Type != TypeCategory {
			return nil
		}
		tc["category"] = CategoryLink{
			Title: parent.Page.Title,
			URL:   path.Dir(strings.TrimSuffix(req.Path, "/")),
		}
		return nil
	}
}
