package pagetypes

import (
	"context"
	"errors"
	"testing"
	"time"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
	pagerepo "arbor/internal/repository/page"
)

type stubReader struct {
	children    []pagerepo.Entry
	childrenErr error
	lastSiteID  string
	lastParent  string
	lastLang    string
	lastFilter  pagerepo.ChildFilter

	byID    map[string]*pagerepo.Entry
	byIDErr error
}

func (s *stubReader) Children(_ context.Context, siteID, parentID, lang string, f pagerepo.ChildFilter) ([]pagerepo.Entry, error) {
	s.lastSiteID = siteID
	s.lastParent = parentID
	s.lastLang = lang
	s.lastFilter = f
	return s.children, s.childrenErr
}

func (s *stubReader) PageByID(_ context.Context, _, id, _ string) (*pagerepo.Entry, error) {
	if s.byIDErr != nil {
		return nil, s.byIDErr
	}
	e, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func baseFor(p *domain.Page, pathStr string) pagetype.Context {
	return pagetype.BaseContext(pagetype.Request{
		Site: domain.Site{ID: "site1"},
		Page: p,
		Lang: "en",
		Path: pathStr,
	})
}

func TestLocalizeAppliesDeclaredFields(t *testing.T) {
	f := &PostFields{Body: "base body", Excerpt: "base excerpt"}
	f.Localize(map[string]string{"body": "übersetzt", "slug": "ignored"})
	if f.Body != "übersetzt" {
		t.Fatalf("expected translated body, got %q", f.Body)
	}
	if f.Excerpt != "base excerpt" {
		t.Fatalf("expected untouched excerpt, got %q", f.Excerpt)
	}

	c := &ContentFields{Body: "x"}
	c.Localize(map[string]string{"body": "y"})
	if c.Body != "y" {
		t.Fatalf("expected translated body, got %q", c.Body)
	}

	g := &CategoryFields{Intro: "x"}
	g.Localize(map[string]string{"intro": "y", "body": "nope"})
	if g.Intro != "y" {
		t.Fatalf("expected translated intro, got %q", g.Intro)
	}
}

func TestTypeDescriptors(t *testing.T) {
	reader := &stubReader{}
	cases := []struct {
		typ      pagetype.Type
		name     string
		template string
	}{
		{Page(), TypePage, "page.html"},
		{Category(reader), TypeCategory, "category.html"},
		{Post(reader), TypePost, "post.html"},
	}
	for _, c := range cases {
		if c.typ.Name != c.name || c.typ.Template != c.template {
			t.Fatalf("unexpected descriptor: %+v", c.typ)
		}
		if c.typ.NewPayload().PageType() != c.name {
			t.Fatalf("payload type mismatch for %s", c.name)
		}
		if !c.typ.Localizable("title") {
			t.Fatalf("title must be localizable for %s", c.name)
		}
	}
	if !Post(reader).Localizable("excerpt") || Post(reader).Localizable("published") {
		t.Fatalf("unexpected localizable fields for post")
	}
}

func TestCategoryContextInjectsPosts(t *testing.T) {
	published := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	reader := &stubReader{children: []pagerepo.Entry{
		{
			Page:    domain.Page{ID: "p1", Slug: "first", Title: "First", Type: TypePost, Active: true},
			Payload: &PostFields{Excerpt: "one", PublishedAt: &published},
		},
		{
			Page:    domain.Page{ID: "p2", Slug: "second", Title: "Second", Type: TypePost, Active: true},
			Payload: &PostFields{Excerpt: "two"},
		},
	}}

	cat := &domain.Page{ID: "cat1", SiteID: "site1", Slug: "blog", Type: TypeCategory}
	tc := baseFor(cat, "/de/blog")
	if err := Category(reader).Context(context.Background(), pagetype.Request{
		Site: domain.Site{ID: "site1"}, Page: cat, Lang: "de", Path: "/de/blog",
	}, tc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reader.lastSiteID != "site1" || reader.lastParent != "cat1" || reader.lastLang != "de" {
		t.Fatalf("unexpected lister call: %+v", reader)
	}
	if reader.lastFilter.Type != TypePost || !reader.lastFilter.OnlyActive || !reader.lastFilter.WithPayloads {
		t.Fatalf("unexpected filter: %+v", reader.lastFilter)
	}

	items, ok := tc["posts"].([]PostItem)
	if !ok || len(items) != 2 {
		t.Fatalf("expected two posts, got %v", tc["posts"])
	}
	if items[0].URL != "/de/blog/first" || items[1].URL != "/de/blog/second" {
		t.Fatalf("unexpected URLs: %q %q", items[0].URL, items[1].URL)
	}
	if items[0].Fields == nil || items[0].Fields.Excerpt != "one" {
		t.Fatalf("expected payload on item, got %+v", items[0].Fields)
	}

	// The base keys survive the override.
	for _, key := range []string{"object", "payload", "site", "lang", "path", "query", "nav"} {
		if _, ok := tc[key]; !ok {
			t.Fatalf("override dropped base key %q", key)
		}
	}
}

func TestCategoryContextListerError(t *testing.T) {
	reader := &stubReader{childrenErr: errors.New("boom")}
	cat := &domain.Page{ID: "cat1", SiteID: "site1", Slug: "blog", Type: TypeCategory}
	err := Category(reader).Context(context.Background(), pagetype.Request{
		Site: domain.Site{ID: "site1"}, Page: cat, Path: "/blog",
	}, baseFor(cat, "/blog"))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestPostContextLinksCategory(t *testing.T) {
	reader := &stubReader{byID: map[string]*pagerepo.Entry{
		"cat1": {Page: domain.Page{ID: "cat1", Title: "Blog", Type: TypeCategory}},
	}}
	post := &domain.Page{ID: "p1", SiteID: "site1", ParentID: "cat1", Slug: "first", Type: TypePost}
	tc := baseFor(post, "/blog/first")
	if err := Post(reader).Context(context.Background(), pagetype.Request{
		Site: domain.Site{ID: "site1"}, Page: post, Path: "/blog/first",
	}, tc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	link, ok := tc["category"].(CategoryLink)
	if !ok {
		t.Fatalf("expected category link, got %v", tc["category"])
	}
	if link.Title != "Blog" || link.URL != "/blog" {
		t.Fatalf("unexpected link: %+v", link)
	}
}

func TestPostContextSkipsNonCategoryParent(t *testing.T) {
	reader := &stubReader{byID: map[string]*pagerepo.Entry{
		"parent1": {Page: domain.Page{ID: "parent1", Title: "Plain", Type: TypePage}},
	}}
	post := &domain.Page{ID: "p1", SiteID: "site1", ParentID: "parent1", Slug: "first", Type: TypePost}
	tc := baseFor(post, "/plain/first")
	if err := Post(reader).Context(context.Background(), pagetype.Request{
		Site: domain.Site{ID: "site1"}, Page: post, Path: "/plain/first",
	}, tc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tc["category"]; ok {
		t.Fatalf("expected no category link for non-category parent")
	}
}

func TestPostContextRootPost(t *testing.T) {
	reader := &stubReader{}
	post := &domain.Page{ID: "p1", SiteID: "site1", Slug: "standalone", Type: TypePost}
	tc := baseFor(post, "/standalone")
	if err := Post(reader).Context(context.Background(), pagetype.Request{
		Site: domain.Site{ID: "site1"}, Page: post, Path: "/standalone",
	}, tc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tc["category"]; ok {
		t.Fatalf("expected no category link for root post")
	}
}
