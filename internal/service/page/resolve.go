package page

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
	pagerepo "arbor/internal/repository/page"
)

// Resolve walks the slug path one level at a time, scoped to the site.
// Every step requires an active page, so an inactive ancestor hides its
// whole subtree. "/" addresses the site root carrying the empty slug. A miss
// anywhere returns domain.ErrNotFound; callers treat that as "keep trying
// other handlers", not as a failure.
func (s *Service) Resolve(ctx context.Context, siteID, urlPath, lang string) (*pagerepo.Entry, error) {
	segments := splitPath(urlPath)
	var (
		current *domain.Page
		err     error
	)
	if len(segments) == 0 {
		current, err = s.repo.ActiveChildBySlug(ctx, siteID, "", "")
		if err != nil {
			return nil, err
		}
	} else {
		parentID := ""
		for _, seg := range segments {
			current, err = s.repo.ActiveChildBySlug(ctx, siteID, parentID, seg)
			if err != nil {
				return nil, err
			}
			parentID = current.ID
		}
	}
	entry, err := s.repo.WithPayload(ctx, current)
	if err != nil {
		return nil, err
	}
	if err := s.localize(ctx, entry, lang); err != nil {
		return nil, err
	}
	return entry, nil
}

// Path computes the canonical URL path of a page within its site, without
// language prefix: slugs from the root joined by "/"; the homepage root is
// "/". It is the inverse of Resolve for active pages.
func (s *Service) Path(ctx context.Context, p *domain.Page) (string, error) {
	segments := []string{}
	if p.Slug != "" {
		segments = append(segments, p.Slug)
	}
	seen := map[string]bool{p.ID: true}
	cur := p.ParentID
	for cur != "" {
		if seen[cur] {
			return "", fmt.Errorf("parent chain of page %s loops at %s", p.ID, cur)
		}
		seen[cur] = true
		parent, err := s.repo.GetBase(ctx, p.SiteID, cur)
		if err != nil {
			return "", fmt.Errorf("parent: %w", err)
		}
		if parent.Slug != "" {
			segments = append([]string{parent.Slug}, segments...)
		}
		cur = parent.ParentID
	}
	return "/" + strings.Join(segments, "/"), nil
}

func (s *Service) localize(ctx context.Context, e *pagerepo.Entry, lang string) error {
	if lang == "" || lang == s.defaultLang {
		return nil
	}
	t, ok := s.types.Get(e.Page.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, e.Page.Type)
	}
	values, err := s.trans.Get(ctx, e.Page.ID, lang)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	if len(values) == 0 {
		return nil
	}
	if v, ok := values["title"]; ok && v != "" {
		e.Page.Title = v
	}
	loc, ok := e.Payload.(pagetype.Localizer)
	if !ok {
		return nil
	}
	fields := make(map[string]string, len(values))
	for field, v := range values {
		if field != "title" && t.Localizable(field) {
			fields[field] = v
		}
	}
	if len(fields) > 0 {
		loc.Localize(fields)
	}
	return nil
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// validateSlug enforces the slug charset. The empty slug is legal only on a
// root page, where it marks the site homepage.
func validateSlug(slug string, isRoot bool) error {
	if slug == "" {
		if isRoot {
			return nil
		}
		return fmt.Errorf("%w: empty slug allowed only on a site root", ErrInvalidSlug)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// Slugify lowers s and reduces it to the slug charset, collapsing runs of
// other characters into single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
