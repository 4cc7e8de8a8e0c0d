package page

import (
	"context"
	"errors"
	"fmt"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
	pagerepo "arbor/internal/repository/page"
	translationrepo "arbor/internal/repository/translation"
)

var (
	// ErrUnknownType rejects operations naming an unregistered page type.
	ErrUnknownType = errors.New("unknown page type")
	// ErrInvalidSlug rejects slugs outside the allowed charset, and empty
	// slugs anywhere but on a site root.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrCycle rejects moves that would put a page inside its own subtree.
	ErrCycle = errors.New("page cannot be moved into its own subtree")
	// ErrNotLocalizable rejects translation writes for undeclared fields.
	ErrNotLocalizable = errors.New("field not translatable")
	// ErrInvalidInput marks validation failures on write operations.
	ErrInvalidInput = errors.New("invalid input")
)

// Service owns page tree semantics: slug-path resolution, canonical path
// computation, tree assembly, validated writes and translation overlays.
type Service struct {
	repo        pageRepo
	trans       translationRepo
	types       *pagetype.Registry
	defaultLang string
}

type pageRepo interface {
	GetByID(ctx context.Context, siteID, id string) (*pagerepo.Entry, error)
	GetBase(ctx context.Context, siteID, id string) (*domain.Page, error)
	WithPayload(ctx context.Context, p *domain.Page) (*pagerepo.Entry, error)
	ActiveChildBySlug(ctx context.Context, siteID, parentID, slug string) (*domain.Page, error)
	ListChildren(ctx context.Context, siteID, parentID string, f pagerepo.ChildFilter) ([]pagerepo.Entry, error)
	ListBySite(ctx context.Context, siteID string) ([]domain.Page, error)
	Create(ctx context.Context, p *domain.Page, payload pagetype.Payload) (*pagerepo.Entry, error)
	Update(ctx context.Context, p *domain.Page, payload pagetype.Payload) (*pagerepo.Entry, error)
	Move(ctx context.Context, siteID, id, newParentID string, position int) error
	Delete(ctx context.Context, siteID, id string) error
}

type translationRepo interface {
	Get(ctx context.Context, pageID, lang string) (map[string]string, error)
	ListByPage(ctx context.Context, pageID string) ([]domain.Translation, error)
	Set(ctx context.Context, pageID, lang string, values map[string]string) error
}

func New(repo pagerepo.Repository, trans translationrepo.Repository, types *pagetype.Registry, defaultLang string) *Service {
	return &Service{repo: repo, trans: trans, types: types, defaultLang: defaultLang}
}

type CreateInput struct {
	SiteID   string
	Type     string
	ParentID string
	Slug     string
	Title    string
	Position int
	Active   bool
	Payload  pagetype.Payload
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*pagerepo.Entry, error) {
	t, ok := s.types.Get(in.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if err := validateSlug(in.Slug, in.ParentID == ""); err != nil {
		return nil, err
	}
	if in.ParentID != "" {
		if _, err := s.repo.GetBase(ctx, in.SiteID, in.ParentID); err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
	}
	payload := in.Payload
	if payload == nil {
		payload = t.NewPayload()
	}
	if payload.PageType() != in.Type {
		return nil, fmt.Errorf("%w: payload is for type %q, page is %q", ErrInvalidInput, payload.PageType(), in.Type)
	}
	return s.repo.Create(ctx, &domain.Page{
		SiteID:   in.SiteID,
		ParentID: in.ParentID,
		Type:     in.Type,
		Slug:     in.Slug,
		Title:    in.Title,
		Position: in.Position,
		Active:   in.Active,
	}, payload)
}

type UpdateInput struct {
	Slug     *string
	Title    *string
	Position *int
	Active   *bool
	// Payload nil keeps the stored payload.
	Payload pagetype.Payload
}

func (s *Service) Update(ctx context.Context, siteID, id string, in UpdateInput) (*pagerepo.Entry, error) {
	current, err := s.repo.GetByID(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	page := current.Page
	if in.Slug != nil {
		page.Slug = *in.Slug
	}
	if in.Title != nil {
		page.Title = *in.Title
	}
	if in.Position != nil {
		page.Position = *in.Position
	}
	if in.Active != nil {
		page.Active = *in.Active
	}
	if page.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if err := validateSlug(page.Slug, page.ParentID == ""); err != nil {
		return nil, err
	}
	payload := in.Payload
	if payload == nil {
		payload = current.Payload
	}
	if payload.PageType() != page.Type {
		return nil, fmt.Errorf("%w: payload is for type %q, page is %q", ErrInvalidInput, payload.PageType(), page.Type)
	}
	return s.repo.Update(ctx, &page, payload)
}

// Move reparents the page, refusing targets inside its own subtree. The
// check walks the new parent's ancestor chain; a repeated id on the way up
// means stored data already looped and is reported as corruption.
func (s *Service) Move(ctx context.Context, siteID, id, newParentID string, position int) error {
	if _, err := s.repo.GetBase(ctx, siteID, id); err != nil {
		return err
	}
	if newParentID != "" {
		if newParentID == id {
			return ErrCycle
		}
		seen := map[string]bool{id: true}
		cur := newParentID
		for cur != "" {
			if seen[cur] {
				return ErrCycle
			}
			seen[cur] = true
			parent, err := s.repo.GetBase(ctx, siteID, cur)
			if err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			cur = parent.ParentID
		}
	}
	return s.repo.Move(ctx, siteID, id, newParentID, position)
}

func (s *Service) Delete(ctx context.Context, siteID, id string) error {
	return s.repo.Delete(ctx, siteID, id)
}

// PageByID loads one page with payload and translation overlay.
func (s *Service) PageByID(ctx context.Context, siteID, id, lang string) (*pagerepo.Entry, error) {
	entry, err := s.repo.GetByID(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	if err := s.localize(ctx, entry, lang); err != nil {
		return nil, err
	}
	return entry, nil
}

// Children lists a page's children ("" for the root level) with translation
// overlays applied.
func (s *Service) Children(ctx context.Context, siteID, parentID, lang string, f pagerepo.ChildFilter) ([]pagerepo.Entry, error) {
	entries, err := s.repo.ListChildren(ctx, siteID, parentID, f)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if err := s.localize(ctx, &entries[i], lang); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Tree assembles the whole site into nested nodes, parents before children,
// siblings in declared order.
func (s *Service) Tree(ctx context.Context, siteID string) ([]*domain.PageNode, error) {
	pages, err := s.repo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]*domain.PageNode, len(pages))
	for _, p := range pages {
		nodes[p.ID] = &domain.PageNode{Page: p}
	}
	var roots []*domain.PageNode
	for _, p := range pages {
		n := nodes[p.ID]
		if p.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[p.ParentID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots, nil
}

// Translations returns every stored translation of a page as lang→field→value.
func (s *Service) Translations(ctx context.Context, siteID, id string) (map[string]map[string]string, error) {
	if _, err := s.repo.GetBase(ctx, siteID, id); err != nil {
		return nil, err
	}
	list, err := s.trans.ListByPage(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string)
	for _, t := range list {
		if out[t.Lang] == nil {
			out[t.Lang] = make(map[string]string)
		}
		out[t.Lang][t.Field] = t.Value
	}
	return out, nil
}

// SetTranslations upserts field values for one language, validating every
// field against the page type's declared translatable set.
func (s *Service) SetTranslations(ctx context.Context, siteID, id, lang string, values map[string]string) error {
	p, err := s.repo.GetBase(ctx, siteID, id)
	if err != nil {
		return err
	}
	t, ok := s.types.Get(p.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	for field := range values {
		if !t.Localizable(field) {
			return fmt.Errorf("%w: %q on type %q", ErrNotLocalizable, field, p.Type)
		}
	}
	return s.trans.Set(ctx, id, lang, values)
}
