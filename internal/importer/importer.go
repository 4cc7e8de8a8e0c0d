// Package importer mirrors a markdown content tree into a site's page tree.
// Directories become branch pages described by their index.md, other *.md
// files become leaves, and front matter carries the page metadata.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"arbor/internal/domain"
	"arbor/internal/pagetype"
	"arbor/internal/pagetypes"
	pagerepo "arbor/internal/repository/page"
	pagesvc "arbor/internal/service/page"
)

// PageWriter is the slice of the page service the importer drives. Going
// through the service keeps imports on the same validation paths as the
// admin API.
type PageWriter interface {
	Create(ctx context.Context, in pagesvc.CreateInput) (*pagerepo.Entry, error)
	Update(ctx context.Context, siteID, id string, in pagesvc.UpdateInput) (*pagerepo.Entry, error)
	Children(ctx context.Context, siteID, parentID, lang string, f pagerepo.ChildFilter) ([]pagerepo.Entry, error)
	SetTranslations(ctx context.Context, siteID, id, lang string, values map[string]string) error
}

// TreeImporter walks a content filesystem and upserts one page per document.
type TreeImporter struct {
	fsys   fs.FS
	pages  PageWriter
	siteID string
}

func NewTreeImporter(fsys fs.FS, pages PageWriter, siteID string) *TreeImporter {
	return &TreeImporter{fsys: fsys, pages: pages, siteID: siteID}
}

type frontMatter struct {
	Title        string                       `yaml:"title"`
	Slug         string                       `yaml:"slug"`
	Type         string                       `yaml:"type"`
	Position     int                          `yaml:"position"`
	Active       *bool                        `yaml:"active"`
	Excerpt      string                       `yaml:"excerpt"`
	Published    *time.Time                   `yaml:"published"`
	Translations map[string]map[string]string `yaml:"translations"`
}

type document struct {
	slug         string
	title        string
	typ          string
	position     int
	active       bool
	payload      pagetype.Payload
	translations map[string]map[string]string
}

// Run imports the whole tree and returns the number of upserted pages. The
// root index.md becomes the site's homepage.
func (i *TreeImporter) Run(ctx context.Context) (int, error) {
	return i.importDir(ctx, ".", "")
}

func (i *TreeImporter) importDir(ctx context.Context, dir, parentID string) (int, error) {
	entries, err := fs.ReadDir(i.fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}
	count := 0
	for _, e := range entries {
		name := e.Name()
		full := path.Join(dir, name)
		switch {
		case e.IsDir():
			doc, err := i.loadDoc(path.Join(full, "index.md"), name)
			if err != nil {
				return count, err
			}
			branch, err := i.upsert(ctx, parentID, doc)
			if err != nil {
				return count, fmt.Errorf("import %s: %w", full, err)
			}
			count++
			n, err := i.importDir(ctx, full, branch.ID)
			count += n
			if err != nil {
				return count, err
			}
		case name == "index.md" && dir == ".":
			doc, err := i.loadDoc(full, "")
			if err != nil {
				return count, err
			}
			// The root document is the homepage and lives at the bare slug.
			doc.slug = ""
			if _, err := i.upsert(ctx, parentID, doc); err != nil {
				return count, fmt.Errorf("import %s: %w", full, err)
			}
			count++
		case name == "index.md":
			// Handled while descending into the directory.
		case strings.HasSuffix(name, ".md"):
			doc, err := i.loadDoc(full, strings.TrimSuffix(name, ".md"))
			if err != nil {
				return count, err
			}
			if _, err := i.upsert(ctx, parentID, doc); err != nil {
				return count, fmt.Errorf("import %s: %w", full, err)
			}
			count++
		}
	}
	return count, nil
}

// loadDoc reads and parses one document. A directory without an index.md
// still gets a branch page, synthesized from the directory name.
func (i *TreeImporter) loadDoc(file, fallbackName string) (*document, error) {
	raw, err := fs.ReadFile(i.fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{
			slug:    pagesvc.Slugify(fallbackName),
			title:   humanize(fallbackName),
			typ:     pagetypes.TypePage,
			active:  true,
			payload: &pagetypes.ContentFields{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	meta, body := splitFrontMatter(raw)
	var fm frontMatter
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return nil, fmt.Errorf("parse front matter of %s: %w", file, err)
		}
	}

	doc := &document{
		slug:         fm.Slug,
		title:        fm.Title,
		typ:          fm.Type,
		position:     fm.Position,
		active:       true,
		translations: fm.Translations,
	}
	if doc.slug == "" {
		doc.slug = pagesvc.Slugify(fallbackName)
	}
	if doc.title == "" {
		doc.title = humanize(fallbackName)
	}
	if doc.typ == "" {
		doc.typ = pagetypes.TypePage
	}
	if fm.Active != nil {
		doc.active = *fm.Active
	}

	doc.payload, err = payloadFor(doc.typ, strings.TrimSpace(string(body)), fm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return doc, nil
}

// payloadFor maps a document onto the payload of its page type. The markdown
// body lands on the type's main text field.
func payloadFor(typeName, body string, fm frontMatter) (pagetype.Payload, error) {
	switch typeName {
	case pagetypes.TypePage:
		return &pagetypes.ContentFields{Body: body}, nil
	case pagetypes.TypeCategory:
		return &pagetypes.CategoryFields{Intro: body}, nil
	case pagetypes.TypePost:
		return &pagetypes.PostFields{Body: body, Excerpt: fm.Excerpt, PublishedAt: fm.Published}, nil
	default:
		return nil, fmt.Errorf("no payload mapping for page type %q", typeName)
	}
}

func (i *TreeImporter) upsert(ctx context.Context, parentID string, doc *document) (*domain.Page, error) {
	existing, err := i.findChild(ctx, parentID, doc.slug)
	if err != nil {
		return nil, err
	}

	var page domain.Page
	if existing != nil {
		entry, err := i.pages.Update(ctx, i.siteID, existing.ID, pagesvc.UpdateInput{
			Title:    &doc.title,
			Position: &doc.position,
			Active:   &doc.active,
			Payload:  doc.payload,
		})
		if err != nil {
			return nil, err
		}
		page = entry.Page
	} else {
		entry, err := i.pages.Create(ctx, pagesvc.CreateInput{
			SiteID:   i.siteID,
			Type:     doc.typ,
			ParentID: parentID,
			Slug:     doc.slug,
			Title:    doc.title,
			Position: doc.position,
			Active:   doc.active,
			Payload:  doc.payload,
		})
		if err != nil {
			return nil, err
		}
		page = entry.Page
	}

	for lang, values := range doc.translations {
		if err := i.pages.SetTranslations(ctx, i.siteID, page.ID, lang, values); err != nil {
			return nil, fmt.Errorf("translations (%s): %w", lang, err)
		}
	}
	return &page, nil
}

func (i *TreeImporter) findChild(ctx context.Context, parentID, slug string) (*domain.Page, error) {
	entries, err := i.pages.Children(ctx, i.siteID, parentID, "", pagerepo.ChildFilter{})
	if err != nil {
		return nil, err
	}
	for idx := range entries {
		if entries[idx].Page.Slug == slug {
			return &entries[idx].Page, nil
		}
	}
	return nil, nil
}

// splitFrontMatter cuts a leading --- fenced YAML block off the document.
// Without one, the whole input is body.
func splitFrontMatter(raw []byte) (meta, body []byte) {
	if !bytes.HasPrefix(raw, []byte("---\n")) {
		return nil, raw
	}
	rest := raw[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, raw
	}
	meta = rest[:end]
	after := rest[end+1:]
	if i := bytes.IndexByte(after, '\n'); i >= 0 {
		body = after[i+1:]
	}
	return meta, body
}

func humanize(name string) string {
	s := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(name, "-", " "), "_", " "))
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
