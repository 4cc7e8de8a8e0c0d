package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"arbor/internal/domain"
	"arbor/internal/i18n"
	"arbor/internal/pagetype"
	"arbor/internal/render"
	pagerepo "arbor/internal/repository/page"
)

const notFoundTemplate = "404.html"

// matcher is one step of the page fallback chain. handled means a response
// was written; a pass hands the request to the next matcher.
type matcher func(c *gin.Context, site *domain.Site) (handled bool, err error)

type pageHandler struct {
	logger    *log.Logger
	pages     pageService
	types     *pagetype.Registry
	templates *render.Templates
	langs     *i18n.Languages
	matchers  []matcher
}

func newPageHandler(logger *log.Logger, deps Deps) *pageHandler {
	h := &pageHandler{
		logger:    logger,
		pages:     deps.Pages,
		types:     deps.Types,
		templates: deps.Templates,
		langs:     deps.Langs,
	}
	h.matchers = []matcher{h.redirectLanguage, h.matchPage, h.renderNotFound}
	return h
}

// serve is the catch-all behind every explicit route. Matchers run in order
// until one handles the request; the not-found renderer at the end always
// does.
func (h *pageHandler) serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusMethodNotAllowed)
		return
	}
	site := siteFromContext(c)
	if site == nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	for _, m := range h.matchers {
		handled, err := m(c, site)
		if err != nil {
			h.logger.Printf("pages: serve %s: %v", c.Request.URL.Path, err)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
		if handled {
			return
		}
	}
	c.String(http.StatusNotFound, "404 page not found")
}

// redirectLanguage normalizes the path and its language prefix. It handles
// the request only when a redirect is due: dirty paths to their clean form,
// a prefixed default language to the unprefixed form, and in prefix-default
// mode any unprefixed request to the language matching its Accept-Language.
func (h *pageHandler) redirectLanguage(c *gin.Context, _ *domain.Site) (bool, error) {
	raw := c.Request.URL.Path
	p := path.Clean(raw)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	lang, rest, ok := h.langs.SplitPath(p)
	switch {
	case !ok && h.langs.PrefixDefault():
		lang = h.langs.Match(c.GetHeader("Accept-Language"))
		h.redirect(c, http.StatusFound, h.langs.PathFor(lang, rest))
		return true, nil
	case !ok:
		lang = h.langs.Default()
	case lang == h.langs.Default() && !h.langs.PrefixDefault():
		h.redirect(c, http.StatusMovedPermanently, rest)
		return true, nil
	}
	if canonical := h.langs.PathFor(lang, rest); canonical != raw {
		h.redirect(c, http.StatusMovedPermanently, canonical)
		return true, nil
	}
	return false, nil
}

func (h *pageHandler) redirect(c *gin.Context, code int, target string) {
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(code, target)
}

// matchPage resolves the path to a page and renders it. A resolution miss is
// a pass, not a failure; later matchers take over.
func (h *pageHandler) matchPage(c *gin.Context, site *domain.Site) (bool, error) {
	lang, rest := h.requestLang(c)
	ctx := c.Request.Context()
	entry, err := h.pages.Resolve(ctx, site.ID, rest, lang)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t, ok := h.types.Get(entry.Page.Type)
	if !ok {
		return false, fmt.Errorf("page type %q not registered", entry.Page.Type)
	}
	nav, err := h.navigation(ctx, site.ID, lang)
	if err != nil {
		return false, err
	}
	req := pagetype.Request{
		Site:    *site,
		Page:    &entry.Page,
		Payload: entry.Payload,
		Lang:    lang,
		Path:    c.Request.URL.Path,
		Query:   c.Request.URL.Query(),
		Nav:     nav,
	}
	tc := pagetype.BaseContext(req)
	if t.Context != nil {
		if err := t.Context(ctx, req, tc); err != nil {
			return false, fmt.Errorf("%s context: %w", t.Name, err)
		}
	}
	// Rendered into a buffer so a template failure becomes a clean 500
	// instead of a half-written page.
	var buf bytes.Buffer
	if err := h.templates.Execute(&buf, t.Template, tc); err != nil {
		return false, fmt.Errorf("render %s: %w", t.Template, err)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return true, nil
}

// renderNotFound is the chain's last matcher and always handles.
func (h *pageHandler) renderNotFound(c *gin.Context, site *domain.Site) (bool, error) {
	lang, _ := h.requestLang(c)
	if h.templates.Has(notFoundTemplate) {
		tc := pagetype.Context{
			"site": *site,
			"lang": lang,
			"path": c.Request.URL.Path,
		}
		var buf bytes.Buffer
		if err := h.templates.Execute(&buf, notFoundTemplate, tc); err != nil {
			h.logger.Printf("pages: render %s: %v", notFoundTemplate, err)
		} else {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8", buf.Bytes())
			return true, nil
		}
	}
	c.String(http.StatusNotFound, "404 page not found")
	return true, nil
}

func (h *pageHandler) requestLang(c *gin.Context) (string, string) {
	p := path.Clean(c.Request.URL.Path)
	lang, rest, ok := h.langs.SplitPath(p)
	if !ok {
		return h.langs.Default(), rest
	}
	return lang, rest
}

// navigation lists the site's active root pages; every template renders the
// same top nav.
func (h *pageHandler) navigation(ctx context.Context, siteID, lang string) ([]pagetype.NavItem, error) {
	roots, err := h.pages.Children(ctx, siteID, "", lang, pagerepo.ChildFilter{OnlyActive: true})
	if err != nil {
		return nil, err
	}
	nav := make([]pagetype.NavItem, 0, len(roots))
	for _, e := range roots {
		p := "/"
		if e.Page.Slug != "" {
			p = "/" + e.Page.Slug
		}
		nav = append(nav, pagetype.NavItem{Title: e.Page.Title, URL: h.langs.PathFor(lang, p)})
	}
	return nav, nil
}
