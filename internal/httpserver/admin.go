package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"arbor/internal/auth"
	"arbor/internal/domain"
	"arbor/internal/i18n"
	"arbor/internal/pagetype"
	pagerepo "arbor/internal/repository/page"
	pagesvc "arbor/internal/service/page"
)

type adminHandler struct {
	logger *log.Logger
	sites  siteRepo
	pages  pageService
	types  *pagetype.Registry
	auth   *auth.Service
	langs  *i18n.Languages
}

func newAdminHandler(logger *log.Logger, deps Deps) *adminHandler {
	return &adminHandler{
		logger: logger,
		sites:  deps.Sites,
		pages:  deps.Pages,
		types:  deps.Types,
		auth:   deps.Auth,
		langs:  deps.Langs,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type pageTypeResponse struct {
	Name      string   `json:"name"`
	Template  string   `json:"template"`
	Localized []string `json:"localized"`
}

// pageRequest carries create and update bodies. Pointer fields distinguish
// "absent" from zero values on update; fields stays raw until the page type
// tells us what to decode it into.
type pageRequest struct {
	Type     string          `json:"type"`
	ParentID string          `json:"parentId"`
	Slug     *string         `json:"slug"`
	Title    *string         `json:"title"`
	Position *int            `json:"position"`
	Active   *bool           `json:"active"`
	Fields   json.RawMessage `json:"fields"`
}

type moveRequest struct {
	ParentID string `json:"parentId"`
	Position int    `json:"position"`
}

type pageResponse struct {
	Page   domain.Page      `json:"page"`
	Fields pagetype.Payload `json:"fields"`
	Path   string           `json:"path,omitempty"`
}

type pageDetailResponse struct {
	pageResponse
	Translations map[string]map[string]string `json:"translations"`
}

func (h *adminHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	user, err := h.auth.Login(c, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
			return
		}
		h.logger.Printf("admin: login %q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

func (h *adminHandler) logout(c *gin.Context) {
	if err := h.auth.Logout(c); err != nil {
		h.logger.Printf("admin: logout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// listPageTypes exposes the registry so admin UIs scaffold one form per
// subtype without hardcoding any.
func (h *adminHandler) listPageTypes(c *gin.Context) {
	names := h.types.Names()
	out := make([]pageTypeResponse, 0, len(names))
	for _, name := range names {
		t, ok := h.types.Get(name)
		if !ok {
			continue
		}
		out = append(out, pageTypeResponse{
			Name:     t.Name,
			Template: t.Template,
			// Title accepts translations on every type.
			Localized: append([]string{"title"}, t.Localized...),
		})
	}
	c.JSON(http.StatusOK, gin.H{"pageTypes": out, "languages": h.langs.Supported(), "defaultLanguage": h.langs.Default()})
}

func (h *adminHandler) listSites(c *gin.Context) {
	sites, err := h.sites.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (h *adminHandler) pageTree(c *gin.Context) {
	site := siteFromContext(c)
	tree, err := h.pages.Tree(c.Request.Context(), site.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if tree == nil {
		tree = []*domain.PageNode{}
	}
	c.JSON(http.StatusOK, gin.H{"site": site.Key, "tree": tree})
}

func (h *adminHandler) createPage(c *gin.Context) {
	site := siteFromContext(c)
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	t, ok := h.types.Get(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown page type"})
		return
	}
	payload, err := decodeFields(t, req.Fields)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid fields"})
		return
	}
	in := pagesvc.CreateInput{
		SiteID:   site.ID,
		Type:     req.Type,
		ParentID: req.ParentID,
		Active:   true,
		Payload:  payload,
	}
	if req.Slug != nil {
		in.Slug = *req.Slug
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Position != nil {
		in.Position = *req.Position
	}
	if req.Active != nil {
		in.Active = *req.Active
	}
	entry, err := h.pages.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toPageResponse(c, entry))
}

func (h *adminHandler) getPage(c *gin.Context) {
	site := siteFromContext(c)
	entry, err := h.pages.PageByID(c.Request.Context(), site.ID, c.Param("id"), "")
	if err != nil {
		h.writeError(c, err)
		return
	}
	translations, err := h.pages.Translations(c.Request.Context(), site.ID, entry.Page.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if translations == nil {
		translations = map[string]map[string]string{}
	}
	c.JSON(http.StatusOK, pageDetailResponse{
		pageResponse: h.toPageResponse(c, entry),
		Translations: translations,
	})
}

func (h *adminHandler) updatePage(c *gin.Context) {
	site := siteFromContext(c)
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	current, err := h.pages.PageByID(c.Request.Context(), site.ID, c.Param("id"), "")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if req.Type != "" && req.Type != current.Page.Type {
		c.JSON(http.StatusBadRequest, gin.H{"message": "page type is immutable"})
		return
	}
	in := pagesvc.UpdateInput{
		Slug:     req.Slug,
		Title:    req.Title,
		Position: req.Position,
		Active:   req.Active,
	}
	if len(req.Fields) > 0 {
		t, ok := h.types.Get(current.Page.Type)
		if !ok {
			h.writeError(c, pagesvc.ErrUnknownType)
			return
		}
		payload, err := decodeFields(t, req.Fields)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid fields"})
			return
		}
		in.Payload = payload
	}
	entry, err := h.pages.Update(c.Request.Context(), site.ID, c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toPageResponse(c, entry))
}

func (h *adminHandler) deletePage(c *gin.Context) {
	site := siteFromContext(c)
	if err := h.pages.Delete(c.Request.Context(), site.ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *adminHandler) movePage(c *gin.Context) {
	site := siteFromContext(c)
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if err := h.pages.Move(c.Request.Context(), site.ID, c.Param("id"), req.ParentID, req.Position); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *adminHandler) putTranslations(c *gin.Context) {
	site := siteFromContext(c)
	lang := c.Param("lang")
	if !h.langs.IsSupported(lang) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported language"})
		return
	}
	if lang == h.langs.Default() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "default language values live on the page itself"})
		return
	}
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if err := h.pages.SetTranslations(c.Request.Context(), site.ID, c.Param("id"), lang, values); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func decodeFields(t pagetype.Type, raw json.RawMessage) (pagetype.Payload, error) {
	payload := t.NewPayload()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (h *adminHandler) toPageResponse(c *gin.Context, entry *pagerepo.Entry) pageResponse {
	resp := pageResponse{Page: entry.Page, Fields: entry.Payload}
	p, err := h.pages.Path(c.Request.Context(), &entry.Page)
	if err != nil {
		h.logger.Printf("admin: path of page %s: %v", entry.Page.ID, err)
		return resp
	}
	resp.Path = p
	return resp
}

func (h *adminHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"message": "slug already in use among siblings"})
	case errors.Is(err, pagesvc.ErrCycle):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, pagesvc.ErrUnknownType),
		errors.Is(err, pagesvc.ErrInvalidSlug),
		errors.Is(err, pagesvc.ErrInvalidInput),
		errors.Is(err, pagesvc.ErrNotLocalizable):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		h.logger.Printf("admin: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}
