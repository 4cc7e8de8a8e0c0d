package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbor/internal/auth"
	"arbor/internal/domain"
	"arbor/internal/i18n"
	"arbor/internal/pagetype"
	"arbor/internal/render"
	pagerepo "arbor/internal/repository/page"
	pagesvc "arbor/internal/service/page"
)

type siteRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Site, error)
	GetByHost(ctx context.Context, host string) (*domain.Site, error)
	List(ctx context.Context) ([]domain.Site, error)
}

type pageService interface {
	Resolve(ctx context.Context, siteID, urlPath, lang string) (*pagerepo.Entry, error)
	Path(ctx context.Context, p *domain.Page) (string, error)
	PageByID(ctx context.Context, siteID, id, lang string) (*pagerepo.Entry, error)
	Children(ctx context.Context, siteID, parentID, lang string, f pagerepo.ChildFilter) ([]pagerepo.Entry, error)
	Tree(ctx context.Context, siteID string) ([]*domain.PageNode, error)
	Create(ctx context.Context, in pagesvc.CreateInput) (*pagerepo.Entry, error)
	Update(ctx context.Context, siteID, id string, in pagesvc.UpdateInput) (*pagerepo.Entry, error)
	Move(ctx context.Context, siteID, id, newParentID string, position int) error
	Delete(ctx context.Context, siteID, id string) error
	Translations(ctx context.Context, siteID, id string) (map[string]map[string]string, error)
	SetTranslations(ctx context.Context, siteID, id, lang string, values map[string]string) error
}

// Deps bundles everything the router serves with.
type Deps struct {
	Sites     siteRepo
	Pages     pageService
	Types     *pagetype.Registry
	Auth      *auth.Service
	Templates *render.Templates
	Langs     *i18n.Languages
	// DefaultSite is the site key served when no site claims the request
	// host. Empty means unmatched hosts get a 404.
	DefaultSite string
	// CORSOrigins enables cross-origin admin access for the listed origins.
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Sites == nil:
		return errors.New("httpserver: nil site repository")
	case d.Pages == nil:
		return errors.New("httpserver: nil page service")
	case d.Types == nil:
		return errors.New("httpserver: nil page type registry")
	case d.Auth == nil:
		return errors.New("httpserver: nil auth service")
	case d.Templates == nil:
		return errors.New("httpserver: nil templates")
	case d.Langs == nil:
		return errors.New("httpserver: nil language set")
	}
	return nil
}

// buildRouter wires health endpoints, the admin API and the page fallback
// chain.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware(), gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	ah := newAdminHandler(logger, deps)
	admin := router.Group("/admin")
	if len(deps.CORSOrigins) > 0 {
		admin.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
		}))
	}
	admin.POST("/login", ah.login)
	admin.POST("/logout", ah.logout)

	api := admin.Group("/api", deps.Auth.Middleware())
	api.GET("/page-types", ah.listPageTypes)
	api.GET("/sites", ah.listSites)

	pages := api.Group("/pages", adminSiteMiddleware(deps.Sites))
	pages.GET("", ah.pageTree)
	pages.POST("", ah.createPage)
	pages.GET("/:id", ah.getPage)
	pages.PUT("/:id", ah.updatePage)
	pages.DELETE("/:id", ah.deletePage)
	pages.PUT("/:id/move", ah.movePage)
	pages.PUT("/:id/translations/:lang", ah.putTranslations)

	ph := newPageHandler(logger, deps)
	router.NoRoute(siteByHost(deps.Sites, deps.DefaultSite), ph.serve)

	return router, nil
}

const requestIDHeader = "X-Request-ID"

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
