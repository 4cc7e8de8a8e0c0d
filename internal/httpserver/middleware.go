package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"arbor/internal/domain"
)

type ctxKey string

const siteCtxKey ctxKey = "site"

// siteByHost scopes public requests to the site owning the request host. A
// host nobody claims falls back to defaultSite when one is configured.
func siteByHost(sites siteRepo, defaultSite string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		site, err := sites.GetByHost(c.Request.Context(), host)
		if errors.Is(err, domain.ErrNotFound) && defaultSite != "" {
			site, err = sites.GetByKey(c.Request.Context(), defaultSite)
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.String(http.StatusNotFound, "unknown site")
			} else {
				c.String(http.StatusInternalServerError, "internal error")
			}
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), siteCtxKey, site))
		c.Next()
	}
}

// adminSiteMiddleware resolves the required ?site= query parameter on admin
// page routes.
func adminSiteMiddleware(sites siteRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("site")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "site query parameter required"})
			return
		}
		site, err := sites.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "unknown site"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			}
			return
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), siteCtxKey, site))
		c.Next()
	}
}

func siteFromContext(c *gin.Context) *domain.Site {
	site, _ := c.Request.Context().Value(siteCtxKey).(*domain.Site)
	return site
}
