// Package httpapi wires the HTTP surface of the docsync server: gin router,
// session auth middleware and the handlers over the service layer.
package httpapi

import (
	"net/http"

	"github.com/akarpovs/docsync/internal/logging"
	"github.com/akarpovs/docsync/internal/server/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups the handler set mounted by NewRouter.
type Handlers struct {
	Documents *DocumentHandler
	Tokens    *TokenHandler
	Projects  *ProjectHandler
	OAuth     *OAuthCallback
}

func NewRouter(cfg *config.Config, logger logging.Logger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The provider redirects here after consent; no session yet.
	r.GET("/oauth/callback", h.OAuth.Handle)

	v1 := r.Group("/api/v1")
	v1.Use(Auth([]byte(cfg.SessionSecret)))
	{
		v1.POST("/documents/upload", h.Documents.Upload)
		v1.POST("/documents/version", h.Documents.UploadVersion)
		v1.GET("/documents", h.Documents.List)
		v1.GET("/documents/versions", h.Documents.ListVersions)
		v1.GET("/documents/version", h.Documents.Download)
		v1.PUT("/documents/:id", h.Documents.Update)
		v1.DELETE("/documents/delete", h.Documents.Delete)

		v1.GET("/projects", h.Projects.List)
		v1.POST("/projects", h.Projects.Create)
		v1.PUT("/projects/:id", h.Projects.Update)
		v1.DELETE("/projects/:id", h.Projects.Delete)

		v1.POST("/auth/token/refresh", h.Tokens.Refresh)
		v1.POST("/auth/token/exchange", h.Tokens.Exchange)
		v1.POST("/auth/token/revoke", h.Tokens.Revoke)
	}
	return r
}
