package httpapi

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// OAuthCallback receives the provider's consent redirect and forwards
// code/state/error, unmodified, to the application's token-exchange page.
// The provider can only redirect to a pre-registered server URL, so this
// hop bridges into the SPA.
type OAuthCallback struct {
	redirectPath string
}

func NewOAuthCallback(redirectPath string) *OAuthCallback {
	return &OAuthCallback{redirectPath: redirectPath}
}

func (h *OAuthCallback) Handle(c *gin.Context) {
	q := url.Values{}
	if v := c.Query("error"); v != "" {
		q.Set("error", v)
		if d := c.Query("error_description"); d != "" {
			q.Set("error_description", d)
		}
		c.Redirect(http.StatusFound, h.redirectPath+"?"+q.Encode())
		return
	}

	if v := c.Query("code"); v != "" {
		q.Set("code", v)
	}
	if v := c.Query("state"); v != "" {
		q.Set("state", v)
	}

	target := h.redirectPath
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusFound, target)
}
