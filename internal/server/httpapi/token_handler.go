package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/akarpovs/docsync/internal/server/services"
	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	svc         *services.TokenService
	redirectURI string
}

func NewTokenHandler(svc *services.TokenService, redirectURI string) *TokenHandler {
	return &TokenHandler{svc: svc, redirectURI: redirectURI}
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AccountID    string `json:"accountId,omitempty"`
	ExpiresAt    string `json:"expiresAt"`
}

func bundleResponse(r *services.TokenResult) tokenResponse {
	return tokenResponse{
		AccessToken:  r.Bundle.AccessToken,
		RefreshToken: r.Bundle.RefreshToken,
		AccountID:    r.Bundle.AccountID,
		ExpiresAt:    r.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// Refresh exchanges a refresh token for a fresh access token.
// Body: {refreshToken}.
func (h *TokenHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.RefreshToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	result, err := h.svc.Refresh(c.Request.Context(), UserIDFromContext(c), body.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundleResponse(result))
}

// Exchange performs the initial authorization-code grant after OAuth
// consent. Body: {code}.
func (h *TokenHandler) Exchange(c *gin.Context) {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result, err := h.svc.Exchange(c.Request.Context(), UserIDFromContext(c), body.Code, h.redirectURI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundleResponse(result))
}

// Revoke invalidates the token upstream and removes the local credential.
// Responds 200 even when the upstream revoke fails.
func (h *TokenHandler) Revoke(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	if err := h.svc.Revoke(c.Request.Context(), UserIDFromContext(c), body.Token); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
