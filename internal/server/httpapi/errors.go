package httpapi

import (
	"errors"
	"net/http"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps service-layer sentinels onto the API error contract.
// Every error body is a JSON object with an "error" string.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrStorageNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage not connected"})
	case errors.Is(err, common.ErrReauthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "reauthorization required", "requires_reauth": true})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, common.ErrConfigMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage provider not configured"})
	case errors.Is(err, common.ErrUpstream):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage provider request failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
