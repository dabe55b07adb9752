package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/akarpovs/docsync/internal/server/services"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	svc *services.DocumentService
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload handles the initial upload of a new document. Multipart form:
// file (required), projectId, description.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := UserIDFromContext(c)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer f.Close()

	doc, err := h.svc.UploadNew(c.Request.Context(), userID, services.UploadInput{
		FileName:    fh.Filename,
		MimeType:    fh.Header.Get("Content-Type"),
		Description: strings.TrimSpace(c.PostForm("description")),
		ProjectID:   strings.TrimSpace(c.PostForm("projectId")),
		Content:     f,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UploadVersion appends new content to an existing document. Multipart form:
// file, documentId.
func (h *DocumentHandler) UploadVersion(c *gin.Context) {
	userID := UserIDFromContext(c)

	documentID := strings.TrimSpace(c.PostForm("documentId"))
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentId is required"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer f.Close()

	v, err := h.svc.UploadVersion(c.Request.Context(), userID, documentID, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": v, "versionNumber": v.VersionNumber})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ListVersions returns the version history plus recent sync-log entries.
// Query: id.
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	documentID := strings.TrimSpace(c.Query("id"))
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	listing, err := h.svc.ListVersions(c.Request.Context(), UserIDFromContext(c), documentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Download streams the content of one version. Query: id, version
// (omitted or 0 selects the latest).
func (h *DocumentHandler) Download(c *gin.Context) {
	documentID := strings.TrimSpace(c.Query("id"))
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	var number int64
	if raw := strings.TrimSpace(c.Query("version")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version"})
			return
		}
		number = n
	}

	res, err := h.svc.Download(c.Request.Context(), UserIDFromContext(c), documentID, number)
	if err != nil {
		writeError(c, err)
		return
	}
	defer res.Content.Close()

	mimeType := res.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name))
	c.DataFromReader(http.StatusOK, res.Size, mimeType, res.Content, nil)
}

// Update edits name, description and project tags. Path param: id.
func (h *DocumentHandler) Update(c *gin.Context) {
	var body struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		ProjectIDs  []string `json:"projectIds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	doc, err := h.svc.UpdateMetadata(c.Request.Context(), UserIDFromContext(c), c.Param("id"),
		body.Name, body.Description, body.ProjectIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Delete removes a document and everything hanging off it. Query: id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID := strings.TrimSpace(c.Query("id"))
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), UserIDFromContext(c), documentID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
