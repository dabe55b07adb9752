package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/logging"
	"github.com/akarpovs/docsync/internal/server/auth"
	"github.com/akarpovs/docsync/internal/server/config"
	"github.com/akarpovs/docsync/internal/server/dropbox"
	"github.com/akarpovs/docsync/internal/server/models"
	"github.com/akarpovs/docsync/internal/server/repositories/inmemory"
	"github.com/akarpovs/docsync/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubGateway struct {
	uploadErr    error
	downloadBody string
}

func (g *stubGateway) Upload(ctx context.Context, accessToken, path string, content io.Reader) (*dropbox.UploadResult, error) {
	if g.uploadErr != nil {
		return nil, g.uploadErr
	}
	data, _ := io.ReadAll(content)
	return &dropbox.UploadResult{Path: path, Size: int64(len(data))}, nil
}

func (g *stubGateway) Download(ctx context.Context, accessToken, path string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader(g.downloadBody)), int64(len(g.downloadBody)), nil
}

func (g *stubGateway) Delete(ctx context.Context, accessToken, path string) error { return nil }

func (g *stubGateway) UploadPath(filename string, now time.Time) string {
	return "/Apps/docsync/" + filename
}

type stubProvider struct {
	refreshBundle *dropbox.TokenBundle
	refreshErr    error
	revokeErr     error
}

func (p *stubProvider) RefreshToken(ctx context.Context, refreshToken string) (*dropbox.TokenBundle, error) {
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.refreshBundle, nil
}

func (p *stubProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*dropbox.TokenBundle, error) {
	return p.RefreshToken(ctx, code)
}

func (p *stubProvider) Revoke(ctx context.Context, accessToken string) error { return p.revokeErr }

type env struct {
	router   http.Handler
	repos    *inmemory.Manager
	gateway  *stubGateway
	provider *stubProvider
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := inmemory.NewManager(nil)
	gateway := &stubGateway{}
	provider := &stubProvider{refreshBundle: &dropbox.TokenBundle{
		AccessToken: "at-new", RefreshToken: "rt-new", ExpiresIn: 14400,
	}}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tokens := services.NewTokenService(nil, repos, provider, logger)
	docs := services.NewDocumentService(nil, repos, gateway, tokens, logger)
	projects := services.NewProjectService(nil, repos)

	cfg := &config.Config{SessionSecret: testSecret, OAuthRedirectPath: "/settings/storage"}
	router := NewRouter(cfg, logger, Handlers{
		Documents: NewDocumentHandler(docs),
		Tokens:    NewTokenHandler(tokens, "http://localhost:8080/oauth/callback"),
		Projects:  NewProjectHandler(projects),
		OAuth:     NewOAuthCallback(cfg.OAuthRedirectPath),
	})
	return &env{router: router, repos: repos, gateway: gateway, provider: provider}
}

func (e *env) connectStorage(t *testing.T, userID string) {
	t.Helper()
	err := e.repos.Credentials(nil).Upsert(context.Background(), &models.DropboxCredential{
		UserID: userID, AccessToken: "at", RefreshToken: "rt", ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *env) do(t *testing.T, method, target, userID string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if userID != "" {
		req.Header.Set("Authorization", bearerToken(t, userID))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func multipartFile(t *testing.T, fields map[string]string, fileField, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/documents", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	e := newEnv(t)
	e.connectStorage(t, "u1")
	e.gateway.downloadBody = "hello world"

	body, ct := multipartFile(t, map[string]string{"description": "quarterly"}, "file", "report.pdf", "pdf-bytes")
	rec := e.do(t, http.MethodPost, "/api/v1/documents/upload", "u1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc models.Document
	decode(t, rec, &doc)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.True(t, doc.IsSynced)

	body, ct = multipartFile(t, map[string]string{"documentId": doc.ID}, "file", "report.pdf", "second revision")
	rec = e.do(t, http.MethodPost, "/api/v1/documents/version", "u1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var versionResp struct {
		VersionNumber int64 `json:"versionNumber"`
	}
	decode(t, rec, &versionResp)
	assert.Equal(t, int64(2), versionResp.VersionNumber)

	rec = e.do(t, http.MethodGet, "/api/v1/documents/versions?id="+doc.ID, "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Versions []json.RawMessage `json:"versions"`
		SyncLog  []json.RawMessage `json:"syncLog"`
	}
	decode(t, rec, &listing)
	assert.Len(t, listing.Versions, 2)
	assert.NotEmpty(t, listing.SyncLog)

	rec = e.do(t, http.MethodGet, "/api/v1/documents/version?id="+doc.ID, "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="report.pdf"`)
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))

	rec = e.do(t, http.MethodPut, "/api/v1/documents/"+doc.ID, "u1",
		strings.NewReader(`{"name":"renamed.pdf","description":"updated"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Document
	decode(t, rec, &updated)
	assert.Equal(t, "renamed.pdf", updated.Name)

	rec = e.do(t, http.MethodDelete, "/api/v1/documents/delete?id="+doc.ID, "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/documents/versions?id="+doc.ID, "u1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	e := newEnv(t)
	e.connectStorage(t, "u1")

	rec := e.do(t, http.MethodPost, "/api/v1/documents/upload", "u1",
		strings.NewReader(""), "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadStorageNotConnected(t *testing.T) {
	e := newEnv(t)

	body, ct := multipartFile(t, nil, "file", "a.txt", "x")
	rec := e.do(t, http.MethodPost, "/api/v1/documents/upload", "u1", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage not connected")
}

func TestUploadUpstreamFailure(t *testing.T) {
	e := newEnv(t)
	e.connectStorage(t, "u1")
	e.gateway.uploadErr = &dropbox.UpstreamError{Op: "upload", StatusCode: 503, Body: "maintenance"}

	body, ct := multipartFile(t, nil, "file", "a.txt", "x")
	rec := e.do(t, http.MethodPost, "/api/v1/documents/upload", "u1", body, ct)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDocumentOwnershipIsolation(t *testing.T) {
	e := newEnv(t)
	e.connectStorage(t, "u1")

	body, ct := multipartFile(t, nil, "file", "a.txt", "x")
	rec := e.do(t, http.MethodPost, "/api/v1/documents/upload", "u1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.Document
	decode(t, rec, &doc)

	rec = e.do(t, http.MethodDelete, "/api/v1/documents/delete?id="+doc.ID, "u2", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/documents", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Documents []json.RawMessage `json:"documents"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Documents, 1)
}

func TestTokenRefresh(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/auth/token/refresh", "u1",
		strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/auth/token/refresh", "u1",
		strings.NewReader(`{"refreshToken":"rt-old"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp tokenResponse
	decode(t, rec, &resp)
	assert.Equal(t, "at-new", resp.AccessToken)
	assert.Equal(t, "rt-new", resp.RefreshToken)

	cred, err := e.repos.Credentials(nil).GetByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "at-new", cred.AccessToken)
}

func TestTokenRefreshRequiresReauth(t *testing.T) {
	e := newEnv(t)
	e.provider.refreshErr = common.ErrReauthRequired

	rec := e.do(t, http.MethodPost, "/api/v1/auth/token/refresh", "u1",
		strings.NewReader(`{"refreshToken":"rt-dead"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		RequiresReauth bool `json:"requires_reauth"`
	}
	decode(t, rec, &resp)
	assert.True(t, resp.RequiresReauth)

	_, err := e.repos.Credentials(nil).GetByUser(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound, "no partial credential row")
}

func TestTokenRevokeSurvivesUpstreamFailure(t *testing.T) {
	e := newEnv(t)
	e.connectStorage(t, "u1")
	e.provider.revokeErr = errors.New("upstream 500")

	rec := e.do(t, http.MethodPost, "/api/v1/auth/token/revoke", "u1",
		strings.NewReader(`{"token":"at"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	_, err := e.repos.Credentials(nil).GetByUser(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProjectCRUD(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/projects", "u1",
		strings.NewReader(`{"name":"Work","color":"#ff0000"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var project models.Project
	decode(t, rec, &project)
	require.NotEmpty(t, project.ID)

	rec = e.do(t, http.MethodPut, "/api/v1/projects/"+project.ID, "u1",
		strings.NewReader(`{"name":"Archive"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/projects", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Archive")

	rec = e.do(t, http.MethodGet, "/api/v1/projects", "u2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Archive")

	rec = e.do(t, http.MethodDelete, "/api/v1/projects/"+project.ID, "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/v1/projects/"+project.ID, "u1",
		strings.NewReader(`{"name":"Again"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOAuthCallbackForwarding(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/oauth/callback?code=abc&state=xyz", "", nil, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/settings/storage?code=abc&state=xyz", rec.Header().Get("Location"))

	rec = e.do(t, http.MethodGet, "/oauth/callback?error=access_denied&code=abc", "", nil, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/settings/storage?error=access_denied", rec.Header().Get("Location"))
}
