package dropbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(api, content, auth string) *Client {
	return NewClient(ClientOptions{
		AppKey:         "key",
		AppSecret:      "secret",
		AppFolder:      "/Apps/docsync",
		APIBaseURL:     api,
		ContentBaseURL: content,
		AuthBaseURL:    auth,
	})
}

func TestUpload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/upload", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		var arg uploadArg
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))
		assert.Equal(t, "add", arg.Mode)
		assert.True(t, arg.Autorename)

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "hello", string(body))

		json.NewEncoder(w).Encode(uploadResponse{PathDisplay: arg.Path + " (1)", Size: 5})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	res, err := c.Upload(context.Background(), "tok", "/Apps/docsync/x.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/Apps/docsync/x.txt (1)", res.Path, "autorenamed path is returned as confirmed")
	assert.Equal(t, int64(5), res.Size)
}

func TestUpload_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_summary": "path/conflict"}`, http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	_, err := c.Upload(context.Background(), "tok", "/x", strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusConflict, ue.StatusCode)
	assert.Contains(t, ue.Body, "path/conflict")
}

func TestDownload_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/download", r.URL.Path)
		w.Header().Set("Dropbox-API-Result", `{"size": 11}`)
		io.WriteString(w, "file content")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	rc, size, err := c.Download(context.Background(), "tok", "/x")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "file content", string(data))
	assert.Equal(t, int64(11), size)
}

func TestDownload_Non2xxNoPartialContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	rc, _, err := c.Download(context.Background(), "tok", "/missing")
	require.Error(t, err)
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestDelete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/delete_v2", r.URL.Path)
		var arg struct {
			Path string `json:"path"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&arg))
		assert.Equal(t, "/x", arg.Path)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	require.NoError(t, c.Delete(context.Background(), "tok", "/x"))
}

func TestRevoke_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	err := c.Revoke(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestRefreshToken_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-1", r.Form.Get("refresh_token"))
		assert.Equal(t, "key", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-2",
			"account_id":   "acct",
			"expires_in":   14400,
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	bundle, err := c.RefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", bundle.AccessToken)
	assert.Equal(t, "rt-1", bundle.RefreshToken, "falls back to the input refresh token")
	assert.Equal(t, int64(14400), bundle.ExpiresIn)
}

func TestRefreshToken_InvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(tokenErrorResponse{Error: "invalid_grant", ErrorDescription: "refresh token revoked"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	_, err := c.RefreshToken(context.Background(), "rt-1")
	assert.ErrorIs(t, err, common.ErrReauthRequired)
}

func TestRefreshToken_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>gateway timeout</html>")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL, srv.URL)
	_, err := c.RefreshToken(context.Background(), "rt-1")
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestTokenGrant_MissingAppCredentials(t *testing.T) {
	c := NewClient(ClientOptions{})
	_, err := c.RefreshToken(context.Background(), "rt-1")
	assert.ErrorIs(t, err, common.ErrConfigMissing, "fails before any network call")
}

func TestUploadPath_FilesystemSafeStamp(t *testing.T) {
	c := newTestClient("", "", "")
	now := time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)

	path := c.UploadPath("report.pdf", now)
	assert.True(t, strings.HasPrefix(path, "/Apps/docsync/"))
	assert.True(t, strings.HasSuffix(path, "_report.pdf"))
	assert.NotContains(t, path[len("/Apps/docsync/"):strings.LastIndex(path, "_")], ":")
}

func TestVersionFileName(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"report.pdf", 2, "report_v2.pdf"},
		{"archive.tar.gz", 3, "archive.tar_v3.gz"},
		{"README", 4, "README_v4"},
		{".env", 1, ".env_v1"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, VersionFileName(tc.name, tc.n))
	}
}
