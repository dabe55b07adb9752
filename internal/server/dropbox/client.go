// Package dropbox implements the remote storage gateway: file content
// operations and OAuth token lifecycle calls against the Dropbox HTTP API.
package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/akarpovs/docsync/internal/common"
)

// ClientOptions configures a Client. Zero values fall back to the production
// Dropbox endpoints and a conservative request timeout.
type ClientOptions struct {
	AppKey         string
	AppSecret      string
	AppFolder      string
	APIBaseURL     string
	ContentBaseURL string
	AuthBaseURL    string
	HTTPClient     *http.Client
}

// Client talks to the Dropbox API and content endpoints. All content calls
// take the caller's access token; the client itself holds only app-level
// credentials used for token grants.
type Client struct {
	appKey         string
	appSecret      string
	appFolder      string
	apiBaseURL     string
	contentBaseURL string
	authBaseURL    string
	httpClient     *http.Client
}

func NewClient(opts ClientOptions) *Client {
	apiBaseURL := strings.TrimRight(strings.TrimSpace(opts.APIBaseURL), "/")
	if apiBaseURL == "" {
		apiBaseURL = "https://api.dropboxapi.com"
	}
	contentBaseURL := strings.TrimRight(strings.TrimSpace(opts.ContentBaseURL), "/")
	if contentBaseURL == "" {
		contentBaseURL = "https://content.dropboxapi.com"
	}
	authBaseURL := strings.TrimRight(strings.TrimSpace(opts.AuthBaseURL), "/")
	if authBaseURL == "" {
		authBaseURL = apiBaseURL
	}
	appFolder := strings.TrimSpace(opts.AppFolder)
	if appFolder == "" {
		appFolder = "/Apps/docsync"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		appKey:         strings.TrimSpace(opts.AppKey),
		appSecret:      strings.TrimSpace(opts.AppSecret),
		appFolder:      appFolder,
		apiBaseURL:     apiBaseURL,
		contentBaseURL: contentBaseURL,
		authBaseURL:    authBaseURL,
		httpClient:     httpClient,
	}
}

// UpstreamError is a non-2xx response from the provider. The original status
// and body are retained for diagnostics. It matches common.ErrUpstream via
// errors.Is.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("dropbox %s: status %d: %s", e.Op, e.StatusCode, body)
}

func (e *UpstreamError) Unwrap() error { return common.ErrUpstream }

// UploadResult is the provider-confirmed location of an uploaded object.
// Path may differ from the requested path due to autorename.
type UploadResult struct {
	Path string
	Size int64
}

type uploadArg struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	Autorename bool   `json:"autorename"`
}

type uploadResponse struct {
	PathDisplay string `json:"path_display"`
	Size        int64  `json:"size"`
}

// Upload writes content to path in "add" mode with autorename. A non-2xx
// response yields an UpstreamError and the caller must not record a version
// or move the registry pointer.
func (c *Client) Upload(ctx context.Context, accessToken, path string, content io.Reader) (*UploadResult, error) {
	arg, err := json.Marshal(uploadArg{Path: path, Mode: "add", Autorename: true})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentBaseURL+"/2/files/upload", content)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Op: "upload", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{Op: "upload", StatusCode: resp.StatusCode, Body: string(body)}
	}
	if parsed.PathDisplay == "" {
		parsed.PathDisplay = path
	}
	return &UploadResult{Path: parsed.PathDisplay, Size: parsed.Size}, nil
}

// Download fetches the object at path. The returned ReadCloser streams the
// raw bytes; the caller must close it. Size is the provider-reported size
// (-1 when unknown). No partial content is returned on failure.
func (c *Client) Download(ctx context.Context, accessToken, path string) (io.ReadCloser, int64, error) {
	arg, err := json.Marshal(struct {
		Path string `json:"path"`
	}{Path: path})
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentBaseURL+"/2/files/download", nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, 0, &UpstreamError{Op: "download", StatusCode: resp.StatusCode, Body: string(body)}
	}

	size := resp.ContentLength
	if hdr := resp.Header.Get("Dropbox-API-Result"); hdr != "" {
		var meta struct {
			Size int64 `json:"size"`
		}
		if json.Unmarshal([]byte(hdr), &meta) == nil && meta.Size > 0 {
			size = meta.Size
		}
	}
	return resp.Body, size, nil
}

// Delete removes the object at path. Callers treat failures as best-effort:
// a local registry delete proceeds even when the remote delete fails.
func (c *Client) Delete(ctx context.Context, accessToken, path string) error {
	payload, err := json.Marshal(struct {
		Path string `json:"path"`
	}{Path: path})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/2/files/delete_v2", strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{Op: "delete", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Revoke invalidates accessToken at the provider. Best-effort for callers:
// the local credential row is removed regardless of the outcome here.
func (c *Client) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/2/auth/token/revoke", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{Op: "revoke", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// TokenBundle is the result of a token grant.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshToken exchanges refreshToken for a fresh access token. When the
// provider omits a refresh token in the response, the input token is carried
// over. A grant the provider reports as invalid or expired yields
// common.ErrReauthRequired; any other failure is an UpstreamError.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenBundle, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	bundle, err := c.tokenGrant(ctx, form)
	if err != nil {
		return nil, err
	}
	if bundle.RefreshToken == "" {
		bundle.RefreshToken = refreshToken
	}
	return bundle, nil
}

// ExchangeCode performs the initial authorization-code grant after OAuth
// consent. redirectURI must match the one used in the consent request.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenBundle, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	return c.tokenGrant(ctx, form)
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) tokenGrant(ctx context.Context, form url.Values) (*TokenBundle, error) {
	if c.appKey == "" || c.appSecret == "" {
		return nil, common.ErrConfigMissing
	}
	form.Set("client_id", c.appKey)
	form.Set("client_secret", c.appSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp tokenErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			switch errResp.Error {
			case "invalid_grant", "expired_token":
				return nil, fmt.Errorf("%w: %s", common.ErrReauthRequired, errResp.ErrorDescription)
			}
		}
		return nil, &UpstreamError{Op: "token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var bundle TokenBundle
	if err := json.Unmarshal(body, &bundle); err != nil || bundle.AccessToken == "" {
		return nil, &UpstreamError{Op: "token", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &bundle, nil
}

// UploadPath builds the deterministic destination for a new object:
// /<app-folder>/<stamp>_<filename>, where stamp is the upload time in
// RFC 3339 with ':' and '.' replaced to stay filesystem-safe.
func (c *Client) UploadPath(filename string, now time.Time) string {
	stamp := now.UTC().Format(time.RFC3339Nano)
	stamp = strings.ReplaceAll(stamp, ":", "-")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return c.appFolder + "/" + stamp + "_" + filename
}

// VersionFileName rewrites name to <base>_v<n>.<ext> for version uploads.
// Names without an extension get the suffix appended.
func VersionFileName(name string, n int64) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name + "_v" + strconv.FormatInt(n, 10)
	}
	return name[:idx] + "_v" + strconv.FormatInt(n, 10) + name[idx:]
}
