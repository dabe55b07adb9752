package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/logging"
	"github.com/akarpovs/docsync/internal/server/dropbox"
	"github.com/akarpovs/docsync/internal/server/models"
	"github.com/akarpovs/docsync/internal/server/repositories/repomanager"
)

// accessTokenLeeway is subtracted from the stored expiry so we never hand out
// a token that expires mid-upload.
const accessTokenLeeway = time.Minute

// ProviderAuthClient is the subset of the storage provider's OAuth surface
// the token service needs.
type ProviderAuthClient interface {
	RefreshToken(ctx context.Context, refreshToken string) (*dropbox.TokenBundle, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (*dropbox.TokenBundle, error)
	Revoke(ctx context.Context, accessToken string) error
}

// TokenService manages the per-user provider credential: initial exchange,
// refresh, revoke, and handing valid access tokens to the document service.
type TokenService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	provider ProviderAuthClient
	logger   logging.Logger
	now      func() time.Time
}

func NewTokenService(db *sql.DB, repos repomanager.RepositoryManager, provider ProviderAuthClient, logger logging.Logger) *TokenService {
	return &TokenService{
		db:       db,
		repos:    repos,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// TokenResult carries the outcome of a token grant. PersistErr is non-nil
// when the exchange succeeded but the credential row could not be written;
// the bundle is still returned so a successfully obtained token is never
// silently lost.
type TokenResult struct {
	Bundle     *dropbox.TokenBundle
	ExpiresAt  time.Time
	PersistErr error
}

// Refresh exchanges refreshToken for a fresh access token and upserts the
// user's credential row. Provider-reported invalid/expired grants surface as
// common.ErrReauthRequired and nothing is persisted.
func (s *TokenService) Refresh(ctx context.Context, userID, refreshToken string) (*TokenResult, error) {
	bundle, err := s.provider.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, bundle), nil
}

// Exchange performs the initial authorization-code grant after OAuth consent
// and persists the resulting credential.
func (s *TokenService) Exchange(ctx context.Context, userID, code, redirectURI string) (*TokenResult, error) {
	bundle, err := s.provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, userID, bundle), nil
}

func (s *TokenService) persist(ctx context.Context, userID string, bundle *dropbox.TokenBundle) *TokenResult {
	expiresAt := s.now().Add(time.Duration(bundle.ExpiresIn) * time.Second)
	result := &TokenResult{Bundle: bundle, ExpiresAt: expiresAt}

	err := s.repos.Credentials(s.db).Upsert(ctx, &models.DropboxCredential{
		UserID:       userID,
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
		AccountID:    bundle.AccountID,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		// The exchange itself succeeded; make the persistence failure loud
		// without dropping the fresh token from the response.
		result.PersistErr = fmt.Errorf("credential persistence failed: %w", err)
		s.logger.Error(ctx, "token exchanged but not persisted", "user_id", userID, "error", err.Error())
	}
	return result
}

// Revoke invalidates the token upstream (best-effort) and always removes the
// local credential row, so local state never believes a remote session is
// still alive.
func (s *TokenService) Revoke(ctx context.Context, userID, accessToken string) error {
	if err := s.provider.Revoke(ctx, accessToken); err != nil {
		s.logger.Warn(ctx, "upstream token revoke failed", "user_id", userID, "error", err.Error())
	}
	return s.repos.Credentials(s.db).DeleteByUser(ctx, userID)
}

// AccessToken returns a currently valid access token for userID, refreshing
// through the provider when the stored one is expired. A user without a
// credential row gets common.ErrStorageNotConnected.
func (s *TokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := s.repos.Credentials(s.db).GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrStorageNotConnected
		}
		return "", err
	}

	if !cred.Expired(s.now(), accessTokenLeeway) {
		return cred.AccessToken, nil
	}

	result, err := s.Refresh(ctx, userID, cred.RefreshToken)
	if err != nil {
		return "", err
	}
	return result.Bundle.AccessToken, nil
}
