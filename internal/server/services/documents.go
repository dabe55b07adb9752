package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/dbx"
	"github.com/akarpovs/docsync/internal/logging"
	"github.com/akarpovs/docsync/internal/server/dropbox"
	"github.com/akarpovs/docsync/internal/server/models"
	"github.com/akarpovs/docsync/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// versionInsertAttempts bounds the retry loop closing the version-number
// race: a loser of the unique-constraint race re-reads max and tries again.
const versionInsertAttempts = 3

const recentSyncLogLimit = 10

// FileGateway is the subset of the storage provider's content surface the
// document service needs.
type FileGateway interface {
	Upload(ctx context.Context, accessToken, path string, content io.Reader) (*dropbox.UploadResult, error)
	Download(ctx context.Context, accessToken, path string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, accessToken, path string) error
	UploadPath(filename string, now time.Time) string
}

// DocumentService orchestrates the sync workflow: registry, version ledger,
// remote gateway, sync log.
type DocumentService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	gateway FileGateway
	tokens  *TokenService
	effects *EffectRunner
	logger  logging.Logger
	now     func() time.Time
}

func NewDocumentService(db *sql.DB, repos repomanager.RepositoryManager, gateway FileGateway, tokens *TokenService, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:      db,
		repos:   repos,
		gateway: gateway,
		tokens:  tokens,
		effects: NewEffectRunner(logger),
		logger:  logger,
		now:     time.Now,
	}
}

// UploadInput describes one incoming file.
type UploadInput struct {
	FileName    string
	MimeType    string
	Description string
	ProjectID   string
	Content     io.Reader
}

// UploadNew uploads the file to the remote store and creates the document
// together with its first version. Nothing is written locally unless the
// remote upload succeeded.
func (s *DocumentService) UploadNew(ctx context.Context, userID string, in UploadInput) (*models.Document, error) {
	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploadedAt := s.now()
	res, err := s.gateway.Upload(ctx, token, s.gateway.UploadPath(in.FileName, uploadedAt), in.Content)
	if err != nil {
		return nil, err
	}

	synced := uploadedAt
	doc := &models.Document{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.FileName,
		Description: in.Description,
		MimeType:    in.MimeType,
		Size:        res.Size,
		RemotePath:  res.Path,
		IsSynced:    true,
		LastSynced:  &synced,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Documents(tx).Create(ctx, doc); err != nil {
			return err
		}
		v := &models.DocumentVersion{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			RemotePath: res.Path,
			Size:       res.Size,
			CreatedBy:  userID,
		}
		if err := s.repos.Versions(tx).Create(ctx, v); err != nil {
			return err
		}
		if in.ProjectID != "" {
			if _, err := s.repos.Projects(tx).GetByID(ctx, in.ProjectID, userID); err != nil {
				return err
			}
			if err := s.repos.Documents(tx).ReplaceProjectLinks(ctx, doc.ID, userID, []string{in.ProjectID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// The remote object now has no owning record. Log enough to reconcile
		// by hand: there is no automated cleanup.
		s.logger.Error(ctx, "document registration failed after remote upload",
			"user_id", userID, "remote_path", res.Path, "document_id", doc.ID, "error", err.Error())
		s.appendSyncLog(ctx, doc.ID, userID, models.SyncOpUpload, models.SyncStatusFailure)
		return nil, err
	}

	if in.ProjectID != "" {
		doc.ProjectIDs = []string{in.ProjectID}
	}
	s.appendSyncLog(ctx, doc.ID, userID, models.SyncOpUpload, models.SyncStatusSuccess)
	return doc, nil
}

// UploadVersion uploads new content for an existing document, appends a
// version and advances the registry pointer. The document must be owned by
// the caller.
func (s *DocumentService) UploadVersion(ctx context.Context, userID, documentID string, content io.Reader) (*models.DocumentVersion, error) {
	doc, err := s.repos.Documents(s.db).GetByID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The next number is only a filename hint here; the ledger assigns the
	// authoritative number at insert time.
	var nextGuess int64 = 1
	if latest, err := s.repos.Versions(s.db).GetLatest(ctx, documentID); err == nil {
		nextGuess = latest.VersionNumber + 1
	}

	uploadedAt := s.now()
	name := dropbox.VersionFileName(doc.Name, nextGuess)
	res, err := s.gateway.Upload(ctx, token, s.gateway.UploadPath(name, uploadedAt), content)
	if err != nil {
		s.appendSyncLog(ctx, documentID, userID, models.SyncOpUpload, models.SyncStatusFailure)
		return nil, err
	}

	v := &models.DocumentVersion{
		DocumentID: documentID,
		RemotePath: res.Path,
		Size:       res.Size,
		CreatedBy:  userID,
	}

	for attempt := 0; ; attempt++ {
		v.ID = uuid.NewString()
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repos.Versions(tx).Create(ctx, v); err != nil {
				return err
			}
			return s.repos.Documents(tx).UpdatePointer(ctx, documentID, userID, res.Path, res.Size, uploadedAt)
		})
		if errors.Is(err, common.ErrVersionConflict) && attempt < versionInsertAttempts-1 {
			continue
		}
		break
	}
	if err != nil {
		s.logger.Error(ctx, "version registration failed after remote upload",
			"user_id", userID, "remote_path", res.Path, "document_id", documentID, "error", err.Error())
		s.appendSyncLog(ctx, documentID, userID, models.SyncOpUpload, models.SyncStatusFailure)
		return nil, err
	}

	s.appendSyncLog(ctx, documentID, userID, models.SyncOpUpload, models.SyncStatusSuccess)
	return v, nil
}

// DownloadResult is an open stream of version content plus the metadata the
// transport needs for response headers. The caller must close Content.
type DownloadResult struct {
	Content  io.ReadCloser
	Size     int64
	Name     string
	MimeType string
}

// Download streams the content of a document version. number 0 selects the
// latest version.
func (s *DocumentService) Download(ctx context.Context, userID, documentID string, number int64) (*DownloadResult, error) {
	doc, err := s.repos.Documents(s.db).GetByID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	var version *models.DocumentVersion
	if number > 0 {
		version, err = s.repos.Versions(s.db).GetByNumber(ctx, documentID, number)
	} else {
		version, err = s.repos.Versions(s.db).GetLatest(ctx, documentID)
	}
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	rc, size, err := s.gateway.Download(ctx, token, version.RemotePath)
	if err != nil {
		s.appendSyncLog(ctx, documentID, userID, models.SyncOpDownload, models.SyncStatusFailure)
		return nil, err
	}
	if size <= 0 {
		size = version.Size
	}

	s.appendSyncLog(ctx, documentID, userID, models.SyncOpDownload, models.SyncStatusSuccess)
	return &DownloadResult{Content: rc, Size: size, Name: doc.Name, MimeType: doc.MimeType}, nil
}

// VersionListing is the version history of one document plus its most recent
// sync-log entries.
type VersionListing struct {
	Versions []*models.DocumentVersion `json:"versions"`
	SyncLog  []*models.SyncLogEntry    `json:"syncLog"`
}

// ListVersions returns the document's versions, most recent first, and the
// last ten sync-log entries.
func (s *DocumentService) ListVersions(ctx context.Context, userID, documentID string) (*VersionListing, error) {
	if _, err := s.repos.Documents(s.db).GetByID(ctx, documentID, userID); err != nil {
		return nil, err
	}
	versions, err := s.repos.Versions(s.db).ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	log, err := s.repos.SyncLog(s.db).ListRecent(ctx, documentID, userID, recentSyncLogLimit)
	if err != nil {
		return nil, err
	}
	return &VersionListing{Versions: versions, SyncLog: log}, nil
}

// Delete removes the document and everything hanging off it. The remote
// delete is best-effort: its failure never blocks the local delete. The
// local cascade runs in one transaction ending with the document row; if
// that final delete fails the whole operation fails.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.repos.Documents(s.db).GetByID(ctx, documentID, userID)
	if err != nil {
		return err
	}

	if doc.RemotePath != "" {
		s.effects.Run(ctx, Effect{Name: "remote delete", Fn: func(ctx context.Context) error {
			token, err := s.tokens.AccessToken(ctx, userID)
			if err != nil {
				return err
			}
			return s.gateway.Delete(ctx, token, doc.RemotePath)
		}})
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Versions(tx).DeleteByDocument(ctx, documentID); err != nil {
			return err
		}
		if err := s.repos.Documents(tx).DeleteProjectLinks(ctx, documentID); err != nil {
			return err
		}
		if err := s.repos.SyncLog(tx).DeleteByDocument(ctx, documentID); err != nil {
			return err
		}
		return s.repos.Documents(tx).Delete(ctx, documentID, userID)
	})
}

// List returns the caller's documents.
func (s *DocumentService) List(ctx context.Context, userID string) ([]*models.Document, error) {
	return s.repos.Documents(s.db).List(ctx, userID)
}

// Get returns one document with its project links resolved.
func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.repos.Documents(s.db).GetByID(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	ids, err := s.repos.Documents(s.db).ListProjectIDs(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.ProjectIDs = ids
	return doc, nil
}

// UpdateMetadata edits name/description and, when projectIDs is non-nil,
// replaces the project tag set.
func (s *DocumentService) UpdateMetadata(ctx context.Context, userID, documentID, name, description string, projectIDs []string) (*models.Document, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Documents(tx).UpdateMetadata(ctx, documentID, userID, name, description); err != nil {
			return err
		}
		if projectIDs != nil {
			for _, pid := range projectIDs {
				if _, err := s.repos.Projects(tx).GetByID(ctx, pid, userID); err != nil {
					return err
				}
			}
			return s.repos.Documents(tx).ReplaceProjectLinks(ctx, documentID, userID, projectIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, documentID)
}

func (s *DocumentService) appendSyncLog(ctx context.Context, documentID, userID, operation, status string) {
	s.effects.Run(ctx, Effect{Name: "sync log append", Fn: func(ctx context.Context) error {
		return s.repos.SyncLog(s.db).Append(ctx, &models.SyncLogEntry{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Operation:  operation,
			Status:     status,
			UserID:     userID,
		})
	}})
}
