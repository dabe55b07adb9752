package inmemory

import (
	"context"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/server/models"
)

type documentsRepo struct {
	s *Store
}

func (r *documentsRepo) Create(ctx context.Context, doc *models.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	r.s.documents[doc.ID] = &cp
	return nil
}

func (r *documentsRepo) GetByID(ctx context.Context, id, userID string) (*models.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.documents[id]
	if !ok || doc.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *documentsRepo) List(ctx context.Context, userID string) ([]*models.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*models.Document
	for _, doc := range r.s.documents {
		if doc.UserID == userID {
			cp := *doc
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *documentsRepo) UpdateMetadata(ctx context.Context, id, userID, name, description string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.documents[id]
	if !ok || doc.UserID != userID {
		return common.ErrorNotFound
	}
	doc.Name = name
	doc.Description = description
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *documentsRepo) UpdatePointer(ctx context.Context, id, userID, remotePath string, size int64, syncedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.documents[id]
	if !ok || doc.UserID != userID {
		return common.ErrorNotFound
	}
	doc.RemotePath = remotePath
	doc.Size = size
	doc.IsSynced = true
	synced := syncedAt
	doc.LastSynced = &synced
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *documentsRepo) Delete(ctx context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.documents[id]
	if !ok || doc.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.documents, id)
	return nil
}

func (r *documentsRepo) ReplaceProjectLinks(ctx context.Context, documentID, userID string, projectIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set := make(map[string]string, len(projectIDs))
	for _, pid := range projectIDs {
		set[pid] = userID
	}
	r.s.links[documentID] = set
	return nil
}

func (r *documentsRepo) ListProjectIDs(ctx context.Context, documentID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []string
	for pid := range r.s.links[documentID] {
		result = append(result, pid)
	}
	return result, nil
}

func (r *documentsRepo) DeleteProjectLinks(ctx context.Context, documentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.links, documentID)
	return nil
}
