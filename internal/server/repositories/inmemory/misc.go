package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/server/models"
)

type syncLogRepo struct {
	s *Store
}

func (r *syncLogRepo) Append(ctx context.Context, e *models.SyncLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e.CreatedAt = time.Now()
	cp := *e
	r.s.syncLog[e.DocumentID] = append(r.s.syncLog[e.DocumentID], &cp)
	return nil
}

func (r *syncLogRepo) ListRecent(ctx context.Context, documentID, userID string, limit int) ([]*models.SyncLogEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*models.SyncLogEntry
	for _, e := range r.s.syncLog[documentID] {
		if e.UserID == userID {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *syncLogRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.syncLog, documentID)
	return nil
}

type credentialsRepo struct {
	s *Store
}

func (r *credentialsRepo) Upsert(ctx context.Context, c *models.DropboxCredential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c.UpdatedAt = time.Now()
	cp := *c
	r.s.credentials[c.UserID] = &cp
	return nil
}

func (r *credentialsRepo) GetByUser(ctx context.Context, userID string) (*models.DropboxCredential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.credentials[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *credentialsRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.credentials, userID)
	return nil
}

type projectsRepo struct {
	s *Store
}

func (r *projectsRepo) Create(ctx context.Context, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.s.projects[p.ID] = &cp
	return nil
}

func (r *projectsRepo) GetByID(ctx context.Context, id, userID string) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *projectsRepo) List(ctx context.Context, userID string) ([]*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*models.Project
	for _, p := range r.s.projects {
		if p.UserID == userID {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *projectsRepo) Update(ctx context.Context, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.projects[p.ID]
	if !ok || existing.UserID != p.UserID {
		return common.ErrorNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Color = p.Color
	existing.UpdatedAt = time.Now()
	return nil
}

// Delete removes the project and, mirroring the FK cascade, its document links.
func (r *projectsRepo) Delete(ctx context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.projects, id)
	for docID, set := range r.s.links {
		delete(set, id)
		if len(set) == 0 {
			delete(r.s.links, docID)
		}
	}
	return nil
}
