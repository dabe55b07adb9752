package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/akarpovs/docsync/internal/common"
	"github.com/akarpovs/docsync/internal/server/models"
)

type versionsRepo struct {
	s *Store
}

// Create assigns version_number = max(existing)+1 under the store mutex, so
// concurrent uploads can never observe the same max.
func (r *versionsRepo) Create(ctx context.Context, v *models.DocumentVersion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var max int64
	for _, existing := range r.s.versions[v.DocumentID] {
		if existing.VersionNumber > max {
			max = existing.VersionNumber
		}
	}
	v.VersionNumber = max + 1
	v.CreatedAt = time.Now()

	cp := *v
	r.s.versions[v.DocumentID] = append(r.s.versions[v.DocumentID], &cp)
	return nil
}

func (r *versionsRepo) ListByDocument(ctx context.Context, documentID string) ([]*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*models.DocumentVersion
	for _, v := range r.s.versions[documentID] {
		cp := *v
		cp.UploaderName = r.s.profiles[v.CreatedBy]
		if cp.UploaderName == "" {
			cp.UploaderName = "Unknown User"
		}
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNumber > result[j].VersionNumber
	})
	return result, nil
}

func (r *versionsRepo) GetByNumber(ctx context.Context, documentID string, number int64) (*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, v := range r.s.versions[documentID] {
		if v.VersionNumber == number {
			cp := *v
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *versionsRepo) GetLatest(ctx context.Context, documentID string) (*models.DocumentVersion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var latest *models.DocumentVersion
	for _, v := range r.s.versions[documentID] {
		if latest == nil || v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *versionsRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.versions, documentID)
	return nil
}
