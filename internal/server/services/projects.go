package services

import (
	"context"
	"database/sql"

	"github.com/akarpovs/docsync/internal/server/models"
	"github.com/akarpovs/docsync/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ProjectService is thin CRUD over the project repository.
type ProjectService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewProjectService(db *sql.DB, repos repomanager.RepositoryManager) *ProjectService {
	return &ProjectService{db: db, repos: repos}
}

func (s *ProjectService) Create(ctx context.Context, userID, name, description, color string) (*models.Project, error) {
	p := &models.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Color:       color,
	}
	if err := s.repos.Projects(s.db).Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]*models.Project, error) {
	return s.repos.Projects(s.db).List(ctx, userID)
}

func (s *ProjectService) Update(ctx context.Context, userID, id, name, description, color string) (*models.Project, error) {
	p := &models.Project{ID: id, UserID: userID, Name: name, Description: description, Color: color}
	if err := s.repos.Projects(s.db).Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repos.Projects(s.db).GetByID(ctx, id, userID)
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	return s.repos.Projects(s.db).Delete(ctx, id, userID)
}
