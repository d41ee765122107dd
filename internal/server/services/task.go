package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

// TaskService manages the tasks of the authenticated user. Every method
// needs a principal; without one it returns common.ErrorUnauthorized.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newID       func() string
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m, newID: uuid.NewString}
}

// TaskUpdate lists the task fields to change; nil fields are kept.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

func ownerOf(p *models.Principal) (string, error) {
	if p == nil || p.User == nil {
		return "", common.ErrorUnauthorized
	}
	return p.User.ID, nil
}

// validID rejects ids that cannot name a task so they never reach the store.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, p *models.Principal, description string, completed bool) (*models.Task, error) {
	owner, err := ownerOf(p)
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, common.ErrTaskDescription
	}

	return s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		ID:          s.newID(),
		OwnerID:     owner,
		Description: description,
		Completed:   completed,
	})
}

func (s *TaskService) Get(ctx context.Context, p *models.Principal, id string) (*models.Task, error) {
	owner, err := ownerOf(p)
	if err != nil {
		return nil, err
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).Get(ctx, owner, id)
}

// List returns the user's tasks oldest first, narrowed by f.
func (s *TaskService) List(ctx context.Context, p *models.Principal, f tasks.Filter) ([]models.Task, error) {
	owner, err := ownerOf(p)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Tasks(s.db).List(ctx, owner, f)
}

func (s *TaskService) Update(ctx context.Context, p *models.Principal, id string, upd TaskUpdate) (*models.Task, error) {
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if upd.Description != nil {
		d := strings.TrimSpace(*upd.Description)
		if d == "" {
			return nil, common.ErrTaskDescription
		}
		t.Description = d
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	return s.repomanager.Tasks(s.db).Update(ctx, t)
}

func (s *TaskService) Delete(ctx context.Context, p *models.Principal, id string) error {
	owner, err := ownerOf(p)
	if err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}
	return s.repomanager.Tasks(s.db).Delete(ctx, owner, id)
}
