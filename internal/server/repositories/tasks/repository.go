// Package tasks stores the to-do items that authenticated users manage.
// Every lookup is scoped to an owner; a task owned by someone else is
// reported as missing.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// Filter narrows List. A nil Completed matches both states; Limit <= 0
// means no limit.
type Filter struct {
	Completed *bool
	Limit     int
	Skip      int
}

// Repository lists tasks oldest first, ties broken by id.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	// Get returns the owner's task or common.ErrTaskNotFound.
	Get(ctx context.Context, ownerID, id string) (*models.Task, error)
	List(ctx context.Context, ownerID string, f Filter) ([]models.Task, error)
	// Update stores description and completion of an existing task.
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	// DeleteByOwner removes every task of the owner and reports how many.
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
