// Package users is the user directory consulted by the authentication gate.
package users

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type Repository interface {
	// Create stores a new user. Duplicate emails yield common.ErrUserExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindBySubject returns the user whose email equals subject, or
	// common.ErrUserNotFound.
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
	// Update overwrites name, age and password hash of the user with
	// user.Email. Unknown users yield common.ErrUserNotFound.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	// Delete removes the user whose email equals subject, or returns
	// common.ErrUserNotFound.
	Delete(ctx context.Context, subject string) error
}
