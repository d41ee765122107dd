package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in a map keyed by email.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (m *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Email]; ok {
		return nil, common.ErrUserExists
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	m.users[user.Email] = *user
	return user, nil
}

func (m *MemoryRepository) FindBySubject(_ context.Context, subject string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[subject]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[user.Email]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cur.Name = user.Name
	cur.Age = user.Age
	cur.PasswordHash = user.PasswordHash
	m.users[user.Email] = cur
	return &cur, nil
}

func (m *MemoryRepository) Delete(_ context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[subject]; !ok {
		return common.ErrUserNotFound
	}
	delete(m.users, subject)
	return nil
}
