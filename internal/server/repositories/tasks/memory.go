package tasks

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// MemoryRepository keeps tasks in a map keyed by id.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]models.Task), now: now}
}

func (m *MemoryRepository) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	m.tasks[task.ID] = *task
	return task, nil
}

func (m *MemoryRepository) Get(_ context.Context, ownerID, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrTaskNotFound
	}
	return &t, nil
}

func (m *MemoryRepository) List(_ context.Context, ownerID string, f Filter) ([]models.Task, error) {
	m.mu.RLock()
	out := []models.Task{}
	for _, t := range m.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		out = append(out, t)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if f.Skip > 0 {
		if f.Skip >= len(out) {
			return []models.Task{}, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, task *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.tasks[task.ID]
	if !ok || cur.OwnerID != task.OwnerID {
		return nil, common.ErrTaskNotFound
	}
	cur.Description = task.Description
	cur.Completed = task.Completed
	cur.UpdatedAt = m.now().UTC()
	m.tasks[task.ID] = cur
	return &cur, nil
}

func (m *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return common.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryRepository) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, t := range m.tasks {
		if t.OwnerID == ownerID {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}
