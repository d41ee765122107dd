package revocations

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// MemoryRepository is a process-local store for single-node deployments
// and tests. Records are copied in and out, so readers never observe a
// partially written record.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.RevokedToken
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

// NewMemoryRepositoryWithClock stamps records with now() instead of time.Now.
func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{records: make(map[string]models.RevokedToken), now: now}
}

func (m *MemoryRepository) Add(_ context.Context, tokenID, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[tokenID]; ok {
		return nil
	}
	m.records[tokenID] = models.RevokedToken{TokenID: tokenID, Subject: subject, RevokedAt: m.now()}
	return nil
}

func (m *MemoryRepository) Exists(_ context.Context, tokenID, subject string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[tokenID]
	return ok && rec.Subject == subject, nil
}

func (m *MemoryRepository) List(_ context.Context, afterTokenID string, limit int) ([]models.RevokedToken, error) {
	m.mu.RLock()
	page := make([]models.RevokedToken, 0, len(m.records))
	for id, rec := range m.records {
		if id > afterTokenID {
			page = append(page, rec)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(page, func(a, b models.RevokedToken) int {
		return strings.Compare(a.TokenID, b.TokenID)
	})
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

func (m *MemoryRepository) Remove(_ context.Context, record models.RevokedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, record.TokenID)
	return nil
}

// Len is the number of records currently held.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
