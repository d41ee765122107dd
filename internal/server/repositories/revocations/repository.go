// Package revocations stores revoked token ids ("blocklist"). The store is
// shared by every request and by the expiry reaper; each operation is atomic
// on its own and no caching is layered on top.
package revocations

import (
	"context"
	"iter"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// DefaultPageSize is the page length used when traversing the whole store.
const DefaultPageSize = 500

// Repository persists revocation records. Implementations wrap backend
// failures with common.ErrStoreUnavailable.
type Repository interface {
	// Add records tokenID as revoked now. Adding an id that is already
	// present is a no-op.
	Add(ctx context.Context, tokenID, subject string) error

	// Exists reports whether a record for tokenID and subject is present.
	Exists(ctx context.Context, tokenID, subject string) (bool, error)

	// List returns up to limit records ordered by token id, starting after
	// afterTokenID ("" for the first page).
	List(ctx context.Context, afterTokenID string, limit int) ([]models.RevokedToken, error)

	// Remove deletes the record. Removing a missing record is a no-op.
	Remove(ctx context.Context, record models.RevokedToken) error
}

// All walks every record page by page. Records removed while the walk is in
// progress are never revisited because paging is keyed on token id. The walk
// stops at the first List error, which is yielded once.
func All(ctx context.Context, repo Repository, pageSize int) iter.Seq2[models.RevokedToken, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return func(yield func(models.RevokedToken, error) bool) {
		after := ""
		for {
			page, err := repo.List(ctx, after, pageSize)
			if err != nil {
				yield(models.RevokedToken{}, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			after = page[len(page)-1].TokenID
		}
	}
}
