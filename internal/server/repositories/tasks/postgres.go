package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (id, owner_id, description, completed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 `

	now := r.now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		task.ID, task.OwnerID, task.Description, task.Completed, now); err != nil {
		return nil, fmt.Errorf("%w: insert task: %w", common.ErrStoreUnavailable, err)
	}

	task.CreatedAt = now
	task.UpdatedAt = now
	return task, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query :=
		`SELECT id, owner_id, description, completed, created_at, updated_at FROM tasks
		 WHERE owner_id = $1 AND id = $2
		 `

	t := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, ownerID, id).
		Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTaskNotFound
		}
		return nil, fmt.Errorf("%w: get task: %w", common.ErrStoreUnavailable, err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string, f Filter) ([]models.Task, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, owner_id, description, completed, created_at, updated_at FROM tasks WHERE owner_id = $1`)
	args := []any{ownerID}

	if f.Completed != nil {
		args = append(args, *f.Completed)
		fmt.Fprintf(&b, ` AND completed = $%d`, len(args))
	}
	b.WriteString(` ORDER BY created_at, id`)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if f.Skip > 0 {
		args = append(args, f.Skip)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %w", common.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan task: %w", common.ErrStoreUnavailable, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tasks: %w", common.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks SET description = $3, completed = $4, updated_at = $5
		 WHERE owner_id = $1 AND id = $2
		 RETURNING created_at
		 `

	now := r.now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, task.ID, task.Description, task.Completed, now).Scan(&task.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTaskNotFound
		}
		return nil, fmt.Errorf("%w: update task: %w", common.ErrStoreUnavailable, err)
	}
	task.UpdatedAt = now
	return task, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("%w: delete task: %w", common.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete task: %w", common.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return common.ErrTaskNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete tasks: %w", common.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete tasks: %w", common.ErrStoreUnavailable, err)
	}
	return n, nil
}
