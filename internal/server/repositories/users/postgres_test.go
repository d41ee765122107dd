package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*name,\s*age,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`
	selectQ = `(?s)^SELECT\s+id,\s*email,\s*name,\s*age,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "Alice", int64(30), []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	u := &models.User{Email: "alice@example.com", Name: "Alice", Age: 30, PasswordHash: []byte("hash")}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: []byte("h")})
	if !errors.Is(err, common.ErrUserExists) {
		t.Fatalf("want common.ErrUserExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: []byte("h")})
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestFindBySubject_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "email", "name", "age", "password_hash", "created_at"}).
		AddRow("u-1", "alice@example.com", "Alice", 30, []byte("hash"), created)
	mock.ExpectQuery(selectQ).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.FindBySubject(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindBySubject error: %v", err)
	}
	if got.ID != "u-1" || got.Name != "Alice" || got.Age != 30 || string(got.PasswordHash) != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindBySubject_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySubject(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("want common.ErrUserNotFound, got %v", err)
	}
}

func TestFindBySubject_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).WithArgs("alice@example.com").WillReturnError(errors.New("db err"))

	_, err := repo.FindBySubject(context.Background(), "alice@example.com")
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

const (
	updateQ = `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$2,\s*age\s*=\s*\$3,\s*password_hash\s*=\s*\$4\s+WHERE\s+email\s*=\s*\$1\s+RETURNING\s+id,\s*created_at\s*$`
	deleteQ = `^DELETE FROM users WHERE email = \$1$`
)

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(updateQ).
		WithArgs("alice@example.com", "Alicia", int64(31), []byte("new")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))
	mock.ExpectQuery(updateQ).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(updateQ).WillReturnError(errors.New("db down"))

	got, err := repo.Update(context.Background(), &models.User{Email: "alice@example.com", Name: "Alicia", Age: 31, PasswordHash: []byte("new")})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.ID != "u-1" || got.Name != "Alicia" {
		t.Fatalf("unexpected user: %+v", got)
	}

	_, err = repo.Update(context.Background(), &models.User{Email: "ghost@example.com"})
	if !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("want common.ErrUserNotFound, got %v", err)
	}

	_, err = repo.Update(context.Background(), &models.User{Email: "alice@example.com"})
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs("alice@example.com").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs("ghost@example.com").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQ).WillReturnError(errors.New("db down"))

	if err := repo.Delete(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "ghost@example.com"); !errors.Is(err, common.ErrUserNotFound) {
		t.Fatalf("want common.ErrUserNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "alice@example.com"); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
