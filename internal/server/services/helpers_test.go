package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testValidity = 1800 * time.Second
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeManager hands out fixed repositories.
type fakeManager struct {
	users       users.Repository
	revocations revocations.Repository
	tasks       tasks.Repository
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *fakeManager) Revocations(dbx.DBTX) revocations.Repository { return m.revocations }
func (m *fakeManager) Tasks(dbx.DBTX) tasks.Repository             { return m.tasks }

type failingUsers struct{ err error }

func (f failingUsers) Create(context.Context, *models.User) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) FindBySubject(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) Update(context.Context, *models.User) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) Delete(context.Context, string) error {
	return f.err
}

type failingRevocations struct {
	*revocations.MemoryRepository
	err error
}

func (f failingRevocations) Exists(context.Context, string, string) (bool, error) {
	return false, f.err
}

func (f failingRevocations) Add(context.Context, string, string) error {
	return f.err
}

type fixture struct {
	clock   *fakeClock
	codec   *auth.Codec
	users   *users.MemoryRepository
	revs    *revocations.MemoryRepository
	tasks   *tasks.MemoryRepository
	manager *fakeManager
	log     logging.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: t0}
	f := &fixture{
		clock: clock,
		codec: auth.NewCodec([]byte(testSecret), testValidity, auth.WithClock(clock.Now)),
		users: users.NewMemoryRepository(),
		revs:  revocations.NewMemoryRepositoryWithClock(clock.Now),
		tasks: tasks.NewMemoryRepositoryWithClock(clock.Now),
		log:   logging.NewJSONLogger(io.Discard, slog.LevelDebug),
	}
	f.manager = &fakeManager{users: f.users, revocations: f.revs, tasks: f.tasks}
	return f
}

func (f *fixture) addUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := f.users.Create(context.Background(), &models.User{Email: email, Name: "Test", PasswordHash: hash})
	require.NoError(t, err)
	return u
}

func (f *fixture) gate() *Gate {
	return NewGate(nil, f.manager, f.codec, f.log)
}

func (f *fixture) userService() *UserService {
	s := NewUserService(nil, f.manager, f.codec)
	s.hashCost = bcrypt.MinCost
	return s
}

func (f *fixture) taskService() *TaskService {
	return NewTaskService(nil, f.manager)
}

func (f *fixture) principal(u *models.User) *models.Principal {
	return &models.Principal{Subject: u.Email, User: u}
}
