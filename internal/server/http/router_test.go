package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	codec   *auth.Codec
	repos   repomanager.RepositoryManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, repomanager.NewMemoryRepositoryManager())
}

func newTestServerWith(t *testing.T, repos repomanager.RepositoryManager) *testServer {
	t.Helper()
	log := logging.NewJSONLogger(io.Discard, slog.LevelDebug)
	codec := auth.NewCodec([]byte("test-secret"), 30*time.Minute)

	gate := services.NewGate(nil, repos, codec, log)
	h := NewHandler(services.NewUserService(nil, repos, codec), services.NewTaskService(nil, repos), log)

	return &testServer{
		handler: NewRouter(h, gate, []string{"*"}, log),
		codec:   codec,
		repos:   repos,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/user/register", "", map[string]any{
		"email": email, "name": "Alice", "age": 30, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.NotEmpty(t, e.Timestamp)
	return e
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")

	rec := s.do(t, http.MethodGet, "/user/me", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, 30, u.Age)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_BadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "not json", body: "nope"},
		{name: "bad email", body: map[string]any{"email": "nope", "name": "A", "password": "secret1"}},
		{name: "short password", body: map[string]any{"email": "a@x.com", "name": "A", "password": "x"}},
		{name: "negative age", body: map[string]any{"email": "a@x.com", "name": "A", "age": -1, "password": "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/user/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			decodeError(t, rec)
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/user/register", "", map[string]any{
		"email": "a@x.com", "name": "Alice", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, s.codec.Validate(resp.Token, "a@x.com"))

	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "b@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMe_RequiresPrincipal(t *testing.T) {
	s := newTestServer(t)

	for _, header := range []string{"", "garbage", "Bearer garbage"} {
		rec := s.do(t, http.MethodGet, "/user/me", header, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "Unauthorized", decodeError(t, rec).Error)
	}
}

func TestMe_UnknownSubject(t *testing.T) {
	s := newTestServer(t)
	token, err := s.codec.Issue("ghost@x.com")
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/user/me", "Bearer "+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPut, "/user/me", "Bearer "+token, map[string]any{"name": "Alicia", "age": 31})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Alicia", u.Name)
	assert.Equal(t, 31, u.Age)
	assert.Equal(t, "a@x.com", u.Email)

	rec = s.do(t, http.MethodPut, "/user/me", "Bearer "+token, map[string]any{"password": "secret2"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/user/me", "Bearer "+token, map[string]any{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email cannot be changed", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodPut, "/user/me", "Bearer "+token, map[string]any{"password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/user/me", "", map[string]any{"name": "Eve"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteMe(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")
	rec := s.do(t, http.MethodPost, "/task", "Bearer "+token, map[string]any{"description": "gone soon"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/user/me", "Bearer "+token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// the token still verifies but its subject is gone
	rec = s.do(t, http.MethodGet, "/user/me", "Bearer "+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the address can be registered again with no leftover tasks
	fresh := s.register(t, "a@x.com")
	rec = s.do(t, http.MethodGet, "/task", "Bearer "+fresh, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"tasks":[]}`, rec.Body.String())
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")

	rec := s.do(t, http.MethodPost, "/user/logout", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/user/me", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token revoked", decodeError(t, rec).Error)

	// the gate also refuses revoked tokens on routes that do not require auth
	rec = s.do(t, http.MethodPost, "/user/login", "Bearer "+token, map[string]string{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/user/logout", "Bearer "+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "logout is idempotent")

	found, err := s.repos.Revocations(nil).Exists(context.Background(), mustTokenID(t, s.codec, token), "a@x.com")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLogout_ExpiredToken(t *testing.T) {
	s := newTestServer(t)
	past := auth.NewCodec([]byte("test-secret"), time.Minute,
		auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	token, err := past.Issue("a@x.com")
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/user/logout", "Bearer "+token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_BadRequests(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/user/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing token", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodPost, "/user/logout", "Bearer garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid token", decodeError(t, rec).Error)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/user/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingRevocations struct {
	*revocations.MemoryRepository
}

func (failingRevocations) Add(context.Context, string, string) error {
	return fmt.Errorf("%w: connection refused", common.ErrStoreUnavailable)
}

func (failingRevocations) Exists(context.Context, string, string) (bool, error) {
	return false, fmt.Errorf("%w: connection refused", common.ErrStoreUnavailable)
}

type brokenRevocationsManager struct {
	*repomanager.MemoryRepositoryManager
}

func (brokenRevocationsManager) Revocations(dbx.DBTX) revocations.Repository {
	return failingRevocations{revocations.NewMemoryRepository()}
}

func TestGate_StoreUnavailable(t *testing.T) {
	s := newTestServerWith(t, brokenRevocationsManager{repomanager.NewMemoryRepositoryManager()})
	token := s.register(t, "a@x.com")

	rec := s.do(t, http.MethodGet, "/user/me", "Bearer "+token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "authentication unavailable", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodGet, "/task", "Bearer "+token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodPost, "/user/logout", "Bearer "+token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// anonymous requests never reach the store
	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func mustTokenID(t *testing.T, c *auth.Codec, token string) string {
	t.Helper()
	id, err := c.TokenIDOf(token)
	require.NoError(t, err)
	return id
}
