package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) createTask(t *testing.T, token, description string) models.Task {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/task", "Bearer "+token, map[string]any{"description": description})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func (s *testServer) listTasks(t *testing.T, token, query string) taskListResponse {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/task"+query, "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp taskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestTask_CRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")

	created := s.createTask(t, token, "  buy milk  ")
	assert.Equal(t, "buy milk", created.Description)
	assert.False(t, created.Completed)

	rec := s.do(t, http.MethodGet, "/task/"+created.ID, "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/task/"+created.ID, "Bearer "+token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Completed)
	assert.Equal(t, "buy milk", updated.Description)

	rec = s.do(t, http.MethodDelete, "/task/"+created.ID, "Bearer "+token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/task/"+created.ID, "Bearer "+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", decodeError(t, rec).Error)

	rec = s.do(t, http.MethodDelete, "/task/"+created.ID, "Bearer "+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTask_BadInput(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")
	task := s.createTask(t, token, "write report")

	rec := s.do(t, http.MethodPost, "/task", "Bearer "+token, map[string]any{"description": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/task", "Bearer "+token, map[string]any{"completed": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/task/"+task.ID, "Bearer "+token, map[string]any{"description": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/task/not-a-uuid", "Bearer "+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, q := range []string{"?completed=maybe", "?limit=-1", "?skip=x"} {
		rec = s.do(t, http.MethodGet, "/task"+q, "Bearer "+token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		decodeError(t, rec)
	}
}

func TestTask_RequiresPrincipal(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/task", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/task", "Bearer garbage", map[string]any{"description": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTask_OwnerIsolation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "a@x.com")
	bob := s.register(t, "b@x.com")

	task := s.createTask(t, alice, "alice only")

	rec := s.do(t, http.MethodGet, "/task/"+task.ID, "Bearer "+bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/task/"+task.ID, "Bearer "+bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 0, s.listTasks(t, bob, "").Count)
	assert.Equal(t, 1, s.listTasks(t, alice, "").Count)
}

func TestTask_ListFilterAndPaging(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")

	first := s.createTask(t, token, "one")
	s.createTask(t, token, "two")
	s.createTask(t, token, "three")

	rec := s.do(t, http.MethodPut, "/task/"+first.ID, "Bearer "+token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)

	all := s.listTasks(t, token, "")
	assert.Equal(t, 3, all.Count)
	assert.Len(t, all.Tasks, 3)

	done := s.listTasks(t, token, "?completed=true")
	require.Equal(t, 1, done.Count)
	assert.Equal(t, first.ID, done.Tasks[0].ID)

	assert.Equal(t, 2, s.listTasks(t, token, "?completed=false").Count)
	assert.Equal(t, 2, s.listTasks(t, token, "?limit=2").Count)
	assert.Equal(t, 1, s.listTasks(t, token, "?skip=2").Count)
	assert.Equal(t, 0, s.listTasks(t, token, "?skip=5").Count)
}

func TestTask_EmptyListIsArray(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com")

	rec := s.do(t, http.MethodGet, "/task", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"tasks":[]}`, rec.Body.String())
}
