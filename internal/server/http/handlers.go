package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"github.com/go-playground/validator/v10"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Age      int    `json:"age" validate:"gte=0,lte=150"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
	Age      *int    `json:"age" validate:"omitnil,gte=0,lte=150"`
	Password *string `json:"password" validate:"omitnil,min=6,max=72"`
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Handler serves the /user and /task endpoints.
type Handler struct {
	users    *services.UserService
	tasks    *services.TaskService
	validate *validator.Validate
	log      logging.Logger
}

func NewHandler(users *services.UserService, tasks *services.TaskService, log logging.Logger) *Handler {
	return &Handler{users: users, tasks: tasks, validate: validator.New(), log: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.users.Register(r.Context(), req.Email, req.Name, req.Age, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUserExists) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		h.internal(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: s.User, Token: s.Token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.users.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResponse{User: s.User, Token: s.Token})
	case errors.Is(err, common.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.internal(w, r, "login", err)
	}
}

// Logout revokes the presented token. It reports success for any
// well-signed token, even one that is already revoked or expired.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.users.Logout(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
	case errors.Is(err, common.ErrorMissingToken):
		writeError(w, http.StatusBadRequest, "missing token")
	case errors.Is(err, common.ErrTokenMalformed), errors.Is(err, common.ErrTokenInvalidSignature):
		writeError(w, http.StatusBadRequest, "invalid token")
	case errors.Is(err, common.ErrStoreUnavailable):
		h.log.Error(r.Context(), "logout failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "revocation store unavailable")
	default:
		h.internal(w, r, "logout", err)
	}
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, p.User)
}

// UpdateMe changes name, age or password of the authenticated user.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email != nil {
		writeError(w, http.StatusBadRequest, "email cannot be changed")
		return
	}

	p, _ := auth.PrincipalFromContext(r.Context())
	u, err := h.users.UpdateProfile(r.Context(), p, services.ProfileUpdate{
		Name:     req.Name,
		Age:      req.Age,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteMe removes the authenticated user and all of its tasks.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	if err := h.users.DeleteAccount(r.Context(), p); err != nil {
		h.fail(w, r, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// fail maps service errors shared by the authenticated endpoints.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, common.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, common.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, common.ErrTaskDescription):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.internal(w, r, op, err)
	}
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(r.Context(), op+" failed", "error", err)
	if errors.Is(err, common.ErrStoreUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
