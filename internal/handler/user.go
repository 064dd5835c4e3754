package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/userhub/userhub-go/internal/model"
	"github.com/userhub/userhub-go/internal/service"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// HandleList handles GET /api/users requests. With any of the
// name/email/minAge/maxAge query parameters present the filtered search
// path is used; otherwise a plain page is returned. Both paths report a
// true total for pagination.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	filters := model.SearchFilters{
		Name:   r.URL.Query().Get("name"),
		Email:  r.URL.Query().Get("email"),
		MinAge: queryIntPtr(r, "minAge"),
		MaxAge: queryIntPtr(r, "maxAge"),
	}

	var (
		users []model.User
		total int
		err   error
	)

	if filters.Empty() {
		users, total, err = h.service.List(r.Context(), limit, (page-1)*limit)
	} else {
		filters.Limit = limit
		users, total, err = h.service.Search(r.Context(), filters)
	}
	if err != nil {
		writeInternalError(w, "list users", err)
		return
	}

	if users == nil {
		users = []model.User{}
	}

	writeJSON(w, http.StatusOK, Response{
		Success:    true,
		Data:       users,
		Pagination: NewPagination(page, limit, total),
	})
}

// HandleGet handles GET /api/users/{id} requests.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
			return
		}
		writeInternalError(w, "get user", err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: user})
}

// HandleCreate handles POST /api/users requests.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Message: "invalid data",
				Errors:  verr.Messages,
			})
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeInternalError(w, "create user", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "user created",
		Data:    user,
	})
}

// HandleUpdate handles PUT /api/users/{id} requests.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Message: "invalid data",
				Errors:  verr.Messages,
			})
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrNoFieldsToUpdate):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeInternalError(w, "update user", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "user updated",
		Data:    user,
	})
}

// HandleDelete handles DELETE /api/users/{id} requests. The response body
// carries the snapshot of the row as it was before the delete.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("user not found"))
			return
		}
		writeInternalError(w, "delete user", err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "user deleted",
		Data:    user,
	})
}

// HandleLogin handles POST /api/users/login requests. On success the
// profile is returned without the credential hash; no session or token is
// issued.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("email and password are required"))
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse("invalid credentials"))
			return
		}
		writeInternalError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "login successful",
		Data:    user,
	})
}

// userID parses the {id} route parameter, writing a 400 envelope when it
// is not a positive integer.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("user id must be a valid number"))
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func queryIntPtr(r *http.Request, key string) *int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
