package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/auth"
	"github.com/user/starter-go/models"
	"github.com/user/starter-go/validation"
)

// UserHandlers exposes UserService over HTTP. Registration also logs the
// new user in, so it needs a token issuer.
type UserHandlers struct {
	service *UserService
	tokens  auth.TokenIssuer
}

// NewUserHandlers creates the user handlers.
func NewUserHandlers(service *UserService, tokens auth.TokenIssuer) *UserHandlers {
	return &UserHandlers{service: service, tokens: tokens}
}

// HandleBrowse godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Router /api/users [get]
func (h *UserHandlers) HandleBrowse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.service.Browse(r.Context())
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, users)
	}
}

// HandleRead godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandlers) HandleRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := validation.ID(chi.URLParam(r, "id"))
		if !ok {
			apperror.WriteError(w, r, apperror.NewNotFoundError("user not found", nil))
			return
		}

		user, err := h.service.Read(r.Context(), id)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleAdd godoc
// @Summary Register
// @Description Creates a user and logs them in by setting the session cookie.
// @Tags Users
// @Accept json
// @Produce json
// @Param user body users.UserInput true "New user"
// @Success 201 {object} models.InsertResult
// @Failure 400 {array} apperror.Issue
// @Failure 500 {object} apperror.ErrorResponse "Includes duplicate email"
// @Router /api/users [post]
func (h *UserHandlers) HandleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UserInput
		if err := apperror.DecodeJSON(r, &in); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := validation.Check(in); err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		id, err := h.service.Add(r.Context(), in)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		token, err := h.tokens.Issue(id)
		if err != nil {
			apperror.WriteError(w, r, apperror.NewInternalError("failed to issue session token", err))
			return
		}
		auth.SetSessionCookie(w, token)
		apperror.WriteJSON(w, http.StatusCreated, models.InsertResult{InsertID: id})
	}
}

// HandleEdit godoc
// @Summary Edit own account
// @Tags Users
// @Accept json
// @Param id path int true "User ID"
// @Param user body users.UserInput true "Replacement email and password"
// @Success 204
// @Failure 400 {array} apperror.Issue
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/users/{id} [put]
func (h *UserHandlers) HandleEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UserInput
		if err := apperror.DecodeJSON(r, &in); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := validation.Check(in); err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		id, ok := validation.ID(chi.URLParam(r, "id"))
		if !ok {
			apperror.WriteError(w, r, apperror.NewNotFoundError("user not found", nil))
			return
		}

		if err := h.service.Edit(r.Context(), id, in); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDestroy godoc
// @Summary Delete own account
// @Description Idempotent: deleting a missing user returns 204.
// @Tags Users
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse
// @Router /api/users/{id} [delete]
func (h *UserHandlers) HandleDestroy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := validation.ID(chi.URLParam(r, "id"))
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := h.service.Destroy(r.Context(), id); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
