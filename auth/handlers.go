package auth

import (
	"net/http"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/validation"
)

// Handlers exposes the AuthService over HTTP.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates the auth Handlers.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// HandleLogin godoc
// @Summary Log in
// @Description Verifies credentials and sets the __Host-auth session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body auth.Credentials true "Login credentials"
// @Success 201 {object} models.User "Session created"
// @Failure 400 {array} apperror.Issue "Invalid request body"
// @Failure 403 {object} apperror.ErrorResponse "Unknown email or wrong password"
// @Router /api/access-tokens [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		if err := apperror.DecodeJSON(r, &creds); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := validation.Check(creds); err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		user, token, err := h.service.Login(r.Context(), creds)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		SetSessionCookie(w, token)
		apperror.WriteJSON(w, http.StatusCreated, user)
	}
}

// HandleLogout godoc
// @Summary Log out
// @Description Clears the session cookie. The token itself stays valid until it expires.
// @Tags Auth
// @Success 204 "Cookie cleared"
// @Router /api/access-tokens [delete]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ClearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleMe godoc
// @Summary Current user
// @Description Returns the user the session cookie belongs to.
// @Tags Auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 403 {object} apperror.ErrorResponse "No valid session"
// @Router /api/me [get]
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			apperror.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}

		user, err := h.service.Me(r.Context(), id)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, user)
	}
}
