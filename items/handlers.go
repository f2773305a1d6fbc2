package items

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/models"
	"github.com/user/starter-go/validation"
)

// ItemHandlers exposes the ItemService over HTTP.
type ItemHandlers struct {
	service *ItemService
}

// NewItemHandlers creates the item handlers.
func NewItemHandlers(service *ItemService) *ItemHandlers {
	return &ItemHandlers{service: service}
}

// HandleBrowse godoc
// @Summary List items
// @Tags Items
// @Produce json
// @Success 200 {array} models.Item
// @Router /api/items [get]
func (h *ItemHandlers) HandleBrowse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.service.Browse(r.Context())
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, items)
	}
}

// HandleRead godoc
// @Summary Get an item
// @Tags Items
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.Item
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/items/{id} [get]
func (h *ItemHandlers) HandleRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := validation.ID(chi.URLParam(r, "id"))
		if !ok {
			apperror.WriteError(w, r, apperror.NewNotFoundError("item not found", nil))
			return
		}

		item, err := h.service.Read(r.Context(), id)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, item)
	}
}

// HandleAdd godoc
// @Summary Create an item
// @Description The caller becomes the owner.
// @Tags Items
// @Accept json
// @Produce json
// @Param item body items.ItemInput true "New item"
// @Success 201 {object} models.InsertResult
// @Failure 400 {array} apperror.Issue
// @Failure 403 {object} apperror.ErrorResponse
// @Router /api/items [post]
func (h *ItemHandlers) HandleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		id, err := h.service.Add(r.Context(), in)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, models.InsertResult{InsertID: id})
	}
}

// HandleEdit godoc
// @Summary Retitle an item
// @Tags Items
// @Accept json
// @Param id path int true "Item ID"
// @Param item body items.ItemInput true "New title"
// @Success 204
// @Failure 400 {array} apperror.Issue
// @Failure 403 {object} apperror.ErrorResponse "Not the owner"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/items/{id} [put]
func (h *ItemHandlers) HandleEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		id, ok := validation.ID(chi.URLParam(r, "id"))
		if !ok {
			apperror.WriteError(w, r, apperror.NewNotFoundError("item not found", nil))
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
// @Summary Delete an item
// @Description Idempotent: deleting a missing item returns 204.
// @Tags Items
// @Param id path int true "Item ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse "Not the owner"
// @Router /api/items/{id} [delete]
func (h *ItemHandlers) HandleDestroy() http.HandlerFunc {
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

// decodeInput reads and validates an ItemInput, writing the error response
// itself when it reports false.
func decodeInput(w http.ResponseWriter, r *http.Request) (ItemInput, bool) {
	var in ItemInput
	if err := apperror.DecodeJSON(r, &in); err != nil {
		apperror.WriteError(w, r, err)
		return in, false
	}
	if err := validation.Check(in); err != nil {
		apperror.WriteError(w, r, err)
		return in, false
	}
	return in, true
}
