package notify

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printforge/marketplace-api/internal/common"
)

// Handler exposes the in-app notification feed.
type Handler struct {
	Store *PGStore
}

// List returns the authenticated user's notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	notifications, err := h.Store.ListForUser(r.Context(), userID, perPage, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list notifications", nil)
		return
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": notifications})
}

// MarkRead flips the read flag on one of the user's notifications.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id := chi.URLParam(r, "notificationId")
	if err := h.Store.MarkRead(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "notification not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to update notification", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"read": true}})
}
