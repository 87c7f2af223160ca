package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// NotificationsHandler handles notification endpoints.
type NotificationsHandler struct {
	DB *sql.DB
}

type notificationsResponse struct {
	Unread        int                  `json:"unread"`
	Notifications []model.Notification `json:"notifications"`
}

// List handles GET /api/notifications, newest first.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())

	notifications, err := store.ListNotifications(r.Context(), h.DB, user.ID)
	if err != nil {
		jsonFault(w, r, err)
		return
	}
	unread, err := store.CountUnreadNotifications(r.Context(), h.DB, user.ID)
	if err != nil {
		jsonFault(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, notificationsResponse{Unread: unread, Notifications: notifications})
}

// MarkRead handles POST /api/notifications/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if err := store.MarkNotificationsRead(r.Context(), h.DB, user.ID); err != nil {
		jsonFault(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
