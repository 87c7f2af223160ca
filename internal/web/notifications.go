package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// NotificationsPage handles GET /notifications. Showing the list marks it
// read; the page still highlights what was unread before.
func (s *Server) NotificationsPage(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	notifications, err := store.ListNotifications(r.Context(), s.DB, user.ID)
	if err != nil {
		fail(w, r, err, "/")
		return
	}
	if err := store.MarkNotificationsRead(r.Context(), s.DB, user.ID); err != nil {
		slog.Error("failed to mark notifications read", "user", user.Username, "error", err)
	}

	data := s.page(w, r, "Notifications")
	data.Unread = 0
	s.Templates.Render(w, "notifications.html", &struct {
		PageData
		Notifications []model.Notification
	}{
		PageData:      data,
		Notifications: notifications,
	})
}
