package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/policy"
)

// StaffDashboard handles GET /staff/dashboard.
func (s *Server) StaffDashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user.Role != model.RoleStaff {
		deny(w, r)
		return
	}

	assigned, err := s.Engine.Visible(r.Context(), user)
	if err != nil {
		slog.Error("failed to list assigned pickups", "user", user.Username, "error", err)
	}

	s.Templates.Render(w, "staff_dashboard.html", &struct {
		PageData
		Assigned []model.PickupRequest
	}{
		PageData: s.page(w, r, "Assigned pickups"),
		Assigned: assigned,
	})
}

// UpdatePickupPage handles GET /pickup/{id}/update.
func (s *Server) UpdatePickupPage(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}

	d, err := s.Engine.Detail(r.Context(), user, id)
	if err != nil {
		fail(w, r, err, "/staff/dashboard")
		return
	}
	if !policy.CanUpdateStatus(user, d.Pickup) {
		deny(w, r)
		return
	}
	s.renderDetail(w, r, d, true)
}

// UpdatePickupSubmit handles POST /pickup/{id}/update.
func (s *Server) UpdatePickupSubmit(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}

	status := model.Status(r.FormValue("status"))
	if _, err := s.Engine.UpdateStatus(r.Context(), user, id, status, r.FormValue("note")); err != nil {
		fail(w, r, err, r.URL.Path)
		return
	}

	setFlash(w, flashSuccess, "Status updated")
	http.Redirect(w, r, "/staff/dashboard", http.StatusSeeOther)
}
