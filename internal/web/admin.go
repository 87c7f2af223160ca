package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/ewaste/internal/export"
	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/policy"
	"github.com/erazemk/ewaste/internal/store"
)

// AdminDashboard handles GET /admin/dashboard.
func (s *Server) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user.Role != model.RoleAdmin {
		deny(w, r)
		return
	}

	pending, err := store.ListPickupsByStatus(r.Context(), s.DB, model.StatusPending)
	if err != nil {
		slog.Error("failed to list pending pickups", "error", err)
	}
	all, err := s.Engine.Visible(r.Context(), user)
	if err != nil {
		slog.Error("failed to list pickups", "error", err)
	}
	staff, err := store.ListUsersByRole(r.Context(), s.DB, model.RoleStaff)
	if err != nil {
		slog.Error("failed to list staff", "error", err)
	}

	s.Templates.Render(w, "admin_dashboard.html", &struct {
		PageData
		Pending []model.PickupRequest
		All     []model.PickupRequest
		Staff   []model.User
	}{
		PageData: s.page(w, r, "Administration"),
		Pending:  pending,
		All:      all,
		Staff:    staff,
	})
}

// ApprovePickup handles POST /admin/approve/{id}.
func (s *Server) ApprovePickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}
	if _, err := s.Engine.Approve(r.Context(), CurrentUser(r.Context()), id); err != nil {
		fail(w, r, err, "/admin/dashboard")
		return
	}
	setFlash(w, flashSuccess, "Pickup approved")
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// RejectPickup handles POST /admin/reject/{id}.
func (s *Server) RejectPickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}
	if _, err := s.Engine.Reject(r.Context(), CurrentUser(r.Context()), id); err != nil {
		fail(w, r, err, "/admin/dashboard")
		return
	}
	setFlash(w, flashSuccess, "Pickup rejected")
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// AssignPickup handles POST /admin/assign/{id}.
func (s *Server) AssignPickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}

	staffID, err := strconv.ParseInt(r.FormValue("staff_id"), 10, 64)
	if err != nil {
		if !policy.CanAssign(CurrentUser(r.Context())) {
			deny(w, r)
			return
		}
		fail(w, r, fault.ErrInvalidAssignment, "/admin/dashboard")
		return
	}

	if _, err := s.Engine.Assign(r.Context(), CurrentUser(r.Context()), id, staffID); err != nil {
		fail(w, r, err, "/admin/dashboard")
		return
	}
	setFlash(w, flashSuccess, "Assigned to staff")
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

// Export handles GET /admin/export.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if !policy.CanExport(user) {
		deny(w, r)
		return
	}

	pickups, err := store.ListPickupsForExport(r.Context(), s.DB)
	if err != nil {
		fail(w, r, err, "/admin/dashboard")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	if err := export.WritePickupsCSV(w, pickups); err != nil {
		slog.Error("failed to write export", "error", err)
		return
	}
	slog.Info("pickups exported", "user", user.Username, "rows", len(pickups))
}
