package web

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/policy"
	"github.com/erazemk/ewaste/internal/store"
	"github.com/erazemk/ewaste/internal/uploads"
)

// HouseholdDashboard handles GET /household/dashboard.
func (s *Server) HouseholdDashboard(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user.Role != model.RoleHousehold {
		deny(w, r)
		return
	}

	pickups, err := s.Engine.Visible(r.Context(), user)
	if err != nil {
		slog.Error("failed to list pickups", "user", user.Username, "error", err)
	}
	notifications, err := store.ListNotifications(r.Context(), s.DB, user.ID)
	if err != nil {
		slog.Error("failed to list notifications", "user", user.Username, "error", err)
	}

	s.Templates.Render(w, "household_dashboard.html", &struct {
		PageData
		Pickups       []model.PickupRequest
		Notifications []model.Notification
	}{
		PageData:      s.page(w, r, "My pickups"),
		Pickups:       pickups,
		Notifications: notifications,
	})
}

type requestPage struct {
	PageData
	Form     lifecycle.SubmitInput
	Quantity string
}

// RequestPickupPage handles GET /pickup/request.
func (s *Server) RequestPickupPage(w http.ResponseWriter, r *http.Request) {
	if !policy.CanRequestPickup(CurrentUser(r.Context())) {
		setFlash(w, flashDanger, "Only households can request pickups")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "request_pickup.html", &requestPage{
		PageData: s.page(w, r, "Request pickup"),
		Quantity: "1",
	})
}

// RequestPickupSubmit handles POST /pickup/request. A photo with a disallowed
// type is dropped and reported, and the request is still created.
func (s *Server) RequestPickupSubmit(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if !policy.CanRequestPickup(user) {
		setFlash(w, flashDanger, "Only households can request pickups")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload)
	if err := r.ParseMultipartForm(s.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		data := &requestPage{PageData: s.page(w, r, "Request pickup"), Quantity: "1"}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
			data.Error = fmt.Sprintf("Upload too large (max %d MB)", s.MaxUpload>>20)
		} else {
			data.Error = "Could not read the form"
		}
		s.Templates.RenderStatus(w, http.StatusBadRequest, "request_pickup.html", data)
		return
	}

	in := lifecycle.SubmitInput{
		Location:        r.FormValue("location"),
		ScheduledDate:   strings.TrimSpace(r.FormValue("scheduled_date")),
		Notes:           r.FormValue("notes"),
		ItemType:        r.FormValue("item_type"),
		ConditionStatus: r.FormValue("condition_status"),
	}
	quantity := strings.TrimSpace(r.FormValue("quantity"))

	verr := &fault.ValidationError{}
	if quantity != "" {
		n, err := strconv.Atoi(quantity)
		if err != nil {
			verr.Add("quantity", "must be a whole number")
		}
		in.Quantity = n
	}
	if err := in.Validate(); err != nil {
		var v *fault.ValidationError
		if errors.As(err, &v) {
			for field, msg := range v.Fields {
				verr.Add(field, msg)
			}
		}
	}
	if len(verr.Fields) > 0 {
		data := &requestPage{PageData: s.page(w, r, "Request pickup"), Form: in, Quantity: quantity}
		data.Errors = verr.Fields
		s.Templates.RenderStatus(w, http.StatusBadRequest, "request_pickup.html", data)
		return
	}

	var warning string
	file, header, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		slog.Warn("failed to read photo", "user", user.Username, "error", err)
		warning = "the photo could not be read"
	default:
		in.PhotoFilename, warning = s.savePhoto(user, file, header)
		file.Close()
	}

	p, err := s.Engine.Submit(r.Context(), user, in)
	if err != nil {
		if in.PhotoFilename != "" {
			if rmErr := s.Uploads.Remove(in.PhotoFilename); rmErr != nil {
				slog.Error("failed to remove orphaned photo", "photo", in.PhotoFilename, "error", rmErr)
			}
		}
		fail(w, r, err, "/pickup/request")
		return
	}

	if warning != "" {
		setFlash(w, flashWarning, fmt.Sprintf("Pickup request #%d submitted, but %s.", p.ID, warning))
	} else {
		setFlash(w, flashSuccess, "Pickup request submitted. You will be notified when admin approves.")
	}
	http.Redirect(w, r, "/household/dashboard", http.StatusSeeOther)
}

// savePhoto stores an uploaded photo. It returns the stored key, or a warning
// for the user when the photo was not kept.
func (s *Server) savePhoto(user *model.User, file multipart.File, header *multipart.FileHeader) (string, string) {
	if header.Filename == "" {
		return "", ""
	}
	key, err := s.Uploads.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, uploads.ErrDisallowedType) {
			slog.Warn("photo rejected", "user", user.Username, "filename", header.Filename)
			return "", "the photo was not attached: only PNG, JPG, JPEG and GIF images are accepted"
		}
		slog.Error("failed to save photo", "user", user.Username, "error", err)
		return "", "the photo could not be saved"
	}
	return key, ""
}

type detailPage struct {
	PageData
	Pickup        *model.PickupRequest
	Items         []model.ItemDetail
	CanCancel     bool
	CanUpdate     bool
	CanAdminister bool
	ShowUpdate    bool
	StaffStatuses []model.Status
	Staff         []model.User
}

func (s *Server) renderDetail(w http.ResponseWriter, r *http.Request, d *lifecycle.Detail, showUpdate bool) {
	user := CurrentUser(r.Context())
	data := &detailPage{
		PageData:      s.page(w, r, fmt.Sprintf("Pickup #%d", d.Pickup.ID)),
		Pickup:        d.Pickup,
		Items:         d.Items,
		CanCancel:     policy.CanCancelPickup(user, d.Pickup),
		CanUpdate:     policy.CanUpdateStatus(user, d.Pickup),
		CanAdminister: policy.CanAssign(user),
		ShowUpdate:    showUpdate,
		StaffStatuses: model.StaffStatuses,
	}
	if data.CanAdminister {
		staff, err := store.ListUsersByRole(r.Context(), s.DB, model.RoleStaff)
		if err != nil {
			slog.Error("failed to list staff", "error", err)
		}
		data.Staff = staff
	}
	s.Templates.Render(w, "pickup_detail.html", data)
}

// PickupDetail handles GET /pickup/{id}.
func (s *Server) PickupDetail(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}

	d, err := s.Engine.Detail(r.Context(), user, id)
	if err != nil {
		fail(w, r, err, "/")
		return
	}
	s.renderDetail(w, r, d, false)
}

// CancelPickup handles POST /pickup/{id}/cancel.
func (s *Server) CancelPickup(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := pathID(r)
	if !ok {
		deny(w, r)
		return
	}

	if _, err := s.Engine.Cancel(r.Context(), user, id); err != nil {
		if errors.Is(err, fault.ErrInvalidTransition) {
			setFlash(w, flashWarning, "Cannot cancel a pickup in progress or completed")
			http.Redirect(w, r, "/household/dashboard", http.StatusSeeOther)
			return
		}
		fail(w, r, err, "/household/dashboard")
		return
	}

	setFlash(w, flashSuccess, "Pickup cancelled")
	http.Redirect(w, r, "/household/dashboard", http.StatusSeeOther)
}
