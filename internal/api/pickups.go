package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/ewaste/internal/export"
	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/lifecycle"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/policy"
	"github.com/erazemk/ewaste/internal/store"
)

// PickupsHandler handles pickup request endpoints.
type PickupsHandler struct {
	DB     *sql.DB
	Engine *lifecycle.Engine
}

type createPickupRequest struct {
	Location        string `json:"location"`
	ScheduledDate   string `json:"scheduled_date"`
	Notes           string `json:"notes"`
	ItemType        string `json:"item_type"`
	Quantity        int    `json:"quantity"`
	ConditionStatus string `json:"condition_status"`
}

type pickupDetail struct {
	*model.PickupRequest
	Items []model.ItemDetail `json:"items"`
}

type statusRequest struct {
	Status model.Status `json:"status"`
	Note   string       `json:"note"`
}

type assignRequest struct {
	StaffID int64 `json:"staff_id"`
}

// List handles GET /api/pickups. The result is scoped to the caller's role.
func (h *PickupsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())

	var (
		pickups []model.PickupRequest
		err     error
	)
	if status := r.URL.Query().Get("status"); status != "" && user.Role == model.RoleAdmin {
		pickups, err = store.ListPickupsByStatus(r.Context(), h.DB, model.Status(status))
	} else {
		pickups, err = h.Engine.Visible(r.Context(), user)
	}
	if err != nil {
		jsonFault(w, r, err)
		return
	}
	if pickups == nil {
		pickups = []model.PickupRequest{}
	}
	jsonResponse(w, http.StatusOK, pickups)
}

// Create handles POST /api/pickups.
func (h *PickupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPickupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Engine.Submit(r.Context(), GetUser(r.Context()), lifecycle.SubmitInput{
		Location:        req.Location,
		ScheduledDate:   req.ScheduledDate,
		Notes:           req.Notes,
		ItemType:        req.ItemType,
		Quantity:        req.Quantity,
		ConditionStatus: req.ConditionStatus,
	})
	if err != nil {
		jsonFault(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, p)
}

// Get handles GET /api/pickups/{id}.
func (h *PickupsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	d, err := h.Engine.Detail(r.Context(), GetUser(r.Context()), id)
	if err != nil {
		jsonFault(w, r, err)
		return
	}
	items := d.Items
	if items == nil {
		items = []model.ItemDetail{}
	}
	jsonResponse(w, http.StatusOK, pickupDetail{PickupRequest: d.Pickup, Items: items})
}

// Cancel handles POST /api/pickups/{id}/cancel.
func (h *PickupsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.Engine.Cancel(r.Context(), GetUser(r.Context()), id))
}

// UpdateStatus handles POST /api/pickups/{id}/status.
func (h *PickupsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, r)(h.Engine.UpdateStatus(r.Context(), GetUser(r.Context()), id, req.Status, req.Note))
}

// Approve handles POST /api/pickups/{id}/approve.
func (h *PickupsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.Engine.Approve(r.Context(), GetUser(r.Context()), id))
}

// Reject handles POST /api/pickups/{id}/reject.
func (h *PickupsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.Engine.Reject(r.Context(), GetUser(r.Context()), id))
}

// Assign handles POST /api/pickups/{id}/assign.
func (h *PickupsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, r)(h.Engine.Assign(r.Context(), GetUser(r.Context()), id, req.StaffID))
}

// Export handles GET /api/export.
func (h *PickupsHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if !policy.CanExport(user) {
		jsonFault(w, r, fault.ErrUnauthorized)
		return
	}

	pickups, err := store.ListPickupsForExport(r.Context(), h.DB)
	if err != nil {
		jsonFault(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	if err := export.WritePickupsCSV(w, pickups); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

// respond writes the outcome of a lifecycle transition.
func (h *PickupsHandler) respond(w http.ResponseWriter, r *http.Request) func(*model.PickupRequest, error) {
	return func(p *model.PickupRequest, err error) {
		if err != nil {
			jsonFault(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, p)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
