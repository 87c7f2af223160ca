// Package lifecycle applies the legal status transitions of a pickup request.
// Each transition writes the status change and the notifications it causes in
// a single transaction.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/policy"
	"github.com/erazemk/ewaste/internal/store"
)

// Engine runs pickup transitions against a database. The acting user is
// passed to every call.
type Engine struct {
	DB  *sql.DB
	Now func() time.Time
}

// New returns an Engine using the wall clock.
func New(db *sql.DB) *Engine {
	return &Engine{DB: db, Now: time.Now}
}

// SubmitInput is a household's pickup request with its single item.
type SubmitInput struct {
	Location      string
	ScheduledDate string
	Notes         string
	PhotoFilename string

	ItemType        string
	Quantity        int
	ConditionStatus string
}

// Validate checks required fields. A zero quantity means the default of 1.
func (in *SubmitInput) Validate() error {
	var v fault.ValidationError
	if strings.TrimSpace(in.Location) == "" {
		v.Add("location", "required")
	}
	if strings.TrimSpace(in.ItemType) == "" {
		v.Add("item_type", "required")
	}
	if in.Quantity < 0 {
		v.Add("quantity", "must be at least 1")
	}
	return v.Err()
}

// Detail is a pickup request together with its items.
type Detail struct {
	Pickup *model.PickupRequest
	Items  []model.ItemDetail
}

// Submit creates a pending pickup request, its item and a notification to
// the household.
func (e *Engine) Submit(ctx context.Context, actor *model.User, in SubmitInput) (*model.PickupRequest, error) {
	if !policy.CanRequestPickup(actor) {
		return nil, fault.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *model.PickupRequest
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		p, err := store.CreatePickup(ctx, tx, &model.PickupRequest{
			HouseholdID:   actor.ID,
			Status:        model.StatusPending,
			Location:      strings.TrimSpace(in.Location),
			ScheduledDate: strings.TrimSpace(in.ScheduledDate),
			Notes:         in.Notes,
			PhotoFilename: in.PhotoFilename,
		})
		if err != nil {
			return err
		}

		if _, err := store.CreateItemDetail(ctx, tx, &model.ItemDetail{
			RequestID:       p.ID,
			ItemType:        strings.TrimSpace(in.ItemType),
			Quantity:        in.Quantity,
			ConditionStatus: strings.TrimSpace(in.ConditionStatus),
		}); err != nil {
			return err
		}

		if err := store.CreateNotification(ctx, tx, actor.ID,
			fmt.Sprintf("Pickup request #%d submitted and pending admin approval.", p.ID)); err != nil {
			return err
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submitting pickup: %w", err)
	}

	slog.Info("pickup submitted", "user", actor.Username, "pickup", created.ID)
	return created, nil
}

// Detail returns a pickup request and its items if actor may view it.
func (e *Engine) Detail(ctx context.Context, actor *model.User, id int64) (*Detail, error) {
	p, err := e.load(ctx, e.DB, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewPickup(actor, p) {
		return nil, fault.ErrUnauthorized
	}

	items, err := store.ListItemsByRequest(ctx, e.DB, p.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Pickup: p, Items: items}, nil
}

// Approve moves a pending request to approved.
func (e *Engine) Approve(ctx context.Context, actor *model.User, id int64) (*model.PickupRequest, error) {
	if !policy.CanApprove(actor) {
		return nil, fault.ErrUnauthorized
	}

	return e.transition(ctx, actor, id, "approving pickup", func(tx *sql.Tx, p *model.PickupRequest) error {
		if p.Status != model.StatusPending {
			return fault.ErrInvalidTransition
		}
		if err := store.UpdatePickupStatus(ctx, tx, p.ID, model.StatusApproved); err != nil {
			return err
		}
		return store.CreateNotification(ctx, tx, p.HouseholdID,
			fmt.Sprintf("Your pickup #%d has been approved and will be scheduled.", p.ID))
	})
}

// Reject moves a pending or approved request to the terminal rejected status.
func (e *Engine) Reject(ctx context.Context, actor *model.User, id int64) (*model.PickupRequest, error) {
	if !policy.CanReject(actor) {
		return nil, fault.ErrUnauthorized
	}

	return e.transition(ctx, actor, id, "rejecting pickup", func(tx *sql.Tx, p *model.PickupRequest) error {
		if p.Status != model.StatusPending && p.Status != model.StatusApproved {
			return fault.ErrInvalidTransition
		}
		if err := store.UpdatePickupStatus(ctx, tx, p.ID, model.StatusRejected); err != nil {
			return err
		}
		return store.CreateNotification(ctx, tx, p.HouseholdID,
			fmt.Sprintf("Your pickup #%d has been rejected by admin.", p.ID))
	})
}

// Assign gives an approved (or already scheduled) request to a staff member
// and schedules it. Both the staff member and the household are notified.
func (e *Engine) Assign(ctx context.Context, actor *model.User, id, staffID int64) (*model.PickupRequest, error) {
	if !policy.CanAssign(actor) {
		return nil, fault.ErrUnauthorized
	}

	return e.transition(ctx, actor, id, "assigning pickup", func(tx *sql.Tx, p *model.PickupRequest) error {
		staff, err := store.GetUser(ctx, tx, staffID)
		if err != nil {
			return err
		}
		if staff == nil || staff.Role != model.RoleStaff {
			return fault.ErrInvalidAssignment
		}
		if p.Status != model.StatusApproved && p.Status != model.StatusScheduled {
			return fault.ErrInvalidTransition
		}

		if err := store.AssignPickup(ctx, tx, p.ID, staff.ID, model.StatusScheduled); err != nil {
			return err
		}
		if err := store.CreateNotification(ctx, tx, staff.ID,
			fmt.Sprintf("You have been assigned pickup #%d.", p.ID)); err != nil {
			return err
		}

		contact := staff.Phone
		if contact == "" {
			contact = "N/A"
		}
		return store.CreateNotification(ctx, tx, p.HouseholdID,
			fmt.Sprintf("Pickup #%d assigned to staff %s. Contact: %s", p.ID, staff.DisplayName(), contact))
	})
}

// UpdateStatus lets the assigned staff member set one of model.StaffStatuses
// and optionally append a timestamped note.
func (e *Engine) UpdateStatus(ctx context.Context, actor *model.User, id int64, status model.Status, note string) (*model.PickupRequest, error) {
	if !model.IsStaffStatus(status) {
		var v fault.ValidationError
		v.Add("status", "not a status staff can set")
		return nil, v.Err()
	}

	return e.transition(ctx, actor, id, "updating pickup status", func(tx *sql.Tx, p *model.PickupRequest) error {
		if !policy.CanUpdateStatus(actor, p) {
			return fault.ErrUnauthorized
		}

		if err := store.UpdatePickupStatus(ctx, tx, p.ID, status); err != nil {
			return err
		}
		if note = strings.TrimSpace(note); note != "" {
			line := fmt.Sprintf("\n[%s] STAFF NOTE: %s", e.Now().Format("2006-01-02 15:04"), note)
			if err := store.AppendPickupNotes(ctx, tx, p.ID, line); err != nil {
				return err
			}
		}
		return store.CreateNotification(ctx, tx, p.HouseholdID,
			fmt.Sprintf("Pickup #%d status updated to %s by staff %s.", p.ID, status, actor.DisplayName()))
	})
}

// Cancel lets the owning household cancel a request that has not started.
func (e *Engine) Cancel(ctx context.Context, actor *model.User, id int64) (*model.PickupRequest, error) {
	return e.transition(ctx, actor, id, "cancelling pickup", func(tx *sql.Tx, p *model.PickupRequest) error {
		if actor.ID != p.HouseholdID {
			return fault.ErrUnauthorized
		}
		if !policy.CanCancelPickup(actor, p) {
			return fault.ErrInvalidTransition
		}

		if err := store.UpdatePickupStatus(ctx, tx, p.ID, model.StatusCancelled); err != nil {
			return err
		}
		return store.CreateNotification(ctx, tx, p.HouseholdID,
			fmt.Sprintf("Pickup #%d cancelled.", p.ID))
	})
}

// transition loads the request inside a transaction, runs apply, and returns
// the request as stored after commit.
func (e *Engine) transition(ctx context.Context, actor *model.User, id int64, what string, apply func(*sql.Tx, *model.PickupRequest) error) (*model.PickupRequest, error) {
	if actor == nil {
		return nil, fault.ErrUnauthorized
	}

	var before model.Status
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		p, err := e.load(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		before = p.Status
		return apply(tx, p)
	})
	if err != nil {
		slog.Warn("pickup transition refused", "action", what, "user", actor.Username, "pickup", id, "error", err)
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	p, err := store.GetPickup(ctx, e.DB, id)
	if err != nil {
		return nil, err
	}
	slog.Info("pickup transition", "action", what, "user", actor.Username, "pickup", id,
		"from", before, "to", p.Status)
	return p, nil
}

// load fetches a pickup request. Non-admins get ErrUnauthorized for missing
// requests so they cannot probe which ids exist.
func (e *Engine) load(ctx context.Context, db store.DBTX, actor *model.User, id int64) (*model.PickupRequest, error) {
	p, err := store.GetPickup(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		if actor != nil && actor.Role == model.RoleAdmin {
			return nil, fault.ErrNotFound
		}
		return nil, fault.ErrUnauthorized
	}
	return p, nil
}

func (e *Engine) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
