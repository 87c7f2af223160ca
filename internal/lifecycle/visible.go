package lifecycle

import (
	"context"

	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// Visible returns the requests actor may see: their own for households,
// assigned ones for staff and all of them for admins.
func (e *Engine) Visible(ctx context.Context, actor *model.User) ([]model.PickupRequest, error) {
	if actor == nil {
		return nil, fault.ErrUnauthorized
	}
	switch actor.Role {
	case model.RoleHousehold:
		return store.ListPickupsByHousehold(ctx, e.DB, actor.ID)
	case model.RoleStaff:
		return store.ListPickupsByStaff(ctx, e.DB, actor.ID)
	case model.RoleAdmin:
		return store.ListPickups(ctx, e.DB)
	default:
		return nil, fault.ErrUnauthorized
	}
}
