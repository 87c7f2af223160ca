// Package policy decides who may act on pickup requests. Every function is
// pure and fails closed: a nil user or unknown role is always denied.
package policy

import "github.com/erazemk/ewaste/internal/model"

// CanViewPickup allows admins, the owning household and the assigned staff.
func CanViewPickup(u *model.User, p *model.PickupRequest) bool {
	if u == nil || p == nil {
		return false
	}
	switch u.Role {
	case model.RoleAdmin:
		return true
	case model.RoleHousehold:
		return u.ID == p.HouseholdID
	case model.RoleStaff:
		return p.AssignedTo(u.ID)
	default:
		return false
	}
}

// CanViewPhoto gates uploaded photos the same way as the request they belong to.
func CanViewPhoto(u *model.User, p *model.PickupRequest) bool {
	return CanViewPickup(u, p)
}

// CanCancelPickup allows the owning household while the pickup has not started.
func CanCancelPickup(u *model.User, p *model.PickupRequest) bool {
	if u == nil || p == nil || u.ID != p.HouseholdID {
		return false
	}
	switch p.Status {
	case model.StatusInProgress, model.StatusCompleted:
		return false
	default:
		return true
	}
}

// CanUpdateStatus allows only the staff member the pickup is assigned to.
func CanUpdateStatus(u *model.User, p *model.PickupRequest) bool {
	if u == nil || p == nil {
		return false
	}
	switch u.Role {
	case model.RoleStaff:
		return p.AssignedTo(u.ID)
	case model.RoleHousehold, model.RoleAdmin:
		return false
	default:
		return false
	}
}

// CanApprove reports whether u may approve pickups.
func CanApprove(u *model.User) bool { return isAdmin(u) }

// CanReject reports whether u may reject pickups.
func CanReject(u *model.User) bool { return isAdmin(u) }

// CanAssign reports whether u may assign pickups to staff.
func CanAssign(u *model.User) bool { return isAdmin(u) }

// CanExport reports whether u may export all pickups.
func CanExport(u *model.User) bool { return isAdmin(u) }

// CanRequestPickup reports whether u may submit pickup requests.
func CanRequestPickup(u *model.User) bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case model.RoleHousehold:
		return true
	case model.RoleStaff, model.RoleAdmin:
		return false
	default:
		return false
	}
}

func isAdmin(u *model.User) bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case model.RoleAdmin:
		return true
	case model.RoleHousehold, model.RoleStaff:
		return false
	default:
		return false
	}
}
