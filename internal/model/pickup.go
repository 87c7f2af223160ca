package model

import "time"

// Status is the lifecycle state of a pickup request.
type Status string

// Pickup statuses.
const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
	StatusRejected   Status = "rejected"
)

// StaffStatuses are the statuses an assigned staff member may set.
var StaffStatuses = []Status{
	StatusScheduled,
	StatusInProgress,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// IsStaffStatus reports whether s is one of StaffStatuses.
func IsStaffStatus(s Status) bool {
	for _, st := range StaffStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// PickupRequest is a household's request for e-waste collection.
type PickupRequest struct {
	ID            int64     `json:"id"`
	HouseholdID   int64     `json:"household_id"`
	StaffID       *int64    `json:"staff_id,omitempty"`
	Status        Status    `json:"status"`
	Location      string    `json:"location"`
	ScheduledDate string    `json:"scheduled_date,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	PhotoFilename string    `json:"photo_filename,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	HouseholdUsername string `json:"household_username,omitempty"`
	StaffUsername     string `json:"staff_username,omitempty"`
}

// AssignedTo reports whether the request is assigned to the given user.
func (p *PickupRequest) AssignedTo(userID int64) bool {
	return p.StaffID != nil && *p.StaffID == userID
}

// ItemDetail describes one kind of item in a pickup request.
type ItemDetail struct {
	ID              int64  `json:"id"`
	RequestID       int64  `json:"request_id"`
	ItemType        string `json:"item_type"`
	Quantity        int    `json:"quantity"`
	ConditionStatus string `json:"condition_status,omitempty"`
}

// Notification is a message recorded for a recipient.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"is_read"`
}
