package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/ewaste/internal/model"
)

const pickupSelect = `SELECT p.id, p.household_id, p.staff_id, p.status, p.location,
	        p.scheduled_date, p.notes, p.photo_filename, p.created_at, p.updated_at,
	        h.username AS household_username, COALESCE(s.username, '') AS staff_username
	 FROM pickup_requests p
	 JOIN users h ON h.id = p.household_id
	 LEFT JOIN users s ON s.id = p.staff_id`

// CreatePickup inserts a pickup request and returns it as stored.
func CreatePickup(ctx context.Context, db DBTX, p *model.PickupRequest) (*model.PickupRequest, error) {
	status := p.Status
	if status == "" {
		status = model.StatusPending
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO pickup_requests (household_id, status, location, scheduled_date, notes, photo_filename)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.HouseholdID, string(status), p.Location,
		nullString(p.ScheduledDate), nullString(p.Notes), nullString(p.PhotoFilename),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pickup request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting pickup request id: %w", err)
	}

	return GetPickup(ctx, db, id)
}

// GetPickup returns a pickup request by ID.
func GetPickup(ctx context.Context, db DBTX, id int64) (*model.PickupRequest, error) {
	p, err := scanPickup(db.QueryRowContext(ctx, pickupSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pickup request: %w", err)
	}
	return p, nil
}

// GetPickupByPhoto returns the pickup request that references a stored photo.
func GetPickupByPhoto(ctx context.Context, db DBTX, filename string) (*model.PickupRequest, error) {
	p, err := scanPickup(db.QueryRowContext(ctx,
		pickupSelect+` WHERE p.photo_filename = ? ORDER BY p.id LIMIT 1`, filename,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pickup request by photo: %w", err)
	}
	return p, nil
}

// ListPickupsByHousehold returns a household's requests, newest first.
func ListPickupsByHousehold(ctx context.Context, db DBTX, householdID int64) ([]model.PickupRequest, error) {
	return queryPickups(ctx, db,
		pickupSelect+` WHERE p.household_id = ? ORDER BY p.created_at DESC, p.id DESC`, householdID)
}

// ListPickupsByStaff returns the requests assigned to a staff member, ordered
// by scheduled date. Requests without a date sort first.
func ListPickupsByStaff(ctx context.Context, db DBTX, staffID int64) ([]model.PickupRequest, error) {
	return queryPickups(ctx, db,
		pickupSelect+` WHERE p.staff_id = ? ORDER BY p.scheduled_date, p.id`, staffID)
}

// ListPickupsByStatus returns requests in a given status, newest first.
func ListPickupsByStatus(ctx context.Context, db DBTX, status model.Status) ([]model.PickupRequest, error) {
	return queryPickups(ctx, db,
		pickupSelect+` WHERE p.status = ? ORDER BY p.created_at DESC, p.id DESC`, string(status))
}

// ListPickups returns all requests, newest first.
func ListPickups(ctx context.Context, db DBTX) ([]model.PickupRequest, error) {
	return queryPickups(ctx, db, pickupSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

// ListPickupsForExport returns all requests in scan (id) order.
func ListPickupsForExport(ctx context.Context, db DBTX) ([]model.PickupRequest, error) {
	return queryPickups(ctx, db, pickupSelect+` ORDER BY p.id`)
}

// UpdatePickupStatus sets a request's status.
func UpdatePickupStatus(ctx context.Context, db DBTX, id int64, status model.Status) error {
	_, err := db.ExecContext(ctx,
		`UPDATE pickup_requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating pickup status: %w", err)
	}
	return nil
}

// AssignPickup sets a request's staff member and status together.
func AssignPickup(ctx context.Context, db DBTX, id, staffID int64, status model.Status) error {
	_, err := db.ExecContext(ctx,
		`UPDATE pickup_requests SET staff_id = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		staffID, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("assigning pickup: %w", err)
	}
	return nil
}

// AppendPickupNotes appends text to a request's notes.
func AppendPickupNotes(ctx context.Context, db DBTX, id int64, text string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE pickup_requests SET notes = COALESCE(notes, '') || ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		text, id,
	)
	if err != nil {
		return fmt.Errorf("appending pickup notes: %w", err)
	}
	return nil
}

func queryPickups(ctx context.Context, db DBTX, query string, args ...any) ([]model.PickupRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pickup requests: %w", err)
	}
	defer rows.Close()

	var pickups []model.PickupRequest
	for rows.Next() {
		p, err := scanPickup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pickup request: %w", err)
		}
		pickups = append(pickups, *p)
	}
	return pickups, rows.Err()
}

func scanPickup(s rowScanner) (*model.PickupRequest, error) {
	p := &model.PickupRequest{}
	var status string
	var scheduledDate, notes, photo sql.NullString
	if err := s.Scan(&p.ID, &p.HouseholdID, &p.StaffID, &status, &p.Location,
		&scheduledDate, &notes, &photo, &p.CreatedAt, &p.UpdatedAt,
		&p.HouseholdUsername, &p.StaffUsername); err != nil {
		return nil, err
	}
	p.Status = model.Status(status)
	p.ScheduledDate = scheduledDate.String
	p.Notes = notes.String
	p.PhotoFilename = photo.String
	return p, nil
}
