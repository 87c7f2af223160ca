package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/ewaste/internal/db"
	"github.com/erazemk/ewaste/internal/model"
)

func setupPickupUsers(t *testing.T, database *sql.DB) (household, staff *model.User) {
	t.Helper()
	ctx := context.Background()

	household, err := CreateUser(ctx, database, newUser("alice", model.RoleHousehold))
	if err != nil {
		t.Fatalf("creating household: %v", err)
	}
	staff, err = CreateUser(ctx, database, newUser("bob", model.RoleStaff))
	if err != nil {
		t.Fatalf("creating staff: %v", err)
	}
	return household, staff
}

func TestCreateAndGetPickup(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	household, _ := setupPickupUsers(t, database)

	p, err := CreatePickup(ctx, database, &model.PickupRequest{
		HouseholdID:   household.ID,
		Location:      "12 Oak St",
		ScheduledDate: "2026-11-01",
		Notes:         "ring twice",
	})
	if err != nil {
		t.Fatalf("CreatePickup: %v", err)
	}
	if p.Status != model.StatusPending {
		t.Errorf("expected pending, got %q", p.Status)
	}
	if p.StaffID != nil {
		t.Errorf("expected no staff, got %d", *p.StaffID)
	}
	if p.HouseholdUsername != "alice" {
		t.Errorf("expected joined household username, got %q", p.HouseholdUsername)
	}
	if p.PhotoFilename != "" {
		t.Errorf("expected empty photo, got %q", p.PhotoFilename)
	}

	got, err := GetPickup(ctx, database, p.ID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if got.Location != "12 Oak St" || got.ScheduledDate != "2026-11-01" || got.Notes != "ring twice" {
		t.Errorf("fields not round-tripped: %+v", got)
	}

	missing, err := GetPickup(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetPickup missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing pickup")
	}
}

func TestAssignAndUpdatePickup(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	household, staff := setupPickupUsers(t, database)

	p, _ := CreatePickup(ctx, database, &model.PickupRequest{HouseholdID: household.ID, Location: "x"})

	if err := AssignPickup(ctx, database, p.ID, staff.ID, model.StatusScheduled); err != nil {
		t.Fatalf("AssignPickup: %v", err)
	}
	got, _ := GetPickup(ctx, database, p.ID)
	if !got.AssignedTo(staff.ID) {
		t.Errorf("expected staff %d assigned, got %v", staff.ID, got.StaffID)
	}
	if got.Status != model.StatusScheduled || got.StaffUsername != "bob" {
		t.Errorf("unexpected pickup after assign: %+v", got)
	}

	if err := UpdatePickupStatus(ctx, database, p.ID, model.StatusInProgress); err != nil {
		t.Fatalf("UpdatePickupStatus: %v", err)
	}
	got, _ = GetPickup(ctx, database, p.ID)
	if got.Status != model.StatusInProgress {
		t.Errorf("expected in_progress, got %q", got.Status)
	}
}

func TestAppendPickupNotes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	household, _ := setupPickupUsers(t, database)

	// Starts with NULL notes.
	p, _ := CreatePickup(ctx, database, &model.PickupRequest{HouseholdID: household.ID, Location: "x"})

	AppendPickupNotes(ctx, database, p.ID, "\nfirst")
	AppendPickupNotes(ctx, database, p.ID, "\nsecond")

	got, _ := GetPickup(ctx, database, p.ID)
	if got.Notes != "\nfirst\nsecond" {
		t.Errorf("unexpected notes %q", got.Notes)
	}
}

func TestListPickupQueries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	household, staff := setupPickupUsers(t, database)
	other, _ := CreateUser(ctx, database, newUser("carol", model.RoleHousehold))

	first, _ := CreatePickup(ctx, database, &model.PickupRequest{HouseholdID: household.ID, Location: "a", ScheduledDate: "2026-12-01"})
	second, _ := CreatePickup(ctx, database, &model.PickupRequest{HouseholdID: household.ID, Location: "b", ScheduledDate: "2026-11-01"})
	CreatePickup(ctx, database, &model.PickupRequest{HouseholdID: other.ID, Location: "c"})

	mine, err := ListPickupsByHousehold(ctx, database, household.ID)
	if err != nil {
		t.Fatalf("ListPickupsByHousehold: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 pickups, got %d", len(mine))
	}
	if mine[0].ID != second.ID {
		t.Errorf("expected newest first, got id %d", mine[0].ID)
	}

	AssignPickup(ctx, database, first.ID, staff.ID, model.StatusScheduled)
	AssignPickup(ctx, database, second.ID, staff.ID, model.StatusScheduled)
	assigned, err := ListPickupsByStaff(ctx, database, staff.ID)
	if err != nil {
		t.Fatalf("ListPickupsByStaff: %v", err)
	}
	if len(assigned) != 2 || assigned[0].ScheduledDate != "2026-11-01" {
		t.Errorf("expected staff list ordered by scheduled date, got %+v", assigned)
	}

	pending, _ := ListPickupsByStatus(ctx, database, model.StatusPending)
	if len(pending) != 1 {
		t.Errorf("expected 1 pending pickup, got %d", len(pending))
	}

	all, _ := ListPickups(ctx, database)
	if len(all) != 3 {
		t.Errorf("expected 3 pickups, got %d", len(all))
	}

	export, _ := ListPickupsForExport(ctx, database)
	for i := 1; i < len(export); i++ {
		if export[i-1].ID > export[i].ID {
			t.Errorf("export not in id order: %d before %d", export[i-1].ID, export[i].ID)
		}
	}
}

func TestGetPickupByPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	household, _ := setupPickupUsers(t, database)

	p, _ := CreatePickup(ctx, database, &model.PickupRequest{HouseholdID: household.ID, Location: "x", PhotoFilename: "abc.jpg"})

	got, err := GetPickupByPhoto(ctx, database, "abc.jpg")
	if err != nil {
		t.Fatalf("GetPickupByPhoto: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Errorf("expected pickup %d, got %+v", p.ID, got)
	}

	none, _ := GetPickupByPhoto(ctx, database, "nope.jpg")
	if none != nil {
		t.Error("expected nil for unknown photo")
	}
}
