package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/erazemk/ewaste/internal/model"
)

func TestWritePickupsCSV(t *testing.T) {
	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	staffID := int64(3)
	pickups := []model.PickupRequest{
		{ID: 1, HouseholdUsername: "alice", Status: model.StatusPending, Location: "12 Oak St", CreatedAt: created},
		{ID: 2, HouseholdUsername: "carol", StaffID: &staffID, StaffUsername: "bob",
			Status: model.StatusScheduled, Location: "1 Elm, Apt \"B\"", ScheduledDate: "2026-10-20", CreatedAt: created},
	}

	var buf bytes.Buffer
	if err := WritePickupsCSV(&buf, pickups); err != nil {
		t.Fatalf("WritePickupsCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "id" || records[0][6] != "created_at" {
		t.Errorf("unexpected header %v", records[0])
	}

	want := []string{"1", "alice", "", "pending", "12 Oak St", "", "2026-10-01T08:00:00Z"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, records[1][i], v)
		}
	}
	if records[2][2] != "bob" || records[2][4] != "1 Elm, Apt \"B\"" {
		t.Errorf("unexpected row 2 %v", records[2])
	}
}

func TestWritePickupsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePickupsCSV(&buf, nil); err != nil {
		t.Fatalf("WritePickupsCSV: %v", err)
	}
	if buf.String() != "id,household,staff,status,location,scheduled_date,created_at\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
