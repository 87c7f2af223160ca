// Package export renders pickup requests as a CSV document.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/erazemk/ewaste/internal/model"
)

// Filename is the suggested download name.
const Filename = "pickups.csv"

// Header is the first CSV row.
var Header = []string{"id", "household", "staff", "status", "location", "scheduled_date", "created_at"}

// WritePickupsCSV writes one row per pickup in the given order. Pickups need
// their joined usernames populated.
func WritePickupsCSV(w io.Writer, pickups []model.PickupRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, p := range pickups {
		record := []string{
			strconv.FormatInt(p.ID, 10),
			p.HouseholdUsername,
			p.StaffUsername,
			string(p.Status),
			p.Location,
			p.ScheduledDate,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row %d: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
