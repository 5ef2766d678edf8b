// Package seating tracks a user's in-progress seat selection for one
// showtime against a fixed layout and the snapshot of already-booked seats.
package seating

import (
	"fmt"
	"strconv"

	"movie-booking-cli/model"
)

// Layout is a uniform grid: every row has SeatsPerRow seats numbered from 1.
type Layout struct {
	Rows        []string
	SeatsPerRow int
}

// ParseLayout converts the wire layout. It applies the same rules as
// model.Showtime.Validate so a layout accepted there is accepted here.
func ParseLayout(raw model.SeatLayout) (Layout, error) {
	rows := raw.RowLabels()
	if len(rows) == 0 {
		return Layout{}, fmt.Errorf("seat layout has no rows")
	}
	if raw.SeatsPerRow < 1 {
		return Layout{}, fmt.Errorf("seat layout has %d seats per row", raw.SeatsPerRow)
	}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row == "" {
			return Layout{}, fmt.Errorf("seat layout has a blank row label")
		}
		if seen[row] {
			return Layout{}, fmt.Errorf("seat layout repeats row %q", row)
		}
		seen[row] = true
	}
	return Layout{Rows: rows, SeatsPerRow: raw.SeatsPerRow}, nil
}

// SeatID joins a row label and a 1-based seat number, e.g. "A1".
func SeatID(row string, number int) string {
	return row + strconv.Itoa(number)
}

// Seats returns the ids of one row in seat-number order.
func (l Layout) Seats(row string) []string {
	ids := make([]string, 0, l.SeatsPerRow)
	for n := 1; n <= l.SeatsPerRow; n++ {
		ids = append(ids, SeatID(row, n))
	}
	return ids
}

// Contains reports whether id is one of rows × [1..SeatsPerRow].
func (l Layout) Contains(id string) bool {
	for _, row := range l.Rows {
		if len(id) <= len(row) || id[:len(row)] != row {
			continue
		}
		suffix := id[len(row):]
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 || n > l.SeatsPerRow {
			continue
		}
		if strconv.Itoa(n) == suffix {
			return true
		}
	}
	return false
}

// Capacity is the total number of seats in the grid.
func (l Layout) Capacity() int {
	return len(l.Rows) * l.SeatsPerRow
}
