package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SeatLayout is the grid shape as sent by the service: rows is comma-joined.
type SeatLayout struct {
	Rows        string `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
}

// RowLabels splits the comma-joined rows, trimming blanks around labels.
func (l SeatLayout) RowLabels() []string {
	if strings.TrimSpace(l.Rows) == "" {
		return nil
	}
	parts := strings.Split(l.Rows, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		labels = append(labels, strings.TrimSpace(p))
	}
	return labels
}

type Showtime struct {
	Id          int64       `json:"id"`
	Movie       Movie       `json:"movie"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Screen      string      `json:"screen"`
	SeatLayout  *SeatLayout `json:"seat_layout,omitempty"`
	BookedSeats []string    `json:"booked_seats"`
}

// UnmarshalJSON resolves the movie reference, which the service sends as a
// nested object, a bare id, or a separate movie_details object.
func (s *Showtime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' && !bytes.Equal(trimmed, []byte("null")) {
		// Some endpoints reference the showtime by id only.
		id, err := strconv.ParseInt(strings.Trim(string(trimmed), `"`), 10, 64)
		if err != nil {
			return fmt.Errorf("decode showtime id: %w", err)
		}
		*s = Showtime{Id: id}
		return nil
	}

	type plain Showtime
	var raw struct {
		plain
		Movie        json.RawMessage `json:"movie"`
		MovieDetails *Movie          `json:"movie_details"`
		Screen       json.RawMessage `json:"screen"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Showtime(raw.plain)

	movie := bytes.TrimSpace(raw.Movie)
	switch {
	case len(movie) == 0 || bytes.Equal(movie, []byte("null")):
	case movie[0] == '{':
		if err := json.Unmarshal(movie, &s.Movie); err != nil {
			return fmt.Errorf("decode showtime movie: %w", err)
		}
	default:
		id, err := strconv.ParseInt(strings.Trim(string(movie), `"`), 10, 64)
		if err != nil {
			return fmt.Errorf("decode showtime movie id: %w", err)
		}
		s.Movie.Id = id
	}
	if raw.MovieDetails != nil {
		s.Movie = *raw.MovieDetails
	}

	screen := bytes.TrimSpace(raw.Screen)
	if len(screen) > 0 && !bytes.Equal(screen, []byte("null")) {
		var name string
		if err := json.Unmarshal(screen, &name); err != nil {
			name = string(screen)
		}
		s.Screen = name
	}
	return nil
}

// StartsAt combines date and time in the given location.
func (s Showtime) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	clock := s.Time
	if len(clock) == len("15:04") {
		clock += ":00"
	}
	return time.ParseInLocation(time.DateOnly+" "+time.TimeOnly, s.Date+" "+clock, loc)
}

// Label is a short human description used by lists and tables.
func (s Showtime) Label() string {
	when := strings.TrimSpace(s.Date + " " + s.Time)
	if start, err := s.StartsAt(time.Local); err == nil {
		when = start.Format("Mon Jan 2 • 15:04")
	}
	if s.Screen != "" {
		return fmt.Sprintf("%s • Screen %s", when, s.Screen)
	}
	return when
}

// Validate checks the fields the seat selection flow depends on.
func (s Showtime) Validate() error {
	if s.Id <= 0 {
		return &ShapeError{Entity: "showtime", Field: "id", Reason: "missing"}
	}
	if s.SeatLayout == nil {
		return &ShapeError{Entity: "showtime", Field: "seat_layout", Reason: "missing"}
	}
	if s.SeatLayout.SeatsPerRow < 1 {
		return &ShapeError{Entity: "showtime", Field: "seat_layout.seats_per_row", Reason: "must be at least 1"}
	}
	rows := s.SeatLayout.RowLabels()
	if len(rows) == 0 {
		return &ShapeError{Entity: "showtime", Field: "seat_layout.rows", Reason: "empty"}
	}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row == "" {
			return &ShapeError{Entity: "showtime", Field: "seat_layout.rows", Reason: "blank row label"}
		}
		if seen[row] {
			return &ShapeError{Entity: "showtime", Field: "seat_layout.rows", Reason: fmt.Sprintf("duplicate row %q", row)}
		}
		seen[row] = true
	}
	for _, seat := range s.BookedSeats {
		if !seatInLayout(seat, rows, s.SeatLayout.SeatsPerRow) {
			return &ShapeError{Entity: "showtime", Field: "booked_seats", Reason: fmt.Sprintf("seat %q is outside the layout", seat)}
		}
	}
	return nil
}

func seatInLayout(seat string, rows []string, perRow int) bool {
	for _, row := range rows {
		if !strings.HasPrefix(seat, row) {
			continue
		}
		n, err := strconv.Atoi(seat[len(row):])
		if err == nil && n >= 1 && n <= perRow && strconv.Itoa(n) == seat[len(row):] {
			return true
		}
	}
	return false
}
