package seating

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Selection is the click-ordered, duplicate-free set of seats a user has
// picked. It is owned by a single UI loop and is not safe for concurrent use.
type Selection struct {
	layout Layout
	booked map[string]bool
	seats  []string
}

// New starts an empty selection. Booked ids outside the layout are kept so
// they still report as booked.
func New(layout Layout, booked []string) *Selection {
	s := &Selection{layout: layout}
	s.setBooked(booked)
	return s
}

func (s *Selection) setBooked(booked []string) {
	s.booked = make(map[string]bool, len(booked))
	for _, id := range booked {
		s.booked[id] = true
	}
}

func (s *Selection) Layout() Layout {
	return s.layout
}

// Toggle selects an available seat or deselects a selected one. Booked seats
// and ids outside the layout are ignored. It reports whether anything changed.
func (s *Selection) Toggle(id string) bool {
	if s.booked[id] || !s.layout.Contains(id) {
		return false
	}
	if i := slices.Index(s.seats, id); i >= 0 {
		s.seats = slices.Delete(s.seats, i, i+1)
		return true
	}
	s.seats = append(s.seats, id)
	return true
}

func (s *Selection) Status(id string) Status {
	return StatusOf(id, s.booked, s.seats)
}

func (s *Selection) IsBooked(id string) bool {
	return s.booked[id]
}

func (s *Selection) Count() int {
	return len(s.seats)
}

// Total is seatPrice × Count() in decimal arithmetic.
func (s *Selection) Total(seatPrice decimal.Decimal) decimal.Decimal {
	return seatPrice.Mul(decimal.NewFromInt(int64(len(s.seats))))
}

// Seats returns a copy of the selection in click order.
func (s *Selection) Seats() []string {
	return slices.Clone(s.seats)
}

func (s *Selection) Reset() {
	s.seats = nil
}

// Available counts seats in the layout that are not booked.
func (s *Selection) Available() int {
	free := 0
	for _, row := range s.layout.Rows {
		for _, id := range s.layout.Seats(row) {
			if !s.booked[id] {
				free++
			}
		}
	}
	return free
}

// Rebase swaps in a freshly fetched booked-seat snapshot and drops selected
// seats that are now booked. The remaining seats keep their order.
func (s *Selection) Rebase(booked []string) []string {
	s.setBooked(booked)
	var dropped []string
	kept := s.seats[:0]
	for _, id := range s.seats {
		if s.booked[id] {
			dropped = append(dropped, id)
			continue
		}
		kept = append(kept, id)
	}
	s.seats = kept
	return dropped
}
