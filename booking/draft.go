package booking

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"movie-booking-cli/model"
)

var ErrDraftExpired = errors.New("checkout expired, pick your seats again")

// Draft is the checkout state handed from the seat map to the booking form.
// It lives in memory only and is dropped after a successful submission.
type Draft struct {
	ID        uuid.UUID
	Showtime  model.Showtime
	Seats     []string
	SeatPrice decimal.Decimal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewDraft snapshots the selection. A zero ttl means the draft never expires.
func NewDraft(showtime model.Showtime, seats []string, seatPrice decimal.Decimal, ttl time.Duration, now time.Time) (Draft, error) {
	if len(seats) == 0 {
		return Draft{}, ErrEmptySelection
	}
	d := Draft{
		ID:        uuid.New(),
		Showtime:  showtime,
		Seats:     slices.Clone(seats),
		SeatPrice: seatPrice,
		CreatedAt: now,
	}
	if ttl > 0 {
		d.ExpiresAt = now.Add(ttl)
	}
	return d, nil
}

func (d Draft) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

func (d Draft) Total() decimal.Decimal {
	return d.SeatPrice.Mul(decimal.NewFromInt(int64(len(d.Seats))))
}

// Request assembles the payload for this draft, refusing expired drafts.
func (d Draft) Request(contact Contact, now time.Time) (model.BookingRequest, error) {
	if d.Expired(now) {
		return model.BookingRequest{}, ErrDraftExpired
	}
	return Assemble(d.Seats, d.Showtime.Id, contact, d.SeatPrice)
}
