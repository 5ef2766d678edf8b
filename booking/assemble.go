// Package booking turns a finished seat selection and contact details into
// the create-booking request, and carries the checkout state between views.
package booking

import (
	"slices"

	"github.com/shopspring/decimal"

	"movie-booking-cli/model"
)

// Assemble builds the create-booking request. The amount is always
// recomputed from seatPrice and the number of seats. It never touches the
// network.
func Assemble(seats []string, showtimeID int64, contact Contact, seatPrice decimal.Decimal) (model.BookingRequest, error) {
	if len(seats) == 0 {
		return model.BookingRequest{}, ErrEmptySelection
	}
	if showtimeID <= 0 {
		return model.BookingRequest{}, ErrMissingShowtime
	}
	contact = contact.Normalize()
	if err := contact.Validate(); err != nil {
		return model.BookingRequest{}, err
	}

	return model.BookingRequest{
		UserName:   contact.Name,
		UserEmail:  contact.Email,
		Showtime:   showtimeID,
		Seats:      slices.Clone(seats),
		AmountPaid: seatPrice.Mul(decimal.NewFromInt(int64(len(seats)))),
	}, nil
}
