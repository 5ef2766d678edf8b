package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingRequest is the create-booking payload.
type BookingRequest struct {
	UserName   string          `json:"user_name"`
	UserEmail  string          `json:"user_email"`
	Showtime   int64           `json:"showtime"`
	Seats      []string        `json:"seats"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

type Booking struct {
	Id          int64           `json:"id"`
	UserName    string          `json:"user_name"`
	UserEmail   string          `json:"user_email"`
	Showtime    Showtime        `json:"showtime"`
	Seats       []string        `json:"seats"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	BookingTime time.Time       `json:"booking_time"`
}
