package booking

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"movie-booking-cli/model"
)

// TicketCode is the text encoded in a ticket's QR code.
func TicketCode(b model.Booking) string {
	return fmt.Sprintf("BOOKING-%d|SHOWTIME-%d|SEATS-%s", b.Id, b.Showtime.Id, strings.Join(b.Seats, ","))
}

// TicketQR renders the ticket code as a QR block for a terminal.
func TicketQR(b model.Booking) (string, error) {
	q, err := qrcode.New(TicketCode(b), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("render ticket qr: %w", err)
	}
	return q.ToSmallString(false), nil
}
