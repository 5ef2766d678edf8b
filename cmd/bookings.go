package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"movie-booking-cli/booking"
	"movie-booking-cli/model"
	"movie-booking-cli/store"
)

func newBookingsCmd(a *app) *cobra.Command {
	var email string

	c := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings made with an email",
		Long:  `List bookings made with an email. Defaults to the email of your last booking.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				email, _ = store.LoadRememberedEmail()
			}
			if email == "" {
				var err error
				if email, err = promptEmail(""); err != nil {
					return err
				}
			}
			if !booking.LooksLikeEmail(email) {
				return fmt.Errorf("invalid email %q", email)
			}

			bookings, err := a.client.ListBookings(cmd.Context(), email)
			if err != nil {
				return a.fail(err, "Could not load bookings.")
			}
			renderBookings(cmd, email, bookings)
			return nil
		},
	}
	c.Flags().StringVar(&email, "email", "", "email used for the bookings")
	return c
}

func renderBookings(cmd *cobra.Command, email string, bookings []model.Booking) {
	out := cmd.OutOrStdout()
	if len(bookings) == 0 {
		fmt.Fprintf(out, "No bookings found for %s.\n", email)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Bookings for " + email)
	t.AppendHeader(table.Row{"ID", "Movie", "Show", "Seats", "Paid", "Booked"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 30},
	})
	total := decimal.Zero
	for _, b := range bookings {
		booked := ""
		if !b.BookingTime.IsZero() {
			booked = b.BookingTime.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{b.Id, b.Showtime.Movie.Title, b.Showtime.Label(), strings.Join(b.Seats, ", "), formatPrice(b.AmountPaid), booked})
		total = total.Add(b.AmountPaid)
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d bookings", len(bookings)), formatPrice(total), ""})
	t.Render()
}

func formatPrice(price decimal.Decimal) string {
	return "₹" + price.StringFixed(2)
}
