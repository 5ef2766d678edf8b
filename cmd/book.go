package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"movie-booking-cli/booking"
	"movie-booking-cli/model"
	"movie-booking-cli/seating"
	"movie-booking-cli/service"
	"movie-booking-cli/store"
)

func newBookCmd(a *app) *cobra.Command {
	var showtimeID int64
	var seats string
	var contact booking.Contact
	var yes bool

	c := &cobra.Command{
		Use:   "book",
		Short: "Book seats for a showtime",
		Long:  `Book seats for a showtime. Missing name or email are asked for interactively.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showtimeID <= 0 {
				return errors.New("--showtime is required")
			}
			st, err := a.client.GetShowtime(cmd.Context(), showtimeID)
			if err != nil {
				return a.fail(err, "Could not load the showtime.")
			}
			sel, err := selectSeats(st, splitSeats(seats), a.cfg.MaxSeats)
			if err != nil {
				return err
			}

			if strings.TrimSpace(contact.Name) == "" {
				if contact.Name, err = promptName(); err != nil {
					return err
				}
			}
			if strings.TrimSpace(contact.Email) == "" {
				remembered, _ := store.LoadRememberedEmail()
				if contact.Email, err = promptEmail(remembered); err != nil {
					return err
				}
			}

			req, err := booking.Assemble(sel.Seats(), st.Id, contact, a.cfg.SeatPrice)
			if err != nil {
				return a.fail(err, "Invalid booking.")
			}
			if !yes {
				if err := confirmBooking(st, req); err != nil {
					return err
				}
			}

			b, err := a.client.CreateBooking(cmd.Context(), req)
			if err != nil {
				if service.IsConflict(err) {
					a.logger.WithFields(logrus.Fields{"showtime": st.Id, "seats": req.Seats}).Warn("seat conflict")
					return fmt.Errorf("%s Run `seats %d` to see what is still free", service.UserMessage(err, "Some seats are no longer available."), st.Id)
				}
				return a.fail(err, "Booking failed.")
			}
			if b.Showtime.Date == "" {
				b.Showtime = st
			}
			if err := store.RememberEmail(req.UserEmail); err != nil {
				a.logger.WithField("error", err).Debug("remember email")
			}
			renderReceipt(cmd, b)
			return nil
		},
	}
	c.Flags().Int64Var(&showtimeID, "showtime", 0, "showtime id")
	c.Flags().StringVar(&seats, "seats", "", "comma separated seats (ex: A1,A2)")
	c.Flags().StringVar(&contact.Name, "name", "", "name on the booking")
	c.Flags().StringVar(&contact.Email, "email", "", "email for the booking")
	c.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return c
}

func splitSeats(raw string) []string {
	var seats []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			seats = append(seats, s)
		}
	}
	return seats
}

// selectSeats applies the requested seats to a fresh selection, rejecting
// unknown and booked seats.
func selectSeats(st model.Showtime, seats []string, maxSeats int) (*seating.Selection, error) {
	layout, err := seating.ParseLayout(*st.SeatLayout)
	if err != nil {
		return nil, err
	}
	sel := seating.New(layout, st.BookedSeats)
	for _, id := range seats {
		switch {
		case !layout.Contains(id):
			return nil, fmt.Errorf("seat %s does not exist for this showtime", id)
		case sel.IsBooked(id):
			return nil, fmt.Errorf("seat %s is already booked", id)
		case sel.Status(id) == seating.Selected:
			continue
		case maxSeats > 0 && sel.Count() >= maxSeats:
			return nil, fmt.Errorf("you can book up to %d seats at once", maxSeats)
		}
		sel.Toggle(id)
	}
	if sel.Count() == 0 {
		return nil, errors.New(booking.ErrEmptySelection.Reason)
	}
	return sel, nil
}

func promptName() (string, error) {
	prompt := promptui.Prompt{
		Label: "Your name",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New(booking.ErrMissingName.Reason)
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptEmail(def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   "Your email",
		Default: def,
		Validate: func(input string) error {
			if !booking.LooksLikeEmail(input) {
				return errors.New(booking.ErrInvalidEmail.Reason)
			}
			return nil
		},
	}
	return prompt.Run()
}

func confirmBooking(st model.Showtime, req model.BookingRequest) error {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Book %s for %s (%s)", strings.Join(req.Seats, ", "), st.Movie.Title, formatPrice(req.AmountPaid)),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return errors.New("booking cancelled")
	}
	return nil
}

func renderReceipt(cmd *cobra.Command, b model.Booking) {
	out := cmd.OutOrStdout()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Booking confirmed")
	t.AppendRows([]table.Row{
		{"Booking", fmt.Sprintf("#%d", b.Id)},
		{"Movie", b.Showtime.Movie.Title},
		{"Show", b.Showtime.Label()},
		{"Seats", strings.Join(b.Seats, ", ")},
		{"Paid", formatPrice(b.AmountPaid)},
		{"Email", b.UserEmail},
	})
	t.Render()

	qr, err := booking.TicketQR(b)
	if err != nil {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, qr)
	fmt.Fprintln(out, booking.TicketCode(b))
}
