package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"movie-booking-cli/booking"
	"movie-booking-cli/service"
	"movie-booking-cli/store"
)

type bookingForm struct {
	name  textinput.Model
	email textinput.Model
	focus int
	err   string
}

func newBookingForm() bookingForm {
	return bookingForm{
		name:  newTextInput("Name", "Jane Doe"),
		email: newTextInput("Email", "you@example.com"),
	}
}

func newTextInput(label string, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = fmt.Sprintf("%-7s ", label+":")
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	ti.Width = 40
	return ti
}

func (f *bookingForm) focusField(i int) tea.Cmd {
	f.focus = i
	if i == 0 {
		f.email.Blur()
		return f.name.Focus()
	}
	f.name.Blur()
	return f.email.Focus()
}

func (f bookingForm) contact() booking.Contact {
	return booking.Contact{Name: f.name.Value(), Email: f.email.Value()}
}

func (m appModel) updateBookingForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.goBack()
	case "tab", "down", "shift+tab", "up":
		return m, m.form.focusField((m.form.focus + 1) % 2)
	case "enter":
		if m.form.focus == 0 {
			return m, m.form.focusField(1)
		}
		return m.submitBooking()
	case "ctrl+s":
		return m.submitBooking()
	}

	var cmd tea.Cmd
	if m.form.focus == 0 {
		m.form.name, cmd = m.form.name.Update(msg)
	} else {
		m.form.email, cmd = m.form.email.Update(msg)
	}
	return m, cmd
}

func (m appModel) submitBooking() (tea.Model, tea.Cmd) {
	if m.submitting || m.draft == nil {
		return m, nil
	}
	req, err := m.draft.Request(m.form.contact(), m.now())
	if errors.Is(err, booking.ErrDraftExpired) {
		m.draft = nil
		m.form.err = ""
		m.notice = service.UserMessage(err, "") + " Press r to refresh the seat map."
		m.state = stateShowSeatMap
		return m, nil
	}
	if err != nil {
		m.form.err = service.UserMessage(err, "Check your details.")
		return m, nil
	}

	m.form.err = ""
	m.submitting = true
	m.state = stateSubmitting
	m.logger.WithFields(logrus.Fields{
		"draft":    m.draft.ID.String(),
		"showtime": req.Showtime,
		"seats":    strings.Join(req.Seats, ","),
	}).Info("submitting booking")
	return m, tea.Batch(m.createBookingCmd(req), m.spinner.Tick)
}

func (m appModel) applyBooking(msg bookingMsg) (tea.Model, tea.Cmd) {
	if m.state != stateSubmitting {
		return m, nil
	}
	m.submitting = false
	if msg.err != nil {
		text := service.UserMessage(msg.err, "Booking failed. Please try again.")
		if service.IsConflict(msg.err) {
			text += " Press esc, then r to refresh the seat map."
		}
		m.form.err = text
		m.state = stateBookingForm
		return m, nil
	}

	b := msg.booking
	if m.draft != nil && (b.Showtime.Id == 0 || b.Showtime.Id == m.draft.Showtime.Id) && b.Showtime.Date == "" {
		b.Showtime = m.draft.Showtime
	}
	qr, err := booking.TicketQR(b)
	if err != nil {
		m.logger.WithField("error", err).Warn("render ticket qr")
	}

	email := b.UserEmail
	if email == "" {
		email = m.form.contact().Normalize().Email
	}
	if err := store.RememberEmail(email); err != nil {
		m.logger.WithField("error", err).Debug("remember email")
	}
	m.historyEmail.SetValue(email)

	m.confirmed = &b
	m.ticketQR = qr
	m.draft = nil
	m.selection = nil
	m.notice = ""
	m.state = stateConfirmed
	return m, nil
}

func (m appModel) bookingFormView() string {
	if m.draft == nil {
		return "No seats selected."
	}
	title := lipgloss.NewStyle().Bold(true).Render("Checkout")
	lines := []string{
		title,
		hint(fmt.Sprintf("%s • %s", m.movie.Title, m.draft.Showtime.Label())),
		"",
		fmt.Sprintf("Seats: %s", strings.Join(m.draft.Seats, ", ")),
		fmt.Sprintf("%d × %s = %s", len(m.draft.Seats), formatPrice(m.draft.SeatPrice), lipgloss.NewStyle().Bold(true).Render(formatPrice(m.draft.Total()))),
		"",
		m.form.name.View(),
		m.form.email.View(),
		"",
	}
	if m.form.err != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.form.err), "")
	}
	if m.state == stateSubmitting {
		lines = append(lines, fmt.Sprintf("%s Booking your seats...", m.spinner.View()))
	} else {
		lines = append(lines, hint("Press enter on the email field to confirm. Nothing is charged."))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) confirmationView() string {
	if m.confirmed == nil {
		return ""
	}
	b := m.confirmed
	chip := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("2")).
		Padding(0, 2)
	lines := []string{
		chip.Render("Booking Confirmed"),
		"",
		fmt.Sprintf("Booking #%d", b.Id),
	}
	if b.Showtime.Movie.Title != "" {
		lines = append(lines, b.Showtime.Movie.Title)
	} else if m.movie.Title != "" {
		lines = append(lines, m.movie.Title)
	}
	if b.Showtime.Date != "" {
		lines = append(lines, b.Showtime.Label())
	}
	lines = append(lines,
		fmt.Sprintf("Seats: %s", strings.Join(b.Seats, ", ")),
		fmt.Sprintf("Paid: %s", formatPrice(b.AmountPaid)),
	)
	if b.UserEmail != "" {
		lines = append(lines, fmt.Sprintf("Email: %s", b.UserEmail))
	}
	if m.ticketQR != "" {
		lines = append(lines, "", m.ticketQR, hint(booking.TicketCode(*b)))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) openHistoryPrompt() (tea.Model, tea.Cmd, bool) {
	m.historyReturnState = m.state
	m.historyErr = ""
	if strings.TrimSpace(m.historyEmail.Value()) == "" {
		if email, err := store.LoadRememberedEmail(); err == nil && email != "" {
			m.historyEmail.SetValue(email)
		}
	}
	m.state = stateHistoryEmail
	return m, m.historyEmail.Focus(), true
}

func (m appModel) updateHistoryEmail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.goBack()
	case "enter":
		email := strings.TrimSpace(m.historyEmail.Value())
		if !booking.LooksLikeEmail(email) {
			m.historyErr = booking.ErrInvalidEmail.Reason
			return m, nil
		}
		m.historyErr = ""
		m.historyEmail.Blur()
		m.state = stateLoadingHistory
		return m, tea.Batch(m.fetchBookingsCmd(email), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.historyEmail, cmd = m.historyEmail.Update(msg)
	return m, cmd
}

func (m appModel) historyEmailView() string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("My Bookings"),
		hint("Enter the email you booked with."),
		"",
		m.historyEmail.View(),
	}
	if m.historyErr != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.historyErr))
	}
	return strings.Join(lines, "\n")
}
