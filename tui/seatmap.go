package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"movie-booking-cli/booking"
	"movie-booking-cli/model"
	"movie-booking-cli/seating"
	"movie-booking-cli/service"
	"movie-booking-cli/store"
)

func (m appModel) applySeatMap(msg seatMapMsg) (tea.Model, tea.Cmd) {
	if msg.reload {
		if m.state != stateShowSeatMap || m.selection == nil {
			return m, nil
		}
		if msg.err != nil {
			m.notice = service.UserMessage(msg.err, "Could not reload the seat map.")
			return m, nil
		}
	} else {
		if m.state != stateLoadingSeatMap {
			return m, nil
		}
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, m.seatReturnState)
		}
	}

	if msg.showtime.SeatLayout == nil {
		err := &model.ShapeError{Entity: "showtime", Field: "seat_layout", Reason: "missing"}
		if msg.reload {
			m.notice = service.UserMessage(err, "Could not reload the seat map.")
			return m, nil
		}
		return m, errWithOptionsCmd(err, m.seatReturnState)
	}
	layout, err := seating.ParseLayout(*msg.showtime.SeatLayout)
	if err != nil {
		if msg.reload {
			m.notice = service.UserMessage(err, "Could not reload the seat map.")
			return m, nil
		}
		return m, errWithOptionsCmd(err, m.seatReturnState)
	}

	if msg.reload && m.showtime.Id == msg.showtime.Id {
		dropped := m.rebaseSelection(layout, msg.showtime.BookedSeats)
		if len(dropped) > 0 {
			m.notice = fmt.Sprintf("No longer available: %s. Removed from your selection.", strings.Join(dropped, ", "))
		} else {
			m.notice = "Seat map refreshed."
		}
	} else {
		m.selection = seating.New(layout, msg.showtime.BookedSeats)
		m.cursorRow, m.cursorCol = 0, 0
		m.notice = ""
	}
	m.showtime = msg.showtime
	if msg.showtime.Movie.Title != "" {
		m.movie = msg.showtime.Movie
	}
	m.clampCursor()
	m.state = stateShowSeatMap
	return m, nil
}

// rebaseSelection swaps in a fresh booked-seat snapshot and returns the
// selected seats that had to be dropped.
func (m *appModel) rebaseSelection(layout seating.Layout, booked []string) []string {
	current := m.selection.Layout()
	if slices.Equal(current.Rows, layout.Rows) && current.SeatsPerRow == layout.SeatsPerRow {
		return m.selection.Rebase(booked)
	}
	previous := m.selection.Seats()
	m.selection = seating.New(layout, booked)
	var dropped []string
	for _, id := range previous {
		if !m.selection.Toggle(id) {
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (m appModel) handleSeatMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.selection == nil {
		return m, nil, false
	}
	if msg.Type == tea.KeySpace {
		m.toggleAtCursor()
		return m, nil, true
	}
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case " ", "enter", "x":
		m.toggleAtCursor()
	case "c":
		m.selection.Reset()
		m.notice = "Selection cleared."
	case "n":
		m.showSeatNumbers = !m.showSeatNumbers
	case "r":
		m.notice = "Reloading seat map..."
		return m, m.fetchSeatMapCmd(m.showtime.Id, true), true
	case "p":
		return m.proceedToCheckout()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m *appModel) moveCursor(dRow, dCol int) {
	m.cursorRow += dRow
	m.cursorCol += dCol
	m.clampCursor()
}

func (m *appModel) clampCursor() {
	if m.selection == nil {
		return
	}
	layout := m.selection.Layout()
	m.cursorRow = max(0, min(m.cursorRow, len(layout.Rows)-1))
	m.cursorCol = max(0, min(m.cursorCol, layout.SeatsPerRow-1))
}

func (m appModel) cursorSeat() string {
	layout := m.selection.Layout()
	if len(layout.Rows) == 0 {
		return ""
	}
	return seating.SeatID(layout.Rows[m.cursorRow], m.cursorCol+1)
}

func (m *appModel) toggleAtCursor() {
	id := m.cursorSeat()
	if id == "" {
		return
	}
	if m.selection.IsBooked(id) {
		m.notice = fmt.Sprintf("%s is already booked.", id)
		return
	}
	if m.selection.Status(id) == seating.Available && m.cfg.MaxSeats > 0 && m.selection.Count() >= m.cfg.MaxSeats {
		m.notice = fmt.Sprintf("You can select up to %d seats.", m.cfg.MaxSeats)
		return
	}
	m.selection.Toggle(id)
	m.notice = ""
}

func (m appModel) proceedToCheckout() (tea.Model, tea.Cmd, bool) {
	draft, err := booking.NewDraft(m.showtime, m.selection.Seats(), m.cfg.SeatPrice, m.cfg.DraftTTL, m.now())
	if err != nil {
		m.notice = service.UserMessage(err, "Could not start checkout.")
		return m, nil, true
	}
	m.draft = &draft
	m.form.err = ""
	if strings.TrimSpace(m.form.email.Value()) == "" {
		if email, err := store.LoadRememberedEmail(); err == nil && email != "" {
			m.form.email.SetValue(email)
		}
	}
	m.state = stateBookingForm
	return m, m.form.focusField(0), true
}

func (m appModel) renderSeatMap() string {
	if m.selection == nil {
		return "No seat map data."
	}
	layout := m.selection.Layout()
	if len(layout.Rows) == 0 || layout.SeatsPerRow == 0 {
		return "No seat map data."
	}

	rowWidth := 1
	for _, row := range layout.Rows {
		rowWidth = max(rowWidth, len(row))
	}
	cellWidth := 2
	if m.showSeatNumbers {
		for _, row := range layout.Rows {
			cellWidth = max(cellWidth, len(seating.SeatID(row, layout.SeatsPerRow)))
		}
	}
	gridWidth := layout.SeatsPerRow*(cellWidth+1) - 1

	seatStyleAvailable := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleBooked := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStyleSelected := lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")).Bold(true)
	cursorStyle := lipgloss.NewStyle().Reverse(true).Bold(true)
	screenStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214"))
	screenBorderStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Background(lipgloss.Color("236"))

	var b strings.Builder
	screenBar := screenBarBlock(gridWidth, "SCREEN")
	pad := strings.Repeat(" ", rowWidth+1)
	b.WriteString(pad + screenBorderStyle.Render(screenBar.top) + "\n")
	b.WriteString(pad + screenStyle.Render(screenBar.mid) + "\n")
	b.WriteString(pad + screenBorderStyle.Render(screenBar.bot) + "\n\n")

	booked := 0
	for r, row := range layout.Rows {
		b.WriteString(fmt.Sprintf("%*s ", rowWidth, row))
		for n := 1; n <= layout.SeatsPerRow; n++ {
			id := seating.SeatID(row, n)
			status := m.selection.Status(id)
			text := seatToken(status)
			if m.showSeatNumbers && status != seating.Booked {
				text = id
			}
			rendered := padCell(text, cellWidth)
			switch {
			case r == m.cursorRow && n-1 == m.cursorCol:
				rendered = cursorStyle.Render(rendered)
			case status == seating.Booked:
				rendered = seatStyleBooked.Render(rendered)
			case status == seating.Selected:
				rendered = seatStyleSelected.Render(rendered)
			default:
				rendered = seatStyleAvailable.Render(rendered)
			}
			if status == seating.Booked {
				booked++
			}
			b.WriteString(rendered)
			if n < layout.SeatsPerRow {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf(" %-*s\n", rowWidth, row))
	}
	b.WriteString("\n")

	legend := "Legend: [] available • <> selected • XX booked • highlighted cell is the cursor"
	if m.showSeatNumbers {
		legend = "Legend: green available • yellow selected • XX booked • highlighted cell is the cursor"
	}
	total := layout.Capacity()
	counts := fmt.Sprintf("Cursor: %s • Available: %d • Booked: %d • Total: %d", m.cursorSeat(), total-booked-m.selection.Count(), booked, total)
	if m.cfg.MaxSeats > 0 {
		counts += fmt.Sprintf(" • Max per booking: %d", m.cfg.MaxSeats)
	}

	out := b.String() + hint(legend) + "\n" + hint(counts) + "\n\n" + m.selectionSummary()
	if m.notice != "" {
		out += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice)
	}
	return out
}

func (m appModel) selectionSummary() string {
	seats := m.selection.Seats()
	if len(seats) == 0 {
		return "No seats selected."
	}
	price := m.cfg.SeatPrice
	return fmt.Sprintf("Selected: %s • %d × %s = %s",
		strings.Join(seats, ", "),
		len(seats),
		formatPrice(price),
		formatPrice(m.selection.Total(price)),
	)
}

func seatToken(status seating.Status) string {
	switch status {
	case seating.Booked:
		return "XX"
	case seating.Selected:
		return "<>"
	default:
		return "[]"
	}
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}
