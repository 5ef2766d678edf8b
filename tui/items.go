package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/shopspring/decimal"

	"movie-booking-cli/model"
	"movie-booking-cli/seating"
)

type movieItem struct {
	movie model.Movie
}

func (m movieItem) Title() string {
	return m.movie.Title
}

func (m movieItem) Description() string {
	parts := []string{}
	for _, p := range []string{m.movie.Genre, m.movie.DurationLabel(), m.movie.ReleaseDate} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{m.movie.Title, m.movie.Genre, m.movie.Director, m.movie.Cast, m.movie.Language}, " "))
}

type showtimeItem struct {
	showtime  model.Showtime
	withMovie bool
}

func (s showtimeItem) Title() string {
	if s.withMovie && s.showtime.Movie.Title != "" {
		return fmt.Sprintf("%s • %s", s.showtime.Movie.Title, s.showtime.Label())
	}
	return s.showtime.Label()
}

func (s showtimeItem) Description() string {
	if s.showtime.SeatLayout == nil {
		return ""
	}
	layout, err := seating.ParseLayout(*s.showtime.SeatLayout)
	if err != nil {
		return ""
	}
	capacity := layout.Capacity()
	free := capacity - len(s.showtime.BookedSeats)
	if free <= 0 {
		return "Sold out"
	}
	return fmt.Sprintf("%d of %d seats available", free, capacity)
}

func (s showtimeItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{s.showtime.Movie.Title, s.showtime.Date, s.showtime.Time, s.showtime.Screen}, " "))
}

type bookingItem struct {
	booking model.Booking
}

func (b bookingItem) Title() string {
	title := fmt.Sprintf("#%d", b.booking.Id)
	if b.booking.Showtime.Movie.Title != "" {
		title += " • " + b.booking.Showtime.Movie.Title
	}
	return title
}

func (b bookingItem) Description() string {
	parts := []string{}
	if b.booking.Showtime.Date != "" {
		parts = append(parts, b.booking.Showtime.Label())
	}
	if len(b.booking.Seats) > 0 {
		parts = append(parts, "Seats "+strings.Join(b.booking.Seats, ", "))
	}
	parts = append(parts, formatPrice(b.booking.AmountPaid))
	if !b.booking.BookingTime.IsZero() {
		parts = append(parts, "booked "+b.booking.BookingTime.Local().Format("Jan 2 15:04"))
	}
	return strings.Join(parts, " • ")
}

func (b bookingItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{
		fmt.Sprintf("%d", b.booking.Id),
		b.booking.Showtime.Movie.Title,
		b.booking.Showtime.Date,
		strings.Join(b.booking.Seats, " "),
	}, " "))
}

func buildMovieItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, mv := range movies {
		items = append(items, movieItem{movie: mv})
	}
	return items
}

func buildShowtimeItems(showtimes []model.Showtime, withMovie bool) []list.Item {
	items := make([]list.Item, 0, len(showtimes))
	for _, st := range showtimes {
		items = append(items, showtimeItem{showtime: st, withMovie: withMovie})
	}
	return items
}

func buildBookingItems(bookings []model.Booking) []list.Item {
	sorted := make([]model.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BookingTime.After(sorted[j].BookingTime)
	})
	items := make([]list.Item, 0, len(sorted))
	for _, b := range sorted {
		items = append(items, bookingItem{booking: b})
	}
	return items
}

// sortShowtimes orders by start time. Entries with an unparseable date keep
// their relative order at the end.
func sortShowtimes(showtimes []model.Showtime) []model.Showtime {
	sorted := make([]model.Showtime, len(showtimes))
	copy(sorted, showtimes)
	start := func(st model.Showtime) (time.Time, bool) {
		t, err := st.StartsAt(time.Local)
		return t, err == nil
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, okA := start(sorted[i])
		b, okB := start(sorted[j])
		if okA != okB {
			return okA
		}
		return a.Before(b)
	})
	return sorted
}

func formatPrice(price decimal.Decimal) string {
	return "₹" + price.StringFixed(2)
}
