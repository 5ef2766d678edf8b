package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"movie-booking-cli/model"
	"movie-booking-cli/service"
	"movie-booking-cli/store"
)

func (m appModel) fetchMoviesCmd(force bool) tea.Cmd {
	filters := service.MovieFilters{}
	key := filters.Key()
	return func() tea.Msg {
		cached, fresh, cacheErr := store.LoadMovieCache(key, m.cfg.MovieCacheTTL)
		if !force && cacheErr == nil && fresh && len(cached.Results) > 0 {
			return moviesMsg{page: cached}
		}
		ctx := context.Background()
		page, err := m.client.ListMovies(ctx, filters)
		if err != nil {
			if cacheErr == nil && len(cached.Results) > 0 {
				m.logger.WithField("error", err).Warn("movie list unavailable, using cache")
				return moviesMsg{page: cached, stale: true}
			}
			return moviesMsg{err: err}
		}
		if len(page.Results) > 0 {
			if err := store.SaveMovieCache(key, page); err != nil {
				m.logger.WithField("error", err).Debug("save movie cache")
			}
		}
		return moviesMsg{page: page}
	}
}

func (m appModel) fetchShowtimesCmd(movieID int64) tea.Cmd {
	return func() tea.Msg {
		if cached, fresh, err := store.LoadShowtimeCache(movieID, "", m.cfg.ShowtimeCacheTTL); err == nil && fresh && len(cached) > 0 {
			return showtimesMsg{movieID: movieID, showtimes: cached}
		}
		ctx := context.Background()
		showtimes, err := m.client.ListShowtimes(ctx, service.ShowtimeFilters{MovieID: movieID})
		if err == nil && len(showtimes) > 0 {
			_ = store.SaveShowtimeCache(movieID, "", showtimes)
		}
		return showtimesMsg{movieID: movieID, showtimes: showtimes, err: err}
	}
}

func (m appModel) fetchUpcomingCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		showtimes, err := m.client.UpcomingShowtimes(ctx, nil)
		return upcomingMsg{showtimes: showtimes, err: err}
	}
}

// Seat maps are never cached: booked seats change between requests.
func (m appModel) fetchSeatMapCmd(showtimeID int64, reload bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		showtime, err := m.client.GetShowtime(ctx, showtimeID)
		return seatMapMsg{showtime: showtime, reload: reload, err: err}
	}
}

func (m appModel) createBookingCmd(req model.BookingRequest) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		b, err := m.client.CreateBooking(ctx, req)
		return bookingMsg{booking: b, err: err}
	}
}

func (m appModel) fetchBookingsCmd(email string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		bookings, err := m.client.ListBookings(ctx, email)
		return historyMsg{email: email, bookings: bookings, err: err}
	}
}

func upcomingOnly(showtimes []model.Showtime, now time.Time) []model.Showtime {
	out := make([]model.Showtime, 0, len(showtimes))
	for _, st := range showtimes {
		start, err := st.StartsAt(now.Location())
		if err != nil || !start.Before(now) {
			out = append(out, st)
		}
	}
	return out
}
