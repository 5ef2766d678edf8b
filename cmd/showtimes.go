package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"movie-booking-cli/model"
	"movie-booking-cli/seating"
	"movie-booking-cli/service"
)

func newShowtimesCmd(a *app) *cobra.Command {
	var movieID int64
	var date string
	var upcoming bool

	c := &cobra.Command{
		Use:   "showtimes",
		Short: "List showtimes for a movie or across all movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if movieID <= 0 && !upcoming {
				return errors.New("pass --movie ID or --upcoming")
			}
			var day *time.Time
			if date = strings.TrimSpace(date); date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
				day = &parsed
			}

			var showtimes []model.Showtime
			var err error
			if upcoming {
				showtimes, err = a.client.UpcomingShowtimes(cmd.Context(), day)
			} else {
				showtimes, err = a.client.ListShowtimes(cmd.Context(), service.ShowtimeFilters{MovieID: movieID, Date: day})
			}
			if err != nil {
				return a.fail(err, "Could not load showtimes.")
			}
			renderShowtimes(cmd, showtimes, upcoming)
			return nil
		},
	}
	c.Flags().Int64Var(&movieID, "movie", 0, "movie id")
	c.Flags().StringVar(&date, "date", "", "only this date (YYYY-MM-DD)")
	c.Flags().BoolVar(&upcoming, "upcoming", false, "list showtimes for all movies")
	return c
}

func renderShowtimes(cmd *cobra.Command, showtimes []model.Showtime, withMovie bool) {
	out := cmd.OutOrStdout()
	if len(showtimes) == 0 {
		fmt.Fprintln(out, "No showtimes found.")
		return
	}

	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	header := table.Row{"ID", "Date", "Time", "Screen", "Seats"}
	if withMovie {
		header = append(table.Row{"Movie"}, header...)
	}
	t.AppendHeader(header, rowConfigAutoMerge)
	if withMovie {
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, AutoMerge: true, WidthMax: 30},
		})
	}
	for _, st := range showtimes {
		row := table.Row{st.Id, st.Date, clock(st.Time), st.Screen, seatsLabel(st)}
		if withMovie {
			row = append(table.Row{st.Movie.Title}, row...)
		}
		t.AppendRow(row, rowConfigAutoMerge)
	}
	t.Render()
}

func clock(s string) string {
	if len(s) == len("15:04:05") {
		return s[:5]
	}
	return s
}

func seatsLabel(st model.Showtime) string {
	if st.SeatLayout == nil {
		return "-"
	}
	layout, err := seating.ParseLayout(*st.SeatLayout)
	if err != nil {
		return "-"
	}
	free := layout.Capacity() - len(st.BookedSeats)
	if free <= 0 {
		return "sold out"
	}
	return fmt.Sprintf("%d/%d free", free, layout.Capacity())
}
