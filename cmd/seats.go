package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"movie-booking-cli/model"
	"movie-booking-cli/seating"
)

func newSeatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seats SHOWTIME_ID",
		Short: "Print the seat map of a showtime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.client.GetShowtime(cmd.Context(), id)
			if err != nil {
				return a.fail(err, "Could not load the seat map.")
			}
			return renderSeats(cmd, st)
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func renderSeats(cmd *cobra.Command, st model.Showtime) error {
	layout, err := seating.ParseLayout(*st.SeatLayout)
	if err != nil {
		return err
	}
	sel := seating.New(layout, st.BookedSeats)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s • %s\n\n", st.Movie.Title, st.Label())

	t := table.NewWriter()
	t.SetOutputMirror(out)
	header := table.Row{""}
	for n := 1; n <= layout.SeatsPerRow; n++ {
		header = append(header, n)
	}
	t.AppendHeader(header)
	for _, row := range layout.Rows {
		line := table.Row{row}
		for _, id := range layout.Seats(row) {
			if sel.IsBooked(id) {
				line = append(line, "XX")
			} else {
				line = append(line, "[]")
			}
		}
		t.AppendRow(line)
	}
	t.Style().Options.SeparateColumns = false
	t.Render()

	fmt.Fprintf(out, "SCREEN this way • [] available • XX booked • %d of %d seats available\n", sel.Available(), layout.Capacity())
	return nil
}
