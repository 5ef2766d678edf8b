package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"movie-booking-cli/model"
	"movie-booking-cli/service"
)

func newMoviesCmd(a *app) *cobra.Command {
	var filters service.MovieFilters
	var genres bool

	c := &cobra.Command{
		Use:   "movies",
		Short: "List movies",
		Long:  `List movies, optionally filtered by title search, genre or release date.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client.ListMovies(cmd.Context(), filters)
			if err != nil {
				return a.fail(err, "Could not load movies.")
			}
			if genres {
				renderGenres(cmd, page.Results)
				return nil
			}
			renderMovies(cmd, page)
			return nil
		},
	}
	c.Flags().StringVar(&filters.Search, "search", "", "search titles, directors and cast")
	c.Flags().StringVar(&filters.Genre, "genre", "", "only movies of this genre")
	c.Flags().StringVar(&filters.ReleaseDate, "release-date", "", "only movies released on this date (YYYY-MM-DD)")
	c.Flags().StringVar(&filters.Ordering, "ordering", "", "sort field, prefix with - for descending (ex: -release_date)")
	c.Flags().IntVar(&filters.Page, "page", 0, "result page")
	c.Flags().BoolVar(&genres, "genres", false, "list the genres in the result instead of the movies")
	return c
}

func renderMovies(cmd *cobra.Command, page model.Page[model.Movie]) {
	out := cmd.OutOrStdout()
	if len(page.Results) == 0 {
		fmt.Fprintln(out, "No movies found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Title", "Genre", "Duration", "Release", "Language"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
	})
	for _, mv := range page.Results {
		t.AppendRow(table.Row{mv.Id, mv.Title, mv.Genre, mv.DurationLabel(), mv.ReleaseDate, mv.Language})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d", len(page.Results), max(page.Count, len(page.Results)))})
	t.Render()

	if page.HasNext() {
		fmt.Fprintln(out, "More results available: use --page to see the next page.")
	}
}

func renderGenres(cmd *cobra.Command, movies []model.Movie) {
	counts := make(map[string]int)
	for _, mv := range movies {
		for _, g := range strings.Split(mv.Genre, ",") {
			if g = strings.TrimSpace(g); g != "" {
				counts[g]++
			}
		}
	}
	out := cmd.OutOrStdout()
	if len(counts) == 0 {
		fmt.Fprintln(out, "No genres found.")
		return
	}

	names := maps.Keys(counts)
	slices.Sort(names)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Genre", "Movies"})
	for _, name := range names {
		t.AppendRow(table.Row{name, counts[name]})
	}
	t.Render()
}
