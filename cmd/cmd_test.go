package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"movie-booking-cli/store"
)

const showtimeFixture = `{
  "id": 7,
  "movie": {"id": 3, "title": "Dune"},
  "date": "2026-10-20",
  "time": "19:30:00",
  "screen": "2",
  "seat_layout": {"rows": "A,B", "seats_per_row": 3},
  "booked_seats": ["A1"]
}`

func setTestEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("MOVIEBOOK_LOG_FILE", filepath.Join(dir, "app.log"))
	t.Setenv("MOVIEBOOK_SEAT_PRICE", "190")
	t.Setenv("MOVIEBOOK_MAX_SEATS", "4")
	t.Setenv("MOVIEBOOK_MAX_ATTEMPTS", "1")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func run(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("1.2.3", "abc123")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if server != nil {
		args = append(args, "--base-url", server.URL)
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	setTestEnv(t)
	out, err := run(t, nil, "version")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if strings.TrimSpace(out) != "movie-booking-cli 1.2.3 (abc123)" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestMovies_RendersTableWithFilters(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/movies/" || r.URL.Query().Get("genre") != "Sci-Fi" {
			t.Fatalf("unexpected request: %s", r.URL)
		}
		_, _ = w.Write([]byte(`{"count": 3, "next": "http://x/api/movies/?page=2", "results": [
			{"id": 3, "title": "Dune", "genre": "Sci-Fi, Drama", "duration": 155, "release_date": "2021-10-22", "language": "English"},
			{"id": 4, "title": "Arrival", "genre": "Sci-Fi", "duration": 116}
		]}`))
	}))
	defer server.Close()

	out, err := run(t, server, "movies", "--genre", "Sci-Fi")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{"dune", "arrival", "2h 35m", "2 of 3", "--page"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestMovies_Genres(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 3, "title": "Dune", "genre": "Sci-Fi, Drama"}, {"id": 4, "title": "Arrival", "genre": "Sci-Fi"}]`))
	}))
	defer server.Close()

	out, err := run(t, server, "movies", "--genres")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	drama := strings.Index(out, "Drama")
	scifi := strings.Index(out, "Sci-Fi")
	if drama < 0 || scifi < 0 || drama > scifi {
		t.Fatalf("expected sorted genres in output:\n%s", out)
	}
	if strings.Contains(out, "Arrival") {
		t.Fatalf("expected genres only, got:\n%s", out)
	}
}

func TestMovies_ServerErrorIsUserFacing(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html><body>down</body></html>`))
	}))
	defer server.Close()

	_, err := run(t, server, "movies")
	if err == nil || err.Error() != "Could not load movies." {
		t.Fatalf("expected fallback message, got %v", err)
	}
}

func TestShowtimes_RequiresMovieOrUpcoming(t *testing.T) {
	setTestEnv(t)
	if _, err := run(t, nil, "showtimes"); err == nil {
		t.Fatal("expected error")
	}
}

func TestShowtimes_Upcoming(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("movieDetails") != "true" || q.Get("date") != "2026-10-20" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"count": 1, "results": [{
			"id": 7, "movie": 3, "movie_details": {"id": 3, "title": "Dune"},
			"date": "2026-10-20", "time": "19:30:00", "screen": 2,
			"seat_layout": {"rows": "A,B", "seats_per_row": 3}, "booked_seats": ["A1"]
		}]}`))
	}))
	defer server.Close()

	out, err := run(t, server, "showtimes", "--upcoming", "--date", "2026-10-20")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{"Dune", "19:30", "5/6 free"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSeats_PrintsGrid(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/movies/showtimes/7/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(showtimeFixture))
	}))
	defer server.Close()

	out, err := run(t, server, "seats", "7")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if strings.Count(out, "XX") != 2 { // one booked seat plus the legend
		t.Fatalf("expected one booked seat, got:\n%s", out)
	}
	if !strings.Contains(out, "5 of 6 seats available") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestSeats_NotFound(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := run(t, server, "seats", "99")
	if err == nil || err.Error() != "Not found." {
		t.Fatalf("expected not found message, got %v", err)
	}
}

func TestBook_SubmitsAndRemembersEmail(t *testing.T) {
	setTestEnv(t)
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/movies/showtimes/7/":
			_, _ = w.Write([]byte(showtimeFixture))
		case r.Method == http.MethodPost && r.URL.Path == "/api/movies/bookings/create/":
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 42, "user_name": "Ada", "user_email": "ada@example.com", "showtime": 7,
				"seats": ["A2", "B3"], "amount_paid": "380.00", "booking_time": "2026-10-16T12:00:00Z"}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL)
		}
	}))
	defer server.Close()

	out, err := run(t, server, "book", "--showtime", "7", "--seats", " a2, b3 ", "--name", "Ada", "--email", "ada@example.com", "--yes")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if payload["amount_paid"] != "380" || payload["showtime"] != float64(7) {
		t.Fatalf("unexpected payload: %v", payload)
	}
	seats, _ := payload["seats"].([]any)
	if len(seats) != 2 || seats[0] != "A2" || seats[1] != "B3" {
		t.Fatalf("unexpected seats: %v", payload["seats"])
	}
	for _, want := range []string{"#42", "Dune", "₹380.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	email, err := store.LoadRememberedEmail()
	if err != nil || email != "ada@example.com" {
		t.Fatalf("expected remembered email, got %q (%v)", email, err)
	}
}

func TestBook_RejectsBookedSeatWithoutPosting(t *testing.T) {
	setTestEnv(t)
	var posts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt32(&posts, 1)
		}
		_, _ = w.Write([]byte(showtimeFixture))
	}))
	defer server.Close()

	for _, seats := range []string{"A1", "C1", "A2,A3,B1,B2,B3"} {
		_, err := run(t, server, "book", "--showtime", "7", "--seats", seats, "--name", "Ada", "--email", "ada@example.com", "--yes")
		if err == nil {
			t.Fatalf("expected error for seats %s", seats)
		}
	}
	if atomic.LoadInt32(&posts) != 0 {
		t.Fatalf("expected no booking request, got %d", posts)
	}
}

func TestBook_ConflictHintsSeatMap(t *testing.T) {
	setTestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail": "Seats A2 are already booked."}`))
			return
		}
		_, _ = w.Write([]byte(showtimeFixture))
	}))
	defer server.Close()

	_, err := run(t, server, "book", "--showtime", "7", "--seats", "A2", "--name", "Ada", "--email", "ada@example.com", "--yes")
	if err == nil || !strings.Contains(err.Error(), "Seats A2 are already booked.") || !strings.Contains(err.Error(), "seats 7") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBookings_DefaultsToRememberedEmail(t *testing.T) {
	setTestEnv(t)
	if err := store.RememberEmail("ada@example.com"); err != nil {
		t.Fatalf("remember: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_email"); got != "ada@example.com" {
			t.Fatalf("unexpected email: %q", got)
		}
		_, _ = w.Write([]byte(`{"count": 1, "results": [{"id": 42, "user_email": "ada@example.com",
			"showtime": {"id": 7, "movie": {"id": 3, "title": "Dune"}, "date": "2026-10-20", "time": "19:30:00"},
			"seats": ["A2"], "amount_paid": "190.00", "booking_time": "2026-10-16T12:00:00Z"}]}`))
	}))
	defer server.Close()

	out, err := run(t, server, "bookings")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	for _, want := range []string{"ada@example.com", "dune", "a2", "₹190.00", "1 bookings"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestBookings_RejectsInvalidEmail(t *testing.T) {
	setTestEnv(t)
	if _, err := run(t, nil, "bookings", "--email", "not-an-email"); err == nil {
		t.Fatal("expected error")
	}
}
