package tui

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"movie-booking-cli/booking"
	"movie-booking-cli/config"
	"movie-booking-cli/logging"
	"movie-booking-cli/model"
	"movie-booking-cli/service"
	"movie-booking-cli/store"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root+"/config")
	t.Setenv("XDG_CACHE_HOME", root+"/cache")
}

func newTestModel(t *testing.T, handler http.HandlerFunc) appModel {
	t.Helper()
	setTestConfigDir(t)

	cfg := config.FromEnv()
	cfg.SeatPrice = decimal.NewFromInt(190)
	cfg.MaxSeats = 0
	cfg.DraftTTL = 15 * time.Minute

	baseURL := "http://127.0.0.1:0"
	var httpClient *http.Client
	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		baseURL = server.URL
		httpClient = server.Client()
	}
	client := service.NewClient(baseURL, httpClient, service.WithRetry(1, time.Millisecond, time.Millisecond))

	m := New(cfg, client, logging.Discard()).(appModel)
	m.now = func() time.Time { return fixedNow }
	return m
}

func testShowtime(booked ...string) model.Showtime {
	return model.Showtime{
		Id:          7,
		Movie:       model.Movie{Id: 3, Title: "Dune"},
		Date:        "2026-10-20",
		Time:        "19:30:00",
		Screen:      "2",
		SeatLayout:  &model.SeatLayout{Rows: "A,B", SeatsPerRow: 3},
		BookedSeats: booked,
	}
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out, cmd
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = update(t, m, msg)
	}
	return m
}

func openSeatMap(t *testing.T, m appModel, st model.Showtime) appModel {
	t.Helper()
	m.state = stateLoadingSeatMap
	m.seatReturnState = stateShowShowtimes
	m, _ = update(t, m, seatMapMsg{showtime: st})
	if m.state != stateShowSeatMap {
		t.Fatalf("expected seat map state, got %d", m.state)
	}
	return m
}

func newFilterModel(t *testing.T, items []list.Item) *appModel {
	m := newTestModel(t, nil)
	m.state = stateSelectMovie
	m.movieList = newList("Select Movie")
	m.movieList.SetItems(items)
	return &m
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "Dune"},
		testItem{value: "Alien"},
	})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "d" {
		t.Fatalf("expected filter value to be %q, got %q", "d", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "du" {
		t.Fatalf("expected filter value to be %q, got %q", "du", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel(t, []list.Item{testItem{value: "Dune"}})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.movieList.FilterValue(); got != "d" {
		t.Fatalf("expected filter value to be %q, got %q", "d", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel(t, []list.Item{testItem{value: "Blade Runner"}})

	for _, r := range "blade" {
		_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}
	if got := m.movieList.FilterValue(); got != "blade " {
		t.Fatalf("expected filter value to be %q, got %q", "blade ", got)
	}
}

func TestMoviesMsg_EnterLoadsShowtimes(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = update(t, m, moviesMsg{page: model.Page[model.Movie]{Results: []model.Movie{
		{Id: 3, Title: "Dune"},
		{Id: 4, Title: "Alien"},
	}}})
	if m.state != stateSelectMovie || len(m.movieList.Items()) != 2 {
		t.Fatalf("expected movie list, got state %d with %d items", m.state, len(m.movieList.Items()))
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateLoadingShowtimes || cmd == nil {
		t.Fatalf("expected showtimes to load, got state %d", m.state)
	}
	if m.movie.Id != 3 {
		t.Fatalf("expected first movie selected, got %+v", m.movie)
	}

	m, _ = update(t, m, showtimesMsg{movieID: 4, showtimes: []model.Showtime{testShowtime()}})
	if m.state != stateLoadingShowtimes {
		t.Fatal("expected showtimes for another movie to be ignored")
	}
	m, _ = update(t, m, showtimesMsg{movieID: 3, showtimes: []model.Showtime{testShowtime()}})
	if m.state != stateShowShowtimes || len(m.showtimeList.Items()) != 1 {
		t.Fatalf("expected showtime list, got state %d", m.state)
	}
}

func TestSeatMap_ToggleAndBookedSeats(t *testing.T) {
	m := openSeatMap(t, newTestModel(t, nil), testShowtime("A1"))

	m = press(t, m, "space")
	if m.selection.Count() != 0 {
		t.Fatalf("expected booked seat to be ignored, got %v", m.selection.Seats())
	}
	if !strings.Contains(m.notice, "A1") {
		t.Fatalf("expected notice about A1, got %q", m.notice)
	}

	m = press(t, m, "right", "space", "down", "enter")
	if got := m.selection.Seats(); !slices.Equal(got, []string{"A2", "B2"}) {
		t.Fatalf("expected [A2 B2], got %v", got)
	}

	m = press(t, m, "space")
	if got := m.selection.Seats(); !slices.Equal(got, []string{"A2"}) {
		t.Fatalf("expected [A2], got %v", got)
	}

	m = press(t, m, "l", "l", "l", "j", "j")
	if got := m.cursorSeat(); got != "B3" {
		t.Fatalf("expected cursor clamped to B3, got %s", got)
	}

	view := m.View()
	if !strings.Contains(view, "Selected: A2") || !strings.Contains(view, "₹190.00") {
		t.Fatalf("expected selection summary in view, got:\n%s", view)
	}
}

func TestSeatMap_MaxSeats(t *testing.T) {
	m := newTestModel(t, nil)
	m.cfg.MaxSeats = 1
	m = openSeatMap(t, m, testShowtime())

	m = press(t, m, "space", "right", "space")
	if got := m.selection.Seats(); !slices.Equal(got, []string{"A1"}) {
		t.Fatalf("expected [A1], got %v", got)
	}
	if !strings.Contains(m.notice, "up to 1") {
		t.Fatalf("expected limit notice, got %q", m.notice)
	}

	m = press(t, m, "h", "space")
	if m.selection.Count() != 0 {
		t.Fatalf("expected deselect to work at the limit, got %v", m.selection.Seats())
	}
}

func TestSeatMap_ProceedRequiresSelection(t *testing.T) {
	m := openSeatMap(t, newTestModel(t, nil), testShowtime("A1"))

	m = press(t, m, "p")
	if m.state != stateShowSeatMap || m.draft != nil {
		t.Fatalf("expected to stay on the seat map, got state %d", m.state)
	}
	if m.notice != booking.ErrEmptySelection.Reason {
		t.Fatalf("unexpected notice: %q", m.notice)
	}

	m = press(t, m, "right", "space", "right", "space", "p")
	if m.state != stateBookingForm || m.draft == nil {
		t.Fatalf("expected booking form, got state %d", m.state)
	}
	if !slices.Equal(m.draft.Seats, []string{"A2", "A3"}) {
		t.Fatalf("unexpected draft seats: %v", m.draft.Seats)
	}
	if !m.draft.Total().Equal(decimal.NewFromInt(380)) {
		t.Fatalf("expected 380, got %s", m.draft.Total())
	}

	m = press(t, m, "esc")
	if m.state != stateShowSeatMap || m.draft != nil {
		t.Fatalf("expected esc to drop the draft, got state %d", m.state)
	}
	if m.selection.Count() != 2 {
		t.Fatalf("expected selection kept, got %v", m.selection.Seats())
	}
}

func TestSeatMap_ReloadDropsNewlyBookedSeats(t *testing.T) {
	m := openSeatMap(t, newTestModel(t, nil), testShowtime("A1"))
	m = press(t, m, "right", "space", "down", "space")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected reload command")
	}

	m, _ = update(t, m, seatMapMsg{showtime: testShowtime("A1", "A2"), reload: true})
	if got := m.selection.Seats(); !slices.Equal(got, []string{"B2"}) {
		t.Fatalf("expected [B2], got %v", got)
	}
	if !strings.Contains(m.notice, "A2") {
		t.Fatalf("expected notice naming A2, got %q", m.notice)
	}
}

func checkoutModel(t *testing.T, handler http.HandlerFunc) appModel {
	t.Helper()
	m := openSeatMap(t, newTestModel(t, handler), testShowtime("A1"))
	m = press(t, m, "right", "space", "right", "space", "p")
	if m.state != stateBookingForm {
		t.Fatalf("expected booking form, got state %d", m.state)
	}
	return m
}

func TestBookingForm_InvalidEmailSendsNothing(t *testing.T) {
	m := checkoutModel(t, nil)
	m.form.name.SetValue("Ana")
	m.form.email.SetValue("not-an-email")
	m.form.focusField(1)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no request for invalid input")
	}
	if m.state != stateBookingForm {
		t.Fatalf("expected to stay on the form, got state %d", m.state)
	}
	if m.form.err != booking.ErrInvalidEmail.Reason {
		t.Fatalf("unexpected form error: %q", m.form.err)
	}
}

func TestBookingForm_SubmitDisabledWhileInFlight(t *testing.T) {
	m := checkoutModel(t, nil)
	m.form.name.SetValue("Ana")
	m.form.email.SetValue("ana@x.io")
	m.form.focusField(1)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.state != stateSubmitting {
		t.Fatalf("expected submission, got state %d", m.state)
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.state != stateSubmitting {
		t.Fatal("expected second submit to be ignored")
	}

	conflict := &service.APIError{StatusCode: http.StatusConflict, Detail: "Seats A2 are already booked."}
	m, _ = update(t, m, bookingMsg{err: conflict})
	if m.state != stateBookingForm {
		t.Fatalf("expected form after failure, got state %d", m.state)
	}
	if !strings.Contains(m.form.err, "Seats A2 are already booked.") {
		t.Fatalf("unexpected form error: %q", m.form.err)
	}
	if m.draft == nil || !slices.Equal(m.draft.Seats, []string{"A2", "A3"}) {
		t.Fatalf("expected draft kept intact, got %+v", m.draft)
	}
	if m.form.name.Value() != "Ana" || m.form.email.Value() != "ana@x.io" {
		t.Fatal("expected form values kept")
	}
}

func TestBookingForm_SuccessShowsTicket(t *testing.T) {
	m := checkoutModel(t, nil)
	m.form.name.SetValue("Ana")
	m.form.email.SetValue(" ana@x.io ")
	m.form.focusField(1)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = update(t, m, bookingMsg{booking: model.Booking{
		Id:         12,
		UserName:   "Ana",
		UserEmail:  "ana@x.io",
		Showtime:   model.Showtime{Id: 7},
		Seats:      []string{"A2", "A3"},
		AmountPaid: decimal.NewFromInt(380),
	}})
	if m.state != stateConfirmed || m.confirmed == nil || m.confirmed.Id != 12 {
		t.Fatalf("expected confirmation, got state %d", m.state)
	}
	if m.draft != nil {
		t.Fatal("expected draft dropped after success")
	}
	if m.confirmed.Showtime.Date != "2026-10-20" {
		t.Fatalf("expected showtime details from the draft, got %+v", m.confirmed.Showtime)
	}
	if m.ticketQR == "" {
		t.Fatal("expected ticket qr")
	}
	if view := m.View(); !strings.Contains(view, "Booking #12") {
		t.Fatalf("expected booking id in view, got:\n%s", view)
	}

	email, err := store.LoadRememberedEmail()
	if err != nil || email != "ana@x.io" {
		t.Fatalf("expected remembered email, got %q err=%v", email, err)
	}
}

func TestBookingForm_ExpiredDraft(t *testing.T) {
	m := checkoutModel(t, nil)
	m.form.name.SetValue("Ana")
	m.form.email.SetValue("ana@x.io")
	m.form.focusField(1)
	m.now = func() time.Time { return fixedNow.Add(time.Hour) }

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("expected no request for an expired draft")
	}
	if m.state != stateShowSeatMap || m.draft != nil {
		t.Fatalf("expected return to the seat map, got state %d", m.state)
	}
	if !strings.Contains(m.notice, "expired") {
		t.Fatalf("unexpected notice: %q", m.notice)
	}
}

func TestErrMsg_NotFoundView(t *testing.T) {
	m := newTestModel(t, nil)
	m.state = stateLoadingSeatMap

	m, _ = update(t, m, errMsg{
		err:            &service.APIError{StatusCode: http.StatusNotFound, Detail: "Showtime not found."},
		returnState:    stateShowShowtimes,
		returnStateSet: true,
	})
	if m.state != stateNotFound {
		t.Fatalf("expected not found view, got state %d", m.state)
	}
	if view := m.View(); !strings.Contains(view, "Showtime not found.") {
		t.Fatalf("expected detail in view, got:\n%s", view)
	}

	m = press(t, m, "esc")
	if m.state != stateShowShowtimes {
		t.Fatalf("expected esc to return, got state %d", m.state)
	}
}

func TestHistory_PrefillAndLookup(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_email"); got != "ana@x.io" {
			t.Errorf("unexpected email: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count": 1, "results": [{"id": 12, "showtime": {"id": 7, "movie": {"id": 3, "title": "Dune"}, "date": "2026-10-20", "time": "19:30"}, "seats": ["A2"], "amount_paid": "190.00"}]}`))
	})
	if err := store.RememberEmail("ana@x.io"); err != nil {
		t.Fatalf("remember: %v", err)
	}
	m.state = stateSelectMovie

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	if m.state != stateHistoryEmail {
		t.Fatalf("expected email prompt, got state %d", m.state)
	}
	if got := m.historyEmail.Value(); got != "ana@x.io" {
		t.Fatalf("expected prefilled email, got %q", got)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateLoadingHistory || cmd == nil {
		t.Fatalf("expected lookup, got state %d", m.state)
	}

	msg := m.fetchBookingsCmd("ana@x.io")()
	m, _ = update(t, m, msg)
	if m.state != stateShowHistory {
		t.Fatalf("expected history list, got state %d (%v)", m.state, m.err)
	}
	items := m.historyList.Items()
	if len(items) != 1 || !strings.Contains(items[0].(bookingItem).Title(), "Dune") {
		t.Fatalf("unexpected history items: %+v", items)
	}
}

func TestHistory_RejectsInvalidEmail(t *testing.T) {
	m := newTestModel(t, nil)
	m.state = stateSelectMovie
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	m.historyEmail.SetValue("nope")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.state != stateHistoryEmail {
		t.Fatalf("expected to stay on the prompt, got state %d", m.state)
	}
	if m.historyErr == "" {
		t.Fatal("expected an inline error")
	}
}

func TestUpcomingOnly(t *testing.T) {
	past := model.Showtime{Id: 1, Date: "2026-10-15", Time: "20:00"}
	future := model.Showtime{Id: 2, Date: "2026-10-17", Time: "20:00"}
	got := upcomingOnly([]model.Showtime{past, future}, fixedNow)
	if len(got) != 1 || got[0].Id != 2 {
		t.Fatalf("expected only the future showtime, got %+v", got)
	}
}
