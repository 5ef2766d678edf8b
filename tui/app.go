package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"movie-booking-cli/booking"
	"movie-booking-cli/config"
	"movie-booking-cli/logging"
	"movie-booking-cli/model"
	"movie-booking-cli/seating"
	"movie-booking-cli/service"
)

type appState int

const (
	stateLoadingMovies appState = iota
	stateSelectMovie
	stateLoadingShowtimes
	stateShowShowtimes
	stateLoadingUpcoming
	stateShowUpcoming
	stateLoadingSeatMap
	stateShowSeatMap
	stateBookingForm
	stateSubmitting
	stateConfirmed
	stateHistoryEmail
	stateLoadingHistory
	stateShowHistory
	stateNotFound
	stateError
)

type appModel struct {
	client *service.Client
	cfg    config.Config
	logger *logrus.Logger
	now    func() time.Time

	state     appState
	lastState appState
	err       error

	width  int
	height int

	movies      []model.Movie
	moviesStale bool
	movie       model.Movie
	showtime    model.Showtime

	movieList    list.Model
	showtimeList list.Model
	upcomingList list.Model
	historyList  list.Model

	// seatReturnState is where esc leads from the seat map.
	seatReturnState appState
	selection       *seating.Selection
	cursorRow       int
	cursorCol       int
	showSeatNumbers bool
	notice          string

	draft      *booking.Draft
	form       bookingForm
	submitting bool
	confirmed  *model.Booking
	ticketQR   string

	historyEmail       textinput.Model
	historyErr         string
	historyFor         string
	historyReturnState appState

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type moviesMsg struct {
	page  model.Page[model.Movie]
	stale bool
	err   error
}

type showtimesMsg struct {
	movieID   int64
	showtimes []model.Showtime
	err       error
}

type upcomingMsg struct {
	showtimes []model.Showtime
	err       error
}

type seatMapMsg struct {
	showtime model.Showtime
	reload   bool
	err      error
}

type bookingMsg struct {
	booking model.Booking
	err     error
}

type historyMsg struct {
	email    string
	bookings []model.Booking
	err      error
}

func New(cfg config.Config, client *service.Client, logger *logrus.Logger) tea.Model {
	if logger == nil {
		logger = logging.Discard()
	}
	if client == nil {
		client = service.NewFromConfig(cfg, logger)
	}
	m := appModel{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  stateLoadingMovies,
	}

	m.movieList = newList("Select Movie")
	m.showtimeList = newList("Showtimes")
	m.upcomingList = newList("Upcoming Shows")
	m.historyList = newList("My Bookings")

	m.showSeatNumbers = true
	m.form = newBookingForm()
	m.historyEmail = newTextInput("Email", "you@example.com")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchMoviesCmd(false), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == stateSubmitting {
			// One create-booking request at a time.
			return m, nil
		}
		if m.state == stateBookingForm {
			return m.updateBookingForm(msg)
		}
		if m.state == stateHistoryEmail {
			return m.updateHistoryEmail(msg)
		}
		if m.state == stateShowSeatMap {
			if next, cmd, handled := m.handleSeatMapKey(msg); handled {
				return next, cmd
			}
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.logger.WithFields(logrus.Fields{"state": int(m.state), "error": msg.err}).Warn("request failed")
		if service.IsNotFound(msg.err) {
			m.state = stateNotFound
		} else {
			m.state = stateError
		}
		return m, nil

	case moviesMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateLoadingMovies)
		}
		m.movies = msg.page.Results
		m.moviesStale = msg.stale
		m.movieList.SetItems(buildMovieItems(msg.page.Results))
		m.state = stateSelectMovie
		return m, nil

	case showtimesMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateSelectMovie)
		}
		if msg.movieID != m.movie.Id {
			return m, nil
		}
		m.showtimeList.Title = fmt.Sprintf("Showtimes • %s", m.movie.Title)
		m.showtimeList.SetItems(buildShowtimeItems(sortShowtimes(msg.showtimes), false))
		m.showtimeList.Select(0)
		m.state = stateShowShowtimes
		return m, nil

	case upcomingMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateSelectMovie)
		}
		upcoming := upcomingOnly(sortShowtimes(msg.showtimes), m.now())
		if len(upcoming) == 0 {
			return m, errWithOptionsCmd(errors.New("no upcoming shows"), stateSelectMovie)
		}
		m.upcomingList.SetItems(buildShowtimeItems(upcoming, true))
		m.upcomingList.Select(0)
		m.state = stateShowUpcoming
		return m, nil

	case seatMapMsg:
		return m.applySeatMap(msg)

	case bookingMsg:
		return m.applyBooking(msg)

	case historyMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateHistoryEmail)
		}
		m.historyFor = msg.email
		m.historyList.Title = fmt.Sprintf("My Bookings • %s", msg.email)
		m.historyList.SetItems(buildBookingItems(msg.bookings))
		m.historyList.Select(0)
		m.state = stateShowHistory
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectMovie:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateShowShowtimes:
		m.showtimeList, cmd = m.showtimeList.Update(msg)
	case stateShowUpcoming:
		m.upcomingList, cmd = m.upcomingList.Update(msg)
	case stateShowHistory:
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingMovies, stateLoadingShowtimes, stateLoadingUpcoming, stateLoadingSeatMap, stateLoadingHistory:
		return header + "\n\n" + m.loadingView()
	case stateSelectMovie:
		return header + "\n\n" + m.movieList.View()
	case stateShowShowtimes:
		return header + "\n\n" + m.movieDetailView() + "\n\n" + m.showtimeList.View()
	case stateShowUpcoming:
		return header + "\n\n" + m.upcomingList.View()
	case stateShowSeatMap:
		return header + "\n\n" + m.renderSeatMap()
	case stateBookingForm, stateSubmitting:
		return header + "\n\n" + m.bookingFormView()
	case stateConfirmed:
		return header + "\n\n" + m.confirmationView()
	case stateHistoryEmail:
		return header + "\n\n" + m.historyEmailView()
	case stateShowHistory:
		return header + "\n\n" + m.historyList.View()
	case stateNotFound:
		return header + "\n\n" + m.notFoundView()
	case stateError:
		text := service.UserMessage(m.err, "Something went wrong.")
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(text) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Movie Booking")
	sub := []string{}
	if m.movie.Title != "" && m.state != stateSelectMovie && m.state != stateShowHistory && m.state != stateHistoryEmail {
		sub = append(sub, fmt.Sprintf("Movie: %s", m.movie.Title))
	}
	if m.showtime.Id != 0 && (m.state == stateShowSeatMap || m.state == stateBookingForm || m.state == stateSubmitting) {
		sub = append(sub, fmt.Sprintf("Show: %s", m.showtime.Label()))
	}
	if m.draft != nil && !m.draft.ExpiresAt.IsZero() && (m.state == stateBookingForm || m.state == stateSubmitting) {
		sub = append(sub, fmt.Sprintf("Checkout expires %s", m.draft.ExpiresAt.Format("15:04")))
	}
	if m.moviesStale && m.state == stateSelectMovie {
		sub = append(sub, "Offline: showing cached movies")
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit • esc back • type to filter"
	switch m.state {
	case stateSelectMovie:
		hints = "ctrl+c quit • type to filter • enter showtimes • ctrl+u upcoming • ctrl+b my bookings • ctrl+r refresh"
	case stateShowShowtimes, stateShowUpcoming:
		hints = "ctrl+c quit • esc back • type to filter • enter pick seats"
	case stateShowSeatMap:
		hints = "ctrl+c quit • esc back • arrows/hjkl move • space select • p proceed • r reload • c clear • n toggle numbers"
	case stateBookingForm:
		hints = "ctrl+c quit • esc back to seats • tab next field • enter submit"
	case stateSubmitting:
		hints = "ctrl+c quit"
	case stateConfirmed:
		hints = "ctrl+c quit • enter back to movies • ctrl+b my bookings"
	case stateHistoryEmail:
		hints = "ctrl+c quit • esc back • enter look up"
	case stateShowHistory:
		hints = "ctrl+c quit • esc back • type to filter"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) movieDetailView() string {
	mv := m.movie
	parts := []string{}
	for _, p := range []string{mv.Genre, mv.DurationLabel(), mv.Language, mv.ReleaseDate} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(mv.Title)}
	if len(parts) > 0 {
		lines = append(lines, hint(strings.Join(parts, " • ")))
	}
	if mv.Director != "" {
		lines = append(lines, "Director: "+mv.Director)
	}
	if mv.Cast != "" {
		lines = append(lines, "Cast: "+mv.Cast)
	}
	if summary := mv.Summary(); summary != "" {
		style := lipgloss.NewStyle()
		if m.width > 20 {
			style = style.Width(m.width - 4)
		}
		lines = append(lines, "", style.Render(summary))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) notFoundView() string {
	chip := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("63")).
		Padding(0, 2)
	message := service.UserMessage(m.err, "Not found.")
	content := strings.Join([]string{
		chip.Render("Not Found"),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true).Render(message),
		"",
		hint("It may have been removed. Press esc to go back."),
	}, "\n")
	return lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(content)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+r":
		if m.state == stateSelectMovie {
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(true), m.spinner.Tick), true
		}
	case "ctrl+u":
		if m.state == stateSelectMovie || m.state == stateConfirmed {
			m.state = stateLoadingUpcoming
			return m, tea.Batch(m.fetchUpcomingCmd(), m.spinner.Tick), true
		}
	case "ctrl+b":
		if m.state == stateSelectMovie || m.state == stateConfirmed || m.state == stateShowShowtimes {
			return m.openHistoryPrompt()
		}
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateSelectMovie:
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			m.movie = item.movie
			m.state = stateLoadingShowtimes
			return m, tea.Batch(m.fetchShowtimesCmd(item.movie.Id), m.spinner.Tick), true
		case stateShowShowtimes, stateShowUpcoming:
			listPtr := m.activeList()
			item, ok := listPtr.SelectedItem().(showtimeItem)
			if !ok {
				return m, nil, true
			}
			m.seatReturnState = m.state
			if item.withMovie {
				m.movie = item.showtime.Movie
			}
			m.state = stateLoadingSeatMap
			return m, tea.Batch(m.fetchSeatMapCmd(item.showtime.Id, false), m.spinner.Tick), true
		case stateConfirmed:
			m.confirmed = nil
			m.ticketQR = ""
			m.state = stateSelectMovie
			return m, nil, true
		case stateNotFound, stateError:
			next, cmd := m.goBack()
			return next, cmd, true
		}
	}
	return m, nil, false
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateShowShowtimes, stateShowUpcoming:
		m.state = stateSelectMovie
	case stateShowSeatMap:
		m.selection = nil
		m.notice = ""
		m.state = m.seatReturnState
	case stateBookingForm:
		m.draft = nil
		m.form.err = ""
		m.state = stateShowSeatMap
	case stateConfirmed:
		m.confirmed = nil
		m.ticketQR = ""
		m.state = stateSelectMovie
	case stateHistoryEmail, stateShowHistory:
		m.state = m.historyReturnState
		m.historyEmail.Blur()
	case stateNotFound, stateError:
		m.state = m.lastState
		switch m.state {
		case stateLoadingMovies:
			return m, tea.Batch(m.fetchMoviesCmd(false), m.spinner.Tick)
		case stateHistoryEmail:
			return m, m.historyEmail.Focus()
		}
	default:
		return m, nil
	}
	return m, nil
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectMovie:
		return &m.movieList
	case stateShowShowtimes:
		return &m.showtimeList
	case stateShowUpcoming:
		return &m.upcomingList
	case stateShowHistory:
		return &m.historyList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingMovies ||
		m.state == stateLoadingShowtimes ||
		m.state == stateLoadingUpcoming ||
		m.state == stateLoadingSeatMap ||
		m.state == stateLoadingHistory ||
		m.state == stateSubmitting
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingMovies:
		title = "Loading movies"
	case stateLoadingShowtimes:
		title = "Loading showtimes"
	case stateLoadingUpcoming:
		title = "Loading upcoming shows"
	case stateLoadingSeatMap:
		title = "Loading seat map"
	case stateLoadingHistory:
		title = "Loading bookings"
	}

	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Fetching data..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h)
	m.upcomingList.SetSize(m.width, h)
	m.historyList.SetSize(m.width, h)

	// The showtime list shares the screen with the movie details.
	showtimeH := h - 8
	if showtimeH < 6 {
		showtimeH = 6
	}
	m.showtimeList.SetSize(m.width, showtimeH)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errWithOptionsCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateLoadingMovies
	case stateLoadingShowtimes, stateLoadingUpcoming:
		return stateSelectMovie
	case stateLoadingSeatMap:
		return stateSelectMovie
	case stateLoadingHistory:
		return stateHistoryEmail
	case stateSubmitting:
		return stateBookingForm
	case stateError, stateNotFound:
		return stateSelectMovie
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}
