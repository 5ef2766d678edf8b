package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"movie-booking-cli/config"
	"movie-booking-cli/logging"
	"movie-booking-cli/model"
)

const (
	defaultUserAgent   = config.AppName
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// Client wraps HTTP access to the movie/showtime/booking API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
	logger      *logrus.Logger
}

type Option func(*Client)

// WithRetry sets the retry policy for GET requests. Bookings are never retried.
func WithRetry(maxAttempts int, base, cap time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryBase = base
		c.retryCap = cap
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new API client. If httpClient is nil, a default client is used.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client using the timeouts and retry policy in cfg.
func NewFromConfig(cfg config.Config, logger *logrus.Logger) *Client {
	return NewClient(
		cfg.BaseURL,
		&http.Client{Timeout: cfg.HTTPTimeout},
		WithRetry(cfg.MaxAttempts, cfg.RetryBase, cfg.RetryCap),
		WithLogger(logger),
	)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// MovieFilters are passed through as query parameters.
type MovieFilters struct {
	Search      string
	Genre       string
	ReleaseDate string
	Ordering    string
	Page        int
}

func (f MovieFilters) query() url.Values {
	params := url.Values{}
	if s := strings.TrimSpace(f.Search); s != "" {
		params.Set("search", s)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		params.Set("genre", g)
	}
	if d := strings.TrimSpace(f.ReleaseDate); d != "" {
		params.Set("release_date", d)
	}
	if o := strings.TrimSpace(f.Ordering); o != "" {
		params.Set("ordering", o)
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	return params
}

// Key identifies the filter combination, for caching.
func (f MovieFilters) Key() string {
	if q := f.query().Encode(); q != "" {
		return q
	}
	return "all"
}

type ShowtimeFilters struct {
	MovieID          int64
	Date             *time.Time
	WithMovieDetails bool
}

// ListMovies fetches one page of movies.
func (c *Client) ListMovies(ctx context.Context, filters MovieFilters) (model.Page[model.Movie], error) {
	endpoint := c.baseURL + "/api/movies/"
	if q := filters.query().Encode(); q != "" {
		endpoint += "?" + q
	}
	var page model.Page[model.Movie]
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return model.Page[model.Movie]{}, err
	}
	return page, nil
}

// GetMovie fetches movie details by id.
func (c *Client) GetMovie(ctx context.Context, movieID int64) (model.Movie, error) {
	if movieID <= 0 {
		return model.Movie{}, errors.New("movie id is required")
	}
	endpoint := fmt.Sprintf("%s/api/movies/%d/", c.baseURL, movieID)
	var movie model.Movie
	if err := c.getJSON(ctx, endpoint, &movie); err != nil {
		return model.Movie{}, err
	}
	if movie.Id == 0 {
		return model.Movie{}, &model.ShapeError{Entity: "movie", Field: "id", Reason: "missing"}
	}
	return movie, nil
}

// ListShowtimes fetches showtimes, optionally for one movie and date.
func (c *Client) ListShowtimes(ctx context.Context, filters ShowtimeFilters) ([]model.Showtime, error) {
	params := url.Values{}
	if filters.MovieID > 0 {
		params.Set("movie", strconv.FormatInt(filters.MovieID, 10))
	}
	if filters.Date != nil {
		params.Set("date", filters.Date.Format(time.DateOnly))
	}
	if filters.WithMovieDetails {
		params.Set("movieDetails", "true")
	}
	endpoint := c.baseURL + "/api/movies/showtimes/"
	if q := params.Encode(); q != "" {
		endpoint += "?" + q
	}

	var page model.Page[model.Showtime]
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// UpcomingShowtimes lists showtimes across all movies with movie details filled in.
func (c *Client) UpcomingShowtimes(ctx context.Context, date *time.Time) ([]model.Showtime, error) {
	return c.ListShowtimes(ctx, ShowtimeFilters{Date: date, WithMovieDetails: true})
}

// GetShowtime fetches a showtime with its seat layout and booked seats. The
// payload is validated before it is returned.
func (c *Client) GetShowtime(ctx context.Context, showtimeID int64) (model.Showtime, error) {
	if showtimeID <= 0 {
		return model.Showtime{}, errors.New("showtime id is required")
	}
	endpoint := fmt.Sprintf("%s/api/movies/showtimes/%d/", c.baseURL, showtimeID)
	var showtime model.Showtime
	if err := c.getJSON(ctx, endpoint, &showtime); err != nil {
		return model.Showtime{}, err
	}
	if err := showtime.Validate(); err != nil {
		c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "error": err}).Warn("rejected showtime payload")
		return model.Showtime{}, err
	}
	return showtime, nil
}

// CreateBooking submits a booking. It makes exactly one attempt.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	endpoint := c.baseURL + "/api/movies/bookings/create/"
	var booking model.Booking
	if err := c.doJSON(ctx, http.MethodPost, endpoint, req, &booking, 1); err != nil {
		return model.Booking{}, err
	}
	c.logger.WithFields(logrus.Fields{
		"booking":  booking.Id,
		"showtime": req.Showtime,
		"seats":    strings.Join(req.Seats, ","),
		"amount":   req.AmountPaid.String(),
	}).Info("booking created")
	return booking, nil
}

// ListBookings fetches the bookings made with an email address.
func (c *Client) ListBookings(ctx context.Context, email string) ([]model.Booking, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	params := url.Values{}
	params.Set("user_email", email)
	endpoint := c.baseURL + "/api/movies/bookings/?" + params.Encode()

	var page model.Page[model.Booking]
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, out, c.maxAttempts)
}

func (c *Client) doJSON(ctx context.Context, method string, endpoint string, body any, out any, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	log := c.logger.WithFields(logrus.Fields{"method": method, "endpoint": endpoint})

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				log.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Warn("request failed, retrying")
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			log.WithField("error", err).Error("request failed")
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Detail:     parseDetail(snippet),
				Body:       compactSnippet(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				log.WithFields(logrus.Fields{"attempt": attempt, "status": res.StatusCode}).Warn("server error, retrying")
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			log.WithFields(logrus.Fields{"status": res.StatusCode, "detail": apiErr.Detail}).Warn("api error")
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &model.ShapeError{Entity: "response", Field: endpoint, Reason: err.Error()}
		}
		log.WithField("status", res.StatusCode).Debug("request ok")
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
