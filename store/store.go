package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"movie-booking-cli/config"
	"movie-booking-cli/model"
)

const maxRecentEmails = 5

var nowFn = time.Now

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Key       string    `json:"key,omitempty"`
	Data      T         `json:"data"`
}

type profile struct {
	Emails []string `json:"emails"`
}

// LoadMovieCache returns the cached movie page for a filter key and whether
// it is younger than ttl.
func LoadMovieCache(key string, ttl time.Duration) (model.Page[model.Movie], bool, error) {
	path, err := cachePath(cacheFile("movies", key))
	if err != nil {
		return model.Page[model.Movie]{}, false, err
	}
	cache, err := loadCache[model.Page[model.Movie]](path)
	if err != nil {
		return model.Page[model.Movie]{}, false, err
	}
	if cache.Key != key {
		return model.Page[model.Movie]{}, false, nil
	}
	return cache.Data, fresh(cache.UpdatedAt, ttl), nil
}

func SaveMovieCache(key string, page model.Page[model.Movie]) error {
	path, err := cachePath(cacheFile("movies", key))
	if err != nil {
		return err
	}
	return saveCache(path, key, page)
}

// LoadShowtimeCache returns cached showtimes for a movie and date. An empty
// date means all dates.
func LoadShowtimeCache(movieID int64, date string, ttl time.Duration) ([]model.Showtime, bool, error) {
	key := showtimeKey(movieID, date)
	path, err := cachePath(cacheFile("showtimes", key))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Showtime](path)
	if err != nil {
		return nil, false, err
	}
	if cache.Key != key {
		return nil, false, nil
	}
	return cache.Data, fresh(cache.UpdatedAt, ttl), nil
}

func SaveShowtimeCache(movieID int64, date string, showtimes []model.Showtime) error {
	key := showtimeKey(movieID, date)
	path, err := cachePath(cacheFile("showtimes", key))
	if err != nil {
		return err
	}
	return saveCache(path, key, showtimes)
}

// LoadRecentEmails returns the emails used for past bookings, newest first.
func LoadRecentEmails() ([]string, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, err
	}
	return p.Emails, nil
}

// LoadRememberedEmail returns the most recent booking email, or "".
func LoadRememberedEmail() (string, error) {
	emails, err := LoadRecentEmails()
	if err != nil || len(emails) == 0 {
		return "", err
	}
	return emails[0], nil
}

// RememberEmail moves email to the front of the recent list.
func RememberEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	p, _ := loadProfile()
	next := []string{email}
	for _, existing := range p.Emails {
		if strings.EqualFold(existing, email) || existing == "" {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentEmails {
			break
		}
	}
	return saveProfile(profile{Emails: next})
}

// ForgetEmail removes email from the recent list. An empty email clears it.
func ForgetEmail(email string) error {
	email = strings.TrimSpace(email)
	p, err := loadProfile()
	if err != nil {
		return err
	}
	if email == "" {
		return saveProfile(profile{})
	}
	next := p.Emails[:0]
	for _, existing := range p.Emails {
		if !strings.EqualFold(existing, email) {
			next = append(next, existing)
		}
	}
	return saveProfile(profile{Emails: next})
}

func fresh(updatedAt time.Time, ttl time.Duration) bool {
	if updatedAt.IsZero() || ttl <= 0 {
		return false
	}
	return nowFn().Sub(updatedAt) <= ttl
}

func showtimeKey(movieID int64, date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		date = "all"
	}
	return fmt.Sprintf("movie=%d&date=%s", movieID, date)
}

func cacheFile(prefix string, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s_%s.json", prefix, hex.EncodeToString(sum[:8]))
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, key string, data T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: nowFn(),
		Key:       key,
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func loadProfile() (profile, error) {
	path, err := configPath("profile.json")
	if err != nil {
		return profile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile{}, nil
		}
		return profile{}, err
	}

	var p profile
	if err := json.Unmarshal(data, &p); err != nil {
		return profile{}, errors.New("invalid profile format")
	}
	return p, nil
}

func saveProfile(p profile) error {
	path, err := configPath("profile.json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func configPath(name string) (string, error) {
	dir, err := config.Dir(os.UserConfigDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := config.Dir(os.UserCacheDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
