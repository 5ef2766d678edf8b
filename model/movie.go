package model

import (
	"fmt"
	"strings"
	"time"
)

type Movie struct {
	Id               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Genre            string    `json:"genre"`
	Duration         int       `json:"duration"`
	ReleaseDate      string    `json:"release_date"`
	Language         string    `json:"language"`
	Country          string    `json:"country"`
	Director         string    `json:"director"`
	Cast             string    `json:"cast"`
	Writers          string    `json:"writers"`
	PosterURL        string    `json:"poster_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// DurationLabel formats the runtime in minutes as "2h 5m".
func (m Movie) DurationLabel() string {
	if m.Duration <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", m.Duration/60, m.Duration%60)
}

// Summary prefers the short description and falls back to the full one.
func (m Movie) Summary() string {
	if s := strings.TrimSpace(m.ShortDescription); s != "" {
		return s
	}
	return strings.TrimSpace(m.Description)
}
