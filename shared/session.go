package shared

import (
	"fmt"
	"time"
)

const (
	// Session names.
	Morning         = "morning"
	LondonOpen      = "london_open"
	LondonNYOverlap = "london_ny_overlap"
	NewYork         = "newyork"
	Evening         = "evening"
	Night           = "night"
)

// Session represents a time of day trading session.
type Session struct {
	// Name identifies the session.
	Name string
	// DefaultDuration is the holding duration the session favours, in minutes.
	DefaultDuration float64
	// Priority weights the session against market conditions, from 1 to 5.
	Priority int
}

// sessions maps entry hours to session characteristics. The london/new york
// overlap carries the highest priority and the shortest favoured duration
// since it concentrates the most volume of the day.
var sessions = []struct {
	name     string
	fromHour int
	toHour   int
	duration float64
	priority int
}{
	{Night, 0, 6, 3, 1},
	{Morning, 6, 9, 2, 2},
	{LondonOpen, 9, 13, 2, 4},
	{LondonNYOverlap, 13, 17, 1, 5},
	{NewYork, 17, 21, 2, 4},
	{Evening, 21, 24, 3, 2},
}

// CurrentSession buckets the provided entry time (HH:MM) into its session.
func CurrentSession(entryTime string) (Session, error) {
	parsed, err := time.Parse(SessionTimeLayout, entryTime)
	if err != nil {
		return Session{}, fmt.Errorf("parsing entry time: %w", err)
	}

	hour := parsed.Hour()
	for idx := range sessions {
		if hour >= sessions[idx].fromHour && hour < sessions[idx].toHour {
			return Session{
				Name:            sessions[idx].name,
				DefaultDuration: sessions[idx].duration,
				Priority:        sessions[idx].priority,
			}, nil
		}
	}

	return Session{}, fmt.Errorf("no session found for hour: %d", hour)
}
