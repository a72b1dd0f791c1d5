package models

import "time"

// Event is a community event listed on the dashboard.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Active      bool      `json:"active"`
}

// EventQuery filters the event list. Zero Limit means the server default.
type EventQuery struct {
	Active *bool
	Limit  int
	Offset int
}
