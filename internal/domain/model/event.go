package model

import "time"

type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	MaxAttendees   *int      `json:"max_attendees"` // nil means unlimited
	IsActive       bool      `json:"is_active"`
	Published      bool      `json:"published"`
	ConfirmedCount int       `json:"confirmed_count"`
	HasRSVPed      bool      `json:"has_rsvped"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasCapacityFor reports whether one more confirmed registration fits.
func (e *Event) HasCapacityFor(confirmed int) bool {
	return e.MaxAttendees == nil || confirmed < *e.MaxAttendees
}

// Visible reports whether non-admin callers may see the event.
func (e *Event) Visible() bool {
	return e.IsActive && e.Published
}
