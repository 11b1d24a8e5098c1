package model

import "time"

type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
)

// Registration records that a member holds a seat at an event.
type Registration struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	EventID   string             `json:"event_id"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	Event     *EventSummary      `json:"event,omitempty"`
}

type EventSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	IsActive    bool      `json:"is_active"`
}
