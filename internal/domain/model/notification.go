package model

import "time"

// Notification asks the delivery channel to send a token to a user.
type Notification struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Kind      TokenKind `json:"kind"`
	Token     string    `json:"token"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`
}
