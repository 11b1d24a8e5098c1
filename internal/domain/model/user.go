package model

import (
	"time"
)

type Role string

const (
	RoleAnonymous Role = "ANONYMOUS"
	RoleMember    Role = "MEMBER"
	RoleAdmin     Role = "ADMIN"
)

// Rank orders roles so that a higher rank satisfies every lower requirement.
func (r Role) Rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleAdmin:
		return 2
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	IsActive       bool      `json:"is_active"`
	Role           Role      `json:"role"`
	RSVPCount      int       `json:"rsvp_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
