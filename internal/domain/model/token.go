package model

import "time"

type TokenKind string

const (
	TokenKindEmailConfirmation TokenKind = "EMAIL_CONFIRMATION"
	TokenKindPasswordReset     TokenKind = "PASSWORD_RESET"
)

func (k TokenKind) Valid() bool {
	return k == TokenKindEmailConfirmation || k == TokenKindPasswordReset
}

// Token is a stored single-use credential. Only the digest of the value handed
// to the user is persisted.
type Token struct {
	Hash      string
	Kind      TokenKind
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer redeemable at now.
// The boundary instant itself counts as expired.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
