package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTooManyRequests    = errors.New("too many requests")

	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("token is not valid for this action")

	// ErrStoreUnavailable is returned for any persistence failure that is not a
	// well-defined domain outcome. It must never be read as "not found" or "not full".
	ErrStoreUnavailable = newKind("store unavailable", ErrServiceUnavailable)
)

// kindError is a specific error that also matches its category with errors.Is,
// while its message stays free of the category text.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

func newKind(msg string, kind error) error {
	return &kindError{msg: msg, kind: kind}
}

var (
	ErrUserNotFound       = newKind("user not found", ErrNotFound)
	ErrEventNotFound      = newKind("event not found", ErrNotFound)
	ErrNotRegistered      = newKind("you are not registered for this event", ErrNotFound)
	ErrEventInactive      = newKind("event is not active", ErrConflict)
	ErrEventFull          = newKind("event is full", ErrConflict)
	ErrAlreadyRegistered  = newKind("you are already registered for this event", ErrConflict)
	ErrDuplicateUsername  = newKind("username is already taken", ErrConflict)
	ErrDuplicateEmail     = newKind("email is already registered", ErrConflict)
	ErrDuplicateSlug      = newKind("an event with this slug already exists", ErrConflict)
	ErrAccountInactive    = newKind("account is not activated, please confirm your email", ErrForbidden)
	ErrInvalidCredentials = newKind("invalid login or password", ErrUnauthorized)
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrWrongTokenKind) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

var errorCodes = []struct {
	err  error
	code string
}{
	// most specific first
	{ErrUserNotFound, "USER_NOT_FOUND"},
	{ErrEventNotFound, "EVENT_NOT_FOUND"},
	{ErrNotRegistered, "NOT_REGISTERED"},
	{ErrEventInactive, "EVENT_INACTIVE"},
	{ErrEventFull, "EVENT_FULL"},
	{ErrAlreadyRegistered, "ALREADY_REGISTERED"},
	{ErrDuplicateUsername, "USERNAME_TAKEN"},
	{ErrDuplicateEmail, "EMAIL_TAKEN"},
	{ErrDuplicateSlug, "DUPLICATE_EVENT"},
	{ErrAccountInactive, "ACCOUNT_INACTIVE"},
	{ErrInvalidCredentials, "INVALID_CREDENTIALS"},
	{ErrInvalidToken, "INVALID_TOKEN"},
	{ErrTokenExpired, "EXPIRED"},
	{ErrWrongTokenKind, "WRONG_KIND"},
	{ErrValidation, "VALIDATION_ERROR"},
	{ErrBadRequest, "BAD_REQUEST"},
	{ErrUnauthorized, "UNAUTHENTICATED"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrConflict, "CONFLICT"},
	{ErrTooManyRequests, "RATE_LIMITED"},
	{ErrStoreUnavailable, "STORE_UNAVAILABLE"},
	{ErrServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// ErrorCode returns a stable machine-readable code for err.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint violation
// and returns the violated constraint name.
func IsUniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key violation
// and returns the violated constraint name.
func IsForeignKeyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// StoreError wraps an unexpected persistence failure for op.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
