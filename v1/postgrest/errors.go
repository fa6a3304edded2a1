package postgrest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrBuilderConsumed is returned when a QueryBuilder is executed twice.
	ErrBuilderConsumed = errors.New("postgrest: query builder already executed")

	// ErrConflictingMutation is returned when a second mutation is chained
	// onto a builder that already has one.
	ErrConflictingMutation = errors.New("postgrest: query already has a mutation")

	// ErrMissingTable is returned for a builder created with an empty table name.
	ErrMissingTable = errors.New("postgrest: table name is required")
)

// Error is a failure reported by PostgREST, copied verbatim from the body.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "postgrest: %s (status %d", e.Message, e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, ", code %s", e.Code)
	}
	b.WriteString(")")
	if e.Details != "" {
		b.WriteString(": " + e.Details)
	}
	return b.String()
}

func parseError(status int, body []byte) *Error {
	e := &Error{}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e = &Error{Message: strings.TrimSpace(string(body))}
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
	}
	e.Status = status
	return e
}

func statusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsNotFound reports a 404, e.g. an unknown table.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsConflict reports a 409, e.g. a unique violation on insert.
func IsConflict(err error) bool {
	return statusOf(err) == http.StatusConflict
}

// IsUnauthorized reports a 401 or 403, e.g. a row level security rejection.
func IsUnauthorized(err error) bool {
	s := statusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsBuilderConsumed reports whether err is ErrBuilderConsumed.
func IsBuilderConsumed(err error) bool {
	return errors.Is(err, ErrBuilderConsumed)
}
