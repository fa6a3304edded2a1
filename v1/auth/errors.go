package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Local usage errors.
var (
	// ErrNoSession is returned when an operation needs a session and none is stored.
	ErrNoSession = errors.New("auth: no session")

	// ErrMissingProvider is returned by SignInWithOAuth without a provider.
	ErrMissingProvider = errors.New("auth: provider is required")

	// ErrMissingContact is returned when neither email nor phone is given.
	ErrMissingContact = errors.New("auth: email or phone is required")

	// ErrInvalidCallbackURL is returned by SessionFromURL when the URL holds no tokens.
	ErrInvalidCallbackURL = errors.New("auth: callback url carries no session")
)

// Error is a failure reported by the auth server. The fields are copied
// verbatim from the response body.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("auth: %s (status %d)", e.Message, e.Status)
}

// errorBody covers the shapes GoTrue has used over time:
// {"code":400,"error_code":"...","msg":"..."}, {"error":"...","error_description":"..."}
// and {"message":"..."}.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Err              string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if e.Message == "" {
			e.Message = http.StatusText(status)
		}
		return e
	}

	e.Code = b.ErrorCode
	if e.Code == "" && len(b.Code) > 0 {
		var s string
		if json.Unmarshal(b.Code, &s) == nil {
			e.Code = s
		} else if _, err := strconv.Atoi(string(b.Code)); err != nil {
			e.Code = string(b.Code)
		}
	}
	if e.Code == "" {
		e.Code = b.Err
	}

	switch {
	case b.Msg != "":
		e.Message = b.Msg
	case b.Message != "":
		e.Message = b.Message
	case b.ErrorDescription != "":
		e.Message = b.ErrorDescription
	case b.Err != "":
		e.Message = b.Err
	default:
		e.Message = http.StatusText(status)
	}
	return e
}

func statusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsUnauthorized reports whether the server rejected the credentials or token.
func IsUnauthorized(err error) bool {
	s := statusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsBadRequest reports a 400 or 422 from the server, e.g. a weak password.
func IsBadRequest(err error) bool {
	s := statusOf(err)
	return s == http.StatusBadRequest || s == http.StatusUnprocessableEntity
}

// IsRateLimited reports a 429 from the server.
func IsRateLimited(err error) bool {
	return statusOf(err) == http.StatusTooManyRequests
}

// IsNoSession reports whether err is ErrNoSession.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSession)
}
