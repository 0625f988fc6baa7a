package assist

import (
	"fmt"
	"net/http"
)

// Code classifies assistant and execution failures for callers. The raw
// technical detail is preserved alongside the user-facing message; raw
// errors never cross to the end user.
type Code string

const (
	CodeAuth       Code = "AUTH"
	CodeRateLimit  Code = "RATE_LIMIT"
	CodeBadRequest Code = "BAD_REQUEST"
	CodeAPIError   Code = "API_ERROR"
	CodeSQLError   Code = "SQL_ERROR"
	CodeNetwork    Code = "NETWORK"
	CodeUnknown    Code = "UNKNOWN"
)

type Error struct {
	Code        Code
	Message     string
	Technical   string
	Recoverable bool
}

func (e *Error) Error() string {
	if e.Technical != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Technical)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code Code, message, technical string, recoverable bool) *Error {
	return &Error{Code: code, Message: message, Technical: technical, Recoverable: recoverable}
}

// errorFromStatus maps a completion API HTTP status to a typed error.
func errorFromStatus(status int, body string) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(CodeAuth, "the completion API rejected the credential", body, false)
	case status == http.StatusTooManyRequests:
		return NewError(CodeRateLimit, "the completion API is rate limiting requests", body, true)
	case status == http.StatusBadRequest:
		return NewError(CodeBadRequest, "the completion API rejected the request", body, false)
	default:
		return NewError(CodeAPIError, fmt.Sprintf("the completion API failed with status %d", status), body, true)
	}
}

func networkError(err error) *Error {
	return NewError(CodeNetwork, "could not reach the completion API", err.Error(), true)
}
