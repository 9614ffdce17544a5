package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed is returned when a 401 could not be recovered by a refresh.
	// The session is cleared by then
	ErrAuthFailed = errors.New("Authentication failed") //nolint:staticcheck // user-facing message

	// ErrNoRefreshToken is returned by a refresh without a stored refresh token
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// Result is the uniform outcome of every client call: exactly one of Data and
// Error is set, except for successful calls without content where both are nil.
// Callers branch on Error only
type Result[T any] struct {
	Data  *T
	Error error
}

// OK reports a successful call
func (r Result[T]) OK() bool {
	return r.Error == nil
}

func success[T any](v *T) Result[T] {
	return Result[T]{Data: v}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

// APIError is a non-2xx answer of the server
type APIError struct {
	Message string
	Status  int
}

// Error returns the message reported by the server
func (e *APIError) Error() string {
	return e.Message
}

// StatusCode extracts the HTTP status from err, 0 if err is not an *APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// decode converts a raw Result into a typed one; nil data stays nil
func decode[T any](res Result[json.RawMessage]) Result[T] {
	if res.Error != nil {
		return fail[T](res.Error)
	}
	if res.Data == nil {
		return success[T](nil)
	}
	var v T
	if err := json.Unmarshal(*res.Data, &v); err != nil {
		return fail[T](fmt.Errorf("failed to decode response: %w", err))
	}
	return success(&v)
}

func httpErrorMessage(status int) string {
	return fmt.Sprintf("HTTP error: %d", status)
}
