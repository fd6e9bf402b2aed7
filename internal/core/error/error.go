package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Messages safe to show to API clients.
const (
	SystemErrorMessage = "internal server error"
	RedisErrorMessage  = "redis operation failed"
	StoreErrorMessage  = "store operation failed"
	LLMErrorMessage    = "language model request failed"
	IndexErrorMessage  = "retrieval index operation failed"
	// StepLimitMessage is the answer given when the agent loop hits its step bound.
	StepLimitMessage = "I couldn't resolve that request. Please ask a more specific question, " +
		"for example include the order ID or the exact product name."
)

var (
	ErrStepLimit  = errors.New("agent step limit exceeded")
	ErrEmptyQuery = errors.New("query is required")
	ErrNotFound   = errors.New("not found")
	// ErrConflict means a guarded write matched no rows.
	ErrConflict = errors.New("concurrent update")
)

// AppError pairs a cause with the HTTP status and the message a client may see.
// errors.Is and errors.As reach the cause through Unwrap.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// StepLimit wraps err as a step-limit failure, keeping the original cause.
func StepLimit(err error) error {
	return New(fmt.Errorf("%w: %v", ErrStepLimit, err), http.StatusOK, StepLimitMessage)
}

// Public returns the status and client message carried by err. Errors without
// an AppError in their chain are reported as 500 with SystemErrorMessage.
func Public(err error) (int, string) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, SystemErrorMessage
	}
	status, msg := appErr.Status, appErr.Message
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if msg == "" {
		msg = SystemErrorMessage
	}
	return status, msg
}

// StatusOf returns the HTTP status carried by err, or 500 when none is attached.
func StatusOf(err error) int {
	status, _ := Public(err)
	return status
}
