package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"expensectl/internal/core"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindUnauthorized is a 401 response.
	KindUnauthorized
	// KindApplication is any other non-2xx response below 500.
	KindApplication
	// KindServer is a 5xx response. It also matches ErrApplication.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindUnauthorized:
		return "unauthorized"
	case KindApplication:
		return "application error"
	case KindServer:
		return "server error"
	default:
		return "unknown"
	}
}

var (
	ErrNetwork      = errors.New("network failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrApplication  = errors.New("application error")
	ErrServer       = errors.New("server error")
)

// GenericMessage is shown when the server gives no message of its own.
const GenericMessage = "Something went wrong"

// Error is the classified outcome of a failed call.
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	Method    string
	Path      string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	default:
		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.Status)
		}
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrApplication:
		return e.Kind == KindApplication || e.Kind == KindServer
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// Handled reports whether the gateway already reacted globally (navigation,
// session clear). Callers need not surface these as recoverable errors.
func (e *Error) Handled() bool {
	return e.Kind == KindNetwork || e.Kind == KindUnauthorized
}

// Handled reports whether err carries a globally handled gateway outcome.
func Handled(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Handled()
}

// MessageOf picks the text to show inline for err: the server's message for
// HTTP failures, the field problem for validation errors, fallback otherwise.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		if gerr.Message != "" {
			return gerr.Message
		}
		return fallback
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return verr.Err.Error()
	}
	return fallback
}
