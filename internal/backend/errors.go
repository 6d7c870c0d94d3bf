package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jogardn/fireworks-storefront/internal/circuitbreaker"
)

var (
	ErrNetwork           = errors.New("backend unreachable")
	ErrTimeout           = errors.New("backend request timed out")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrCircuitOpen       = circuitbreaker.ErrCircuitBreakerOpen
)

// BusinessError is a failure the backend reported itself, either as
// success:false or as a non-2xx status. Message is the backend's own text
// and stays empty when the body carried none.
type BusinessError struct {
	Status  int
	Message string
}

func (e *BusinessError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Status >= 300 && http.StatusText(e.Status) != "":
		return fmt.Sprintf("HTTP error! status: %d - %s", e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("backend rejected request with status %d", e.Status)
	}
}

// NotFound reports whether the backend answered 404.
func (e *BusinessError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsOutage keeps shopper mistakes (4xx rejections) from opening a
// breaker while still tripping it on 5xx, timeouts and transport errors.
func IsOutage(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Status >= http.StatusInternalServerError
	}
	return true
}

// Message extracts the text to show a shopper for err, preferring the
// backend's own message.
func Message(err error, fallback string) string {
	var be *BusinessError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &be) && be.Message != "":
		return be.Message
	case errors.Is(err, ErrTimeout):
		return fmt.Sprintf("%s: request timed out", fallback)
	case errors.Is(err, ErrCircuitOpen):
		return fmt.Sprintf("%s: service temporarily unavailable", fallback)
	case errors.Is(err, ErrNetwork):
		return fmt.Sprintf("%s: network error", fallback)
	default:
		return fallback
	}
}
