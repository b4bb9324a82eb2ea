package backend

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks transport failures: the request never reached the
// backend or no response came back.
var ErrUnavailable = errors.New("backend unavailable")

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string // reason phrase, e.g. "Internal Server Error"
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsUnavailable reports whether err is a transport failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
