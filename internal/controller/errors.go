package controller

import "errors"

// Alert texts.
const (
	AlertNameRequired  = "Name is required!"
	AlertSelectProduct = "Please select a product!"
	AlertDeleteFailed  = "Delete failed"
)

// AlertError is a blocking, user-facing alert. Err is nil for validation
// alerts and holds the cause when a backend call failed.
type AlertError struct {
	Message string
	Err     error
}

func (e *AlertError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AlertError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether the alert was raised before any network call.
func (e *AlertError) IsValidation() bool {
	return e.Err == nil
}

// AsAlert extracts an *AlertError from err.
func AsAlert(err error) (*AlertError, bool) {
	var alert *AlertError
	if errors.As(err, &alert) {
		return alert, true
	}
	return nil, false
}
