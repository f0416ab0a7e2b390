package form

import (
	"errors"
	"fmt"
)

var (
	// ErrNoService is returned when the user has not picked a service option.
	ErrNoService = errors.New("no service selected")
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("submission already in progress")
	// ErrTransport covers every failure where no usable response was obtained.
	ErrTransport = errors.New("transport failure")
	// ErrMissingSlot is wrapped by NewController when a required slot is absent.
	ErrMissingSlot = errors.New("required slot missing")
)

// ServerRejection is a non-OK response from the form destination.
type ServerRejection struct {
	StatusCode int
	Message    string
}

func (e *ServerRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected submission with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server rejected submission with status %d: %s", e.StatusCode, e.Message)
}
