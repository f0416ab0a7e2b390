package form

import (
	"fmt"
	"strings"

	"service-request-form/internal/attachments"
)

// Messages holds every user-facing notification text.
type Messages struct {
	NoService        string
	Oversized        string // %q file name, %s limit
	AttachFailed     string // %q file name
	Sent             string
	Rejected         string
	TransportFailure string
}

// DefaultMessages returns the stock English texts.
func DefaultMessages() Messages {
	return Messages{
		NoService:        "Please choose one service.",
		Oversized:        "File %q is too large. The maximum size is %s.",
		AttachFailed:     "File %q could not be attached.",
		Sent:             "Thank you! Your message has been sent.",
		Rejected:         "There was a problem sending the form.",
		TransportFailure: "There was a problem sending the form. Please try again later.",
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.NoService == "" {
		m.NoService = d.NoService
	}
	if m.Oversized == "" {
		m.Oversized = d.Oversized
	}
	if m.AttachFailed == "" {
		m.AttachFailed = d.AttachFailed
	}
	if m.Sent == "" {
		m.Sent = d.Sent
	}
	if m.Rejected == "" {
		m.Rejected = d.Rejected
	}
	if m.TransportFailure == "" {
		m.TransportFailure = d.TransportFailure
	}
	return m
}

func (m Messages) oversized(name string, limit int64) string {
	return fmt.Sprintf(m.Oversized, name, attachments.FormatSize(limit))
}

func (m Messages) attachFailed(name string) string {
	return fmt.Sprintf(m.AttachFailed, name)
}

func (m Messages) rejected(serverMessage string) string {
	return strings.TrimSpace(m.Rejected + " " + serverMessage)
}
