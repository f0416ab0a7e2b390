// Package form drives a service-request form: staging attachments, validating
// the service choice and submitting everything as one multipart request.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"service-request-form/internal/attachments"
	"service-request-form/internal/logging"
	"service-request-form/internal/notify"
)

// FormElement is the form itself: its text fields, destination and reset.
// Values must not include ServiceField or file inputs.
type FormElement interface {
	Values() []Field
	Action() string
	Method() string
	Reset()
}

// ServicePicker reports the service options currently selected.
type ServicePicker interface {
	Selected() []string
}

// ListView receives the rendered attachment list.
type ListView interface {
	SetHTML(markup string)
}

// SubmitControl is the button that triggers a submission.
type SubmitControl interface {
	SetDisabled(disabled bool)
}

// BusyIndicator is shown while a submission is in flight.
type BusyIndicator interface {
	SetVisible(visible bool)
}

// Slots is the page surface a Controller reads from and writes to.
type Slots struct {
	Form          FormElement
	Services      ServicePicker
	List          ListView
	Bindings      attachments.Binder
	Submit        SubmitControl
	Busy          BusyIndicator
	Notifications notify.Region
}

func (s Slots) validate() error {
	checks := []struct {
		name    string
		present bool
	}{
		{"form", s.Form != nil},
		{"services", s.Services != nil},
		{"list", s.List != nil},
		{"bindings", s.Bindings != nil},
		{"submit", s.Submit != nil},
		{"busy", s.Busy != nil},
		{"notifications", s.Notifications != nil},
	}
	for _, c := range checks {
		if !c.present {
			return fmt.Errorf("form: %w: %s", ErrMissingSlot, c.name)
		}
	}
	return nil
}

// Options configures a Controller.
type Options struct {
	Transport       Transport
	Messages        Messages
	Notify          notify.Options
	Logger          logging.Logger
	MaxFileBytes    int64
	NewAttachmentID func() string
}

// Controller owns the state of one form instance.
type Controller struct {
	slots     Slots
	transport Transport
	messages  Messages
	logger    logging.Logger
	notifier  *notify.Notifier
	tracker   *attachments.Tracker

	mu         sync.Mutex
	submitting bool
}

// NewController binds slots once and fails when any of them is missing.
func NewController(slots Slots, opts Options) (*Controller, error) {
	if err := slots.validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		slots:     slots,
		transport: opts.Transport,
		messages:  opts.Messages.withDefaults(),
		logger:    opts.Logger,
		notifier:  notify.New(slots.Notifications, opts.Notify),
	}
	if c.transport == nil {
		c.transport = HTTPTransport{}
	}
	if c.logger == nil {
		c.logger = logging.New()
	}

	trackerOpts := []attachments.Option{
		attachments.WithOnChange(c.render),
		attachments.WithLimit(opts.MaxFileBytes),
	}
	if opts.NewAttachmentID != nil {
		trackerOpts = append(trackerOpts, attachments.WithIDGenerator(opts.NewAttachmentID))
	}
	tracker, err := attachments.NewTracker(slots.Bindings, trackerOpts...)
	if err != nil {
		return nil, err
	}
	c.tracker = tracker
	c.render(nil)
	return c, nil
}

// Notifier exposes the controller's notifier so hosts can report their own events.
func (c *Controller) Notifier() *notify.Notifier {
	return c.notifier
}

// AddFiles stages blobs in order. Rejected files are reported and skipped.
func (c *Controller) AddFiles(blobs ...attachments.Blob) []attachments.Attachment {
	added := make([]attachments.Attachment, 0, len(blobs))
	for _, blob := range blobs {
		att, err := c.tracker.Add(blob)
		if err != nil {
			var sizeErr *attachments.SizeError
			if errors.As(err, &sizeErr) {
				c.notifier.Error(c.messages.oversized(sizeErr.FileName, sizeErr.Limit))
				continue
			}
			c.logger.Printf("attach file: %v", err)
			name := ""
			if blob != nil {
				name = blob.Name()
			}
			c.notifier.Error(c.messages.attachFailed(name))
			continue
		}
		added = append(added, att)
	}
	return added
}

// RemoveFile unstages the attachment with id. Unknown ids are a no-op.
func (c *Controller) RemoveFile(id string) bool {
	return c.tracker.Remove(id)
}

// Attachments returns the staged attachments in display order.
func (c *Controller) Attachments() []attachments.Attachment {
	return c.tracker.List()
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates and sends the form. It returns ErrBusy without any network
// call while another submission is in flight, ErrNoService when validation
// fails, and otherwise the transport outcome. The user is notified in every case
// except ErrBusy.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	service, err := SelectService(c.slots.Services.Selected())
	if err != nil {
		c.mu.Unlock()
		c.notifier.Error(c.messages.NoService)
		return err
	}
	c.submitting = true
	c.mu.Unlock()

	c.setLoading(true)
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		c.setLoading(false)
	}()

	req := Request{
		Action:  c.slots.Form.Action(),
		Method:  c.slots.Form.Method(),
		Service: service,
		Fields:  c.slots.Form.Values(),
		Files:   c.tracker.List(),
	}
	_, err = c.transport.Submit(ctx, req)

	var rejection *ServerRejection
	switch {
	case err == nil:
		c.notifier.Success(c.messages.Sent)
		c.slots.Form.Reset()
		c.tracker.Clear()
	case errors.As(err, &rejection):
		c.logger.Printf("form submission rejected: %v", err)
		c.notifier.Error(c.messages.rejected(rejection.Message))
	default:
		c.logger.Printf("form submission failed: %v", err)
		c.notifier.Error(c.messages.TransportFailure)
	}
	return err
}

func (c *Controller) setLoading(loading bool) {
	c.slots.Submit.SetDisabled(loading)
	c.slots.Busy.SetVisible(loading)
}

func (c *Controller) render(items []attachments.Attachment) {
	c.slots.List.SetHTML(RenderList(items))
}
