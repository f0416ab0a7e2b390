// Package headless provides in-memory implementations of every form slot.
// The command line client drives a form through it and tests inspect it.
package headless

import (
	"sync"

	"service-request-form/internal/attachments"
	"service-request-form/internal/form"
)

// Page bundles one in-memory form surface.
type Page struct {
	Form          *Form
	Services      *Services
	List          *List
	Bindings      *Bindings
	Submit        *Button
	Busy          *Spinner
	Notifications *Region
}

// NewPage returns a page whose form posts to action with method.
func NewPage(action, method string, region *Region) *Page {
	services := &Services{}
	return &Page{
		Form:          &Form{action: action, method: method, services: services},
		Services:      services,
		List:          &List{},
		Bindings:      NewBindings(),
		Submit:        &Button{},
		Busy:          &Spinner{},
		Notifications: region,
	}
}

// Slots exposes the page to a form.Controller.
func (p *Page) Slots() form.Slots {
	slots := form.Slots{
		Form:     p.Form,
		Services: p.Services,
		List:     p.List,
		Bindings: p.Bindings,
		Submit:   p.Submit,
		Busy:     p.Busy,
	}
	if p.Notifications != nil {
		slots.Notifications = p.Notifications
	}
	return slots
}

// Form holds text fields. Reset restores the defaults and clears the service choice.
type Form struct {
	mu       sync.Mutex
	action   string
	method   string
	defaults []form.Field
	fields   []form.Field
	services *Services
	resets   int
}

// SetDefault declares a field and its reset value.
func (f *Form) SetDefault(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults = upsert(f.defaults, name, value)
	f.fields = upsert(f.fields, name, value)
}

// Set changes the current value of a field, declaring it if needed.
func (f *Form) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = upsert(f.fields, name, value)
}

func (f *Form) Values() []form.Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]form.Field, len(f.fields))
	copy(out, f.fields)
	return out
}

func (f *Form) Action() string { return f.action }
func (f *Form) Method() string { return f.method }

func (f *Form) Reset() {
	f.mu.Lock()
	f.fields = append([]form.Field(nil), f.defaults...)
	f.resets++
	f.mu.Unlock()
	if f.services != nil {
		f.services.Select()
	}
}

// Resets counts Reset calls.
func (f *Form) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

func upsert(fields []form.Field, name, value string) []form.Field {
	for i := range fields {
		if fields[i].Name == name {
			fields[i].Value = value
			return fields
		}
	}
	return append(fields, form.Field{Name: name, Value: value})
}

// Services is the set of checked service options.
type Services struct {
	mu       sync.Mutex
	selected []string
}

// Select replaces the checked options.
func (s *Services) Select(values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append([]string(nil), values...)
}

func (s *Services) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// List records the last rendered attachment markup.
type List struct {
	mu      sync.Mutex
	markup  string
	renders int
}

func (l *List) SetHTML(markup string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markup = markup
	l.renders++
}

// HTML returns the last rendered markup.
func (l *List) HTML() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markup
}

// Renders counts SetHTML calls.
func (l *List) Renders() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.renders
}

// Bindings keeps the field-to-file bindings a real page would hold as hidden inputs.
type Bindings struct {
	mu    sync.Mutex
	bound map[string]attachments.Blob
}

// NewBindings returns an empty binder.
func NewBindings() *Bindings {
	return &Bindings{bound: make(map[string]attachments.Blob)}
}

func (b *Bindings) Bind(field string, blob attachments.Blob) (attachments.Binding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound[field] = blob
	return binding{owner: b, field: field}, nil
}

// Fields returns the names of the currently bound fields.
func (b *Bindings) Fields() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(b.bound))
	for field, blob := range b.bound {
		out[field] = blob.Name()
	}
	return out
}

type binding struct {
	owner *Bindings
	field string
}

func (b binding) Detach() {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	delete(b.owner.bound, b.field)
}

// Button is the submit control.
type Button struct {
	mu       sync.Mutex
	disabled bool
	history  []bool
}

func (b *Button) SetDisabled(disabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = disabled
	b.history = append(b.history, disabled)
}

// Disabled reports the current state.
func (b *Button) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// History lists every SetDisabled value in call order.
func (b *Button) History() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.history...)
}

// Spinner is the busy indicator.
type Spinner struct {
	mu      sync.Mutex
	visible bool
}

func (s *Spinner) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

// Visible reports the current state.
func (s *Spinner) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}
