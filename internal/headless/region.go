package headless

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"service-request-form/internal/notify"
)

// Region prints notifications to a writer and keeps them for inspection.
type Region struct {
	mu      sync.Mutex
	out     io.Writer
	notices []*Notice
	success *color.Color
	failure *color.Color
}

// NewRegion writes to out; colour follows fatih/color's terminal detection
// unless plain is set.
func NewRegion(out io.Writer, plain bool) *Region {
	r := &Region{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
	if plain {
		r.success.DisableColor()
		r.failure.DisableColor()
	}
	return r
}

func (r *Region) Append(msg notify.Message) notify.Element {
	n := &Notice{Message: msg, attached: true}
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()

	if r.out != nil {
		label := r.success
		if msg.Kind == notify.KindError {
			label = r.failure
		}
		fmt.Fprintf(r.out, "%s %s\n", label.Sprintf("[%s]", msg.Kind), msg.Text)
	}
	return n
}

// Notices returns every notification appended so far, removed ones included.
func (r *Region) Notices() []*Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Notice(nil), r.notices...)
}

// Active returns the notifications still attached.
func (r *Region) Active() []*Notice {
	var out []*Notice
	for _, n := range r.Notices() {
		if n.Attached() {
			out = append(out, n)
		}
	}
	return out
}

// Notice is one rendered notification.
type Notice struct {
	notify.Message

	mu       sync.Mutex
	classes  []string
	attached bool
	onClose  func()
}

func (n *Notice) AddClass(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.classes = append(n.classes, name)
}

func (n *Notice) Remove() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attached = false
}

func (n *Notice) Attached() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attached
}

func (n *Notice) OnClose(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onClose = fn
}

// Close simulates a click on the close control.
func (n *Notice) Close() {
	n.mu.Lock()
	fn := n.onClose
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Classes returns the classes added so far.
func (n *Notice) Classes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.classes...)
}
