// Package notify shows transient status messages in a display region.
package notify

import (
	"sync"
	"time"
)

// Kind selects the notification style and dismissal policy.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// CSS classes toggled on notification elements.
const (
	ClassVisible = "notification-visible"
	ClassHiding  = "notification-hiding"
)

const (
	defaultEnterDelay    = 10 * time.Millisecond
	defaultExitDelay     = 300 * time.Millisecond
	defaultSuccessLinger = 5 * time.Second
)

// Message is what a Region renders.
type Message struct {
	Text string
	Kind Kind
}

// Element is one rendered notification.
type Element interface {
	AddClass(name string)
	Remove()
	Attached() bool
	// OnClose registers the callback fired when the user clicks the close control.
	OnClose(fn func())
}

// Region is the fixed display area notifications are appended to.
type Region interface {
	Append(msg Message) Element
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(time.Duration, func())

// AfterFunc implements Scheduler.
func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) {
	f(d, fn)
}

// RealTime schedules with time.AfterFunc.
var RealTime Scheduler = SchedulerFunc(func(d time.Duration, f func()) {
	time.AfterFunc(d, f)
})

// Options tunes transition timings.
type Options struct {
	Scheduler     Scheduler
	EnterDelay    time.Duration
	ExitDelay     time.Duration
	SuccessLinger time.Duration
}

// Notifier appends messages to a Region and manages their lifetime.
type Notifier struct {
	region Region
	opts   Options
}

// New returns a Notifier bound to region.
func New(region Region, opts Options) *Notifier {
	if opts.Scheduler == nil {
		opts.Scheduler = RealTime
	}
	if opts.EnterDelay <= 0 {
		opts.EnterDelay = defaultEnterDelay
	}
	if opts.ExitDelay <= 0 {
		opts.ExitDelay = defaultExitDelay
	}
	if opts.SuccessLinger <= 0 {
		opts.SuccessLinger = defaultSuccessLinger
	}
	return &Notifier{region: region, opts: opts}
}

// Notify shows message. Success messages dismiss themselves; errors stay until closed.
func (n *Notifier) Notify(message string, kind Kind) {
	if n == nil || n.region == nil {
		return
	}
	el := n.region.Append(Message{Text: message, Kind: kind})
	if el == nil {
		return
	}

	var once sync.Once
	dismiss := func() {
		once.Do(func() { n.dismiss(el) })
	}
	el.OnClose(dismiss)

	if kind == KindSuccess {
		n.opts.Scheduler.AfterFunc(n.opts.SuccessLinger, dismiss)
	}
	n.opts.Scheduler.AfterFunc(n.opts.EnterDelay, func() {
		if el.Attached() {
			el.AddClass(ClassVisible)
		}
	})
}

// Success is shorthand for Notify(message, KindSuccess).
func (n *Notifier) Success(message string) {
	n.Notify(message, KindSuccess)
}

// Error is shorthand for Notify(message, KindError).
func (n *Notifier) Error(message string) {
	n.Notify(message, KindError)
}

func (n *Notifier) dismiss(el Element) {
	if !el.Attached() {
		return
	}
	el.AddClass(ClassHiding)
	n.opts.Scheduler.AfterFunc(n.opts.ExitDelay, func() {
		if el.Attached() {
			el.Remove()
		}
	})
}
