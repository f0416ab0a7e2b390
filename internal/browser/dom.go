//go:build js && wasm

// Package browser adapts DOM elements to the slots a form.Controller drives.
package browser

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"

	"service-request-form/internal/form"
	"service-request-form/internal/pageids"
)

// Page holds one adapter per required element of the form page.
type Page struct {
	Form          *Form
	Services      *Services
	List          *List
	Bindings      *HiddenInputs
	Submit        *SubmitButton
	Busy          *Spinner
	Notifications *Region
	FileInput     js.Value
}

// Bind looks up every required element in doc and fails on the first one missing.
func Bind(doc js.Value) (*Page, error) {
	required := pageids.Required()
	elements := make(map[string]js.Value, len(required))
	for _, id := range required {
		el := doc.Call("getElementById", id)
		if !el.Truthy() {
			return nil, fmt.Errorf("browser: element #%s not found", id)
		}
		elements[id] = el
	}

	formEl := elements[pageids.Form]
	return &Page{
		Form:          &Form{el: formEl},
		Services:      &Services{form: formEl},
		List:          &List{el: elements[pageids.FileList]},
		Bindings:      &HiddenInputs{doc: doc, container: elements[pageids.HiddenInputs]},
		Submit:        &SubmitButton{el: elements[pageids.Submit]},
		Busy:          &Spinner{el: elements[pageids.Spinner]},
		Notifications: &Region{doc: doc, container: elements[pageids.Notifications]},
		FileInput:     elements[pageids.FileInput],
	}, nil
}

// Slots exposes the page to a form.Controller.
func (p *Page) Slots() form.Slots {
	return form.Slots{
		Form:          p.Form,
		Services:      p.Services,
		List:          p.List,
		Bindings:      p.Bindings,
		Submit:        p.Submit,
		Busy:          p.Busy,
		Notifications: p.Notifications,
	}
}

// Form wraps the <form> element.
type Form struct {
	el js.Value
}

// Values returns the text entries of the form, skipping the service choice and files.
func (f *Form) Values() []form.Field {
	data := js.Global().Get("FormData").New(f.el)
	fileType := js.Global().Get("File")
	iter := data.Call("entries")

	var fields []form.Field
	for {
		next := iter.Call("next")
		if next.Get("done").Bool() {
			break
		}
		entry := next.Get("value")
		name := entry.Index(0).String()
		value := entry.Index(1)
		if name == form.ServiceField || value.InstanceOf(fileType) {
			continue
		}
		fields = append(fields, form.Field{Name: name, Value: value.String()})
	}
	return fields
}

// Action returns the resolved absolute action URL.
func (f *Form) Action() string { return f.el.Get("action").String() }

// Method returns the form method as the browser normalises it.
func (f *Form) Method() string { return f.el.Get("method").String() }

// OnSubmit stops the native submission and runs fn in its own goroutine, so
// the event callback returns before any network work starts.
func (f *Form) OnSubmit(fn func()) {
	f.el.Call("addEventListener", "submit", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			args[0].Call("preventDefault")
		}
		go fn()
		return nil
	}))
}

// Reset restores the form's initial values.
func (f *Form) Reset() { f.el.Call("reset") }

// Services reads the checked service inputs.
type Services struct {
	form js.Value
}

func (s *Services) Selected() []string {
	nodes := s.form.Call("querySelectorAll", `input[name="`+form.ServiceField+`"]:checked`)
	n := nodes.Length()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, nodes.Index(i).Get("value").String())
	}
	return out
}

// List is the attachment list container.
type List struct {
	el js.Value
}

func (l *List) SetHTML(content string) {
	l.el.Set("innerHTML", content)
}

// Delegate installs one click listener on the container that reports the
// data-id of any remove control clicked inside it. The returned func removes it.
func (l *List) Delegate(onRemove func(id string)) func() {
	handler := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		target := args[0].Get("target")
		if !target.Truthy() || target.Get("closest").IsUndefined() {
			return nil
		}
		button := target.Call("closest", "."+form.ClassRemoveFile)
		if !button.Truthy() {
			return nil
		}
		args[0].Call("preventDefault")
		if id := button.Get("dataset").Get("id"); id.Truthy() {
			onRemove(id.String())
		}
		return nil
	})
	l.el.Call("addEventListener", "click", handler)
	return func() {
		l.el.Call("removeEventListener", "click", handler)
		handler.Release()
	}
}

// SubmitButton toggles the submit control.
type SubmitButton struct {
	el js.Value
}

func (b *SubmitButton) SetDisabled(disabled bool) {
	b.el.Set("disabled", disabled)
	b.el.Get("classList").Call("toggle", "loading", disabled)
}

// Spinner shows or hides the busy indicator.
type Spinner struct {
	el js.Value
}

func (s *Spinner) SetVisible(visible bool) {
	display := "none"
	if visible {
		display = "block"
	}
	s.el.Get("style").Set("display", display)
}

// await blocks until promise settles. It must not run on the event loop goroutine.
func await(ctx context.Context, promise js.Value) (js.Value, error) {
	type result struct {
		value js.Value
		err   error
	}
	done := make(chan result, 1)
	onResolve := js.FuncOf(func(this js.Value, args []js.Value) any {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		done <- result{value: v}
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, args []js.Value) any {
		msg := "promise rejected"
		if len(args) > 0 && args[0].Truthy() {
			msg = args[0].Call("toString").String()
		}
		done <- result{err: errors.New(msg)}
		return nil
	})
	defer onResolve.Release()
	defer onReject.Release()

	promise.Call("then", onResolve, onReject)
	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}
