//go:build js && wasm

package browser

import (
	"sync"
	"syscall/js"

	"service-request-form/internal/notify"
)

// Region appends notification elements to the notification container.
type Region struct {
	doc       js.Value
	container js.Value
}

func (r *Region) Append(msg notify.Message) notify.Element {
	el := r.doc.Call("createElement", "div")
	el.Set("className", "notification "+string(msg.Kind))
	el.Call("setAttribute", "role", "status")

	text := r.doc.Call("createElement", "span")
	text.Set("className", "notification-message")
	text.Set("textContent", msg.Text)
	el.Call("appendChild", text)

	closeBtn := r.doc.Call("createElement", "button")
	closeBtn.Set("type", "button")
	closeBtn.Set("className", "notification-close")
	closeBtn.Call("setAttribute", "aria-label", "Close")
	closeBtn.Set("textContent", "×")
	el.Call("appendChild", closeBtn)

	r.container.Call("appendChild", el)
	return &notice{el: el, closeBtn: closeBtn}
}

type notice struct {
	el       js.Value
	closeBtn js.Value

	mu      sync.Mutex
	onClose js.Func
	bound   bool
}

func (n *notice) AddClass(name string) {
	n.el.Get("classList").Call("add", name)
}

func (n *notice) Remove() {
	n.el.Call("remove")
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bound {
		n.closeBtn.Call("removeEventListener", "click", n.onClose)
		n.onClose.Release()
		n.bound = false
	}
}

func (n *notice) Attached() bool {
	return n.el.Get("parentNode").Truthy()
}

func (n *notice) OnClose(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bound {
		return
	}
	n.onClose = js.FuncOf(func(this js.Value, args []js.Value) any {
		go fn()
		return nil
	})
	n.closeBtn.Call("addEventListener", "click", n.onClose)
	n.bound = true
}
