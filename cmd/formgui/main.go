//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"service-request-form/internal/browser"
	"service-request-form/internal/form"
	"service-request-form/internal/logging"
	"service-request-form/internal/pageids"
	"service-request-form/internal/waitfor"
)

var document = js.Global().Get("document")

func main() {
	logger := logging.NewWithWriter(browser.ConsoleWriter{})

	err := waitfor.Until(context.Background(), func() bool {
		return document.Call("getElementById", pageids.Form).Truthy()
	}, waitfor.Options{})
	if err != nil {
		browser.ConsoleError("service form not found: " + err.Error())
		return
	}

	page, err := browser.Bind(document)
	if err != nil {
		browser.ConsoleError(err.Error())
		return
	}
	controller, err := form.NewController(page.Slots(), form.Options{Logger: logger})
	if err != nil {
		browser.ConsoleError(err.Error())
		return
	}

	page.List.Delegate(func(id string) {
		controller.RemoveFile(id)
	})
	bindFileInput(page.FileInput, controller)
	page.Form.OnSubmit(func() {
		_ = controller.Submit(context.Background())
	})

	select {}
}

func bindFileInput(input js.Value, controller *form.Controller) {
	onChange := js.FuncOf(func(this js.Value, args []js.Value) any {
		controller.AddFiles(browser.Files(input.Get("files"))...)
		// Clearing lets the same file be picked again after removal.
		input.Set("value", "")
		return nil
	})
	input.Call("addEventListener", "change", onChange)
}
