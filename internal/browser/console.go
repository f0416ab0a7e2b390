//go:build js && wasm

package browser

import (
	"strings"
	"syscall/js"
)

// ConsoleWriter sends log output to console.log.
type ConsoleWriter struct{}

func (ConsoleWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimRight(string(p), "\n"); msg != "" {
		js.Global().Get("console").Call("log", msg)
	}
	return len(p), nil
}

// ConsoleError reports a fatal bootstrap problem.
func ConsoleError(msg string) {
	js.Global().Get("console").Call("error", msg)
}
