//go:build js && wasm

package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"syscall/js"

	"service-request-form/internal/attachments"
)

// FileBlob is a browser File picked by the user.
type FileBlob struct {
	file js.Value
}

// NewFileBlob wraps a js File value.
func NewFileBlob(file js.Value) *FileBlob {
	return &FileBlob{file: file}
}

// Files wraps every entry of a FileList.
func Files(list js.Value) []attachments.Blob {
	if !list.Truthy() {
		return nil
	}
	n := list.Length()
	out := make([]attachments.Blob, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewFileBlob(list.Call("item", i)))
	}
	return out
}

func (b *FileBlob) Name() string { return b.file.Get("name").String() }

func (b *FileBlob) Size() int64 { return int64(b.file.Get("size").Float()) }

// Open reads the whole file through arrayBuffer().
func (b *FileBlob) Open(ctx context.Context) (io.ReadCloser, error) {
	buf, err := await(ctx, b.file.Call("arrayBuffer"))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Name(), err)
	}
	view := js.Global().Get("Uint8Array").New(buf)
	data := make([]byte, view.Length())
	js.CopyBytesToGo(data, view)
	return io.NopCloser(bytes.NewReader(data)), nil
}

// HiddenInputs binds each staged file to its own hidden file input so the
// form element carries it under its unique field name.
type HiddenInputs struct {
	doc       js.Value
	container js.Value
}

var errForeignBlob = errors.New("browser: only browser files can be bound")

func (h *HiddenInputs) Bind(field string, blob attachments.Blob) (attachments.Binding, error) {
	fb, ok := blob.(*FileBlob)
	if !ok {
		return nil, errForeignBlob
	}
	transfer := js.Global().Get("DataTransfer")
	if !transfer.Truthy() {
		return nil, errors.New("browser: DataTransfer is not supported")
	}
	dt := transfer.New()
	dt.Get("items").Call("add", fb.file)

	input := h.doc.Call("createElement", "input")
	input.Set("type", "file")
	input.Set("name", field)
	input.Set("hidden", true)
	input.Set("files", dt.Get("files"))
	h.container.Call("appendChild", input)
	return hiddenInput{el: input}, nil
}

type hiddenInput struct {
	el js.Value
}

func (h hiddenInput) Detach() {
	h.el.Call("remove")
}
