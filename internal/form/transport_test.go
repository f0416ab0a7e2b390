package form_test

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-request-form/internal/attachments"
	"service-request-form/internal/form"
	"service-request-form/internal/headless"
)

type vanishingBlob struct{ headless.MemoryBlob }

func (vanishingBlob) Open(context.Context) (io.ReadCloser, error) {
	return nil, errors.New("file vanished")
}

func memFile(name, data string) headless.MemoryBlob {
	return headless.MemoryBlob{FileName: name, Data: []byte(data)}
}

func TestHTTPTransportWritesPartsInOrder(t *testing.T) {
	type part struct {
		name, filename, contentType, body string
	}
	var parts []part
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if !assert.NoError(t, err) {
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if !assert.NoError(t, err) {
				return
			}
			body, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(body)})
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := form.HTTPTransport{Client: srv.Client()}.Submit(context.Background(), form.Request{
		Action:  srv.URL,
		Method:  "put",
		Service: "audit",
		Fields:  []form.Field{{Name: "name", Value: "Ada"}},
		Files: []attachments.Attachment{
			{ID: "x", Field: "file-0", Blob: memFile("scan.pdf", "%PDF")},
			{ID: "y", Field: "file-1", Blob: memFile(`odd"name.bin`, "raw")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.MethodPut, method)

	require.Len(t, parts, 4)
	assert.Equal(t, part{name: "name", body: "Ada"}, parts[0])
	assert.Equal(t, part{name: form.ServiceField, body: "audit"}, parts[1])
	assert.Equal(t, part{"file-0", "scan.pdf", "application/pdf", "%PDF"}, parts[2])
	assert.Equal(t, `odd"name.bin`, parts[3].filename)
	assert.Equal(t, "application/octet-stream", parts[3].contentType)
}

func TestHTTPTransportRejectsBodylessMethods(t *testing.T) {
	for _, m := range []string{"get", "HEAD", "delete"} {
		_, err := form.HTTPTransport{}.Submit(context.Background(), form.Request{Action: "http://example.test", Method: m})
		assert.ErrorIs(t, err, form.ErrTransport, "method %s", m)
	}
}

func TestHTTPTransportRequiresAction(t *testing.T) {
	_, err := form.HTTPTransport{}.Submit(context.Background(), form.Request{Action: "  "})
	assert.ErrorIs(t, err, form.ErrTransport)
}

func TestHTTPTransportFileOpenFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := form.HTTPTransport{Client: srv.Client()}.Submit(context.Background(), form.Request{
		Action:  srv.URL,
		Service: "audit",
		Files:   []attachments.Attachment{{ID: "x", Field: "file-0", Blob: vanishingBlob{memFile("gone.txt", "")}}},
	})
	assert.ErrorIs(t, err, form.ErrTransport)
}

func TestHTTPTransportErrorBodies(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		transport bool
		message   string
	}{
		{name: "error member", body: `{"error":" bad field "}`, message: "bad field"},
		{name: "empty object", body: `{}`},
		{name: "non-string error", body: `{"error":5}`},
		{name: "array", body: `[]`},
		{name: "string", body: `"x"`},
		{name: "number", body: `42`},
		{name: "null", body: `null`, transport: true},
		{name: "html", body: "<html>bad gateway</html>", transport: true},
		{name: "empty", body: "", transport: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			resp, err := form.HTTPTransport{Client: srv.Client()}.Submit(context.Background(), form.Request{Action: srv.URL, Service: "audit"})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			if tc.transport {
				assert.ErrorIs(t, err, form.ErrTransport)
				return
			}
			var rejection *form.ServerRejection
			require.ErrorAs(t, err, &rejection)
			assert.Equal(t, http.StatusBadRequest, rejection.StatusCode)
			assert.Equal(t, tc.message, rejection.Message)
		})
	}
}

func TestSelectService(t *testing.T) {
	_, err := form.SelectService(nil)
	assert.ErrorIs(t, err, form.ErrNoService)

	got, err := form.SelectService([]string{"payroll", "audit"})
	require.NoError(t, err)
	assert.Equal(t, "payroll", got)

	got, err = form.SelectService([]string{"", "audit"})
	require.NoError(t, err)
	assert.Equal(t, "", got, "a checked option is sent as-is")
}

func TestRenderList(t *testing.T) {
	assert.Empty(t, form.RenderList(nil))

	markup := form.RenderList([]attachments.Attachment{
		{ID: "file-1", Field: "file-0", Blob: memFile("<b>x</b>.txt", strings.Repeat("x", 1536))},
	})
	for _, want := range []string{
		`data-id="file-1"`,
		`class="file-remove-btn"`,
		"&lt;b&gt;x&lt;/b&gt;.txt",
		"1.5 KB",
	} {
		assert.Contains(t, markup, want)
	}
}
