package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"

	"service-request-form/internal/attachments"
)

const maxErrorBody = 64 << 10

// Field is a named text value of the form.
type Field struct {
	Name  string
	Value string
}

// Request is one submission: every text field plus every staged attachment.
type Request struct {
	Action  string
	Method  string
	Service string
	Fields  []Field
	Files   []attachments.Attachment
}

// Response is the outcome of an accepted submission.
type Response struct {
	StatusCode int
}

// Transport delivers a Request to the form destination.
type Transport interface {
	Submit(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(context.Context, Request) (Response, error)

// Submit implements Transport.
func (f TransportFunc) Submit(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// HTTPTransport posts requests as multipart/form-data.
type HTTPTransport struct {
	Client *http.Client
}

func (t HTTPTransport) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return http.DefaultClient
}

// Submit implements Transport. Non-2xx responses become *ServerRejection when the
// body is JSON; anything without a usable response wraps ErrTransport.
func (t HTTPTransport) Submit(ctx context.Context, req Request) (Response, error) {
	method, err := normaliseMethod(req.Method)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if strings.TrimSpace(req.Action) == "" {
		return Response{}, fmt.Errorf("%w: form action is empty", ErrTransport)
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writePayload(ctx, mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, method, req.Action, pr)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.httpClient().Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return Response{StatusCode: resp.StatusCode}, nil
	}
	return Response{StatusCode: resp.StatusCode}, decodeRejection(resp)
}

func decodeRejection(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%w: read error body: %v", ErrTransport, err)
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: status %d with undecodable body: %v", ErrTransport, resp.StatusCode, err)
	}
	if payload == nil {
		return fmt.Errorf("%w: status %d with null body", ErrTransport, resp.StatusCode)
	}
	// Any other JSON value is a rejection; only a string "error" member carries a message.
	var message string
	if obj, ok := payload.(map[string]any); ok {
		message, _ = obj["error"].(string)
	}
	return &ServerRejection{StatusCode: resp.StatusCode, Message: strings.TrimSpace(message)}
}

func normaliseMethod(raw string) (string, error) {
	method := strings.ToUpper(strings.TrimSpace(raw))
	switch method {
	case "":
		return http.MethodPost, nil
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return method, nil
	default:
		return "", fmt.Errorf("method %s cannot carry a form body", method)
	}
}

func writePayload(ctx context.Context, mw *multipart.Writer, req Request) error {
	for _, f := range req.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	if err := mw.WriteField(ServiceField, req.Service); err != nil {
		return err
	}
	for _, att := range req.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(ctx, mw, att); err != nil {
			return fmt.Errorf("attach %q: %w", att.Name(), err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(ctx context.Context, mw *multipart.Writer, att attachments.Attachment) error {
	if att.Blob == nil {
		return errors.New("attachment has no content")
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(att.Field), quoteEscaper.Replace(att.Name())))
	header.Set("Content-Type", contentType(att.Name()))
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	rc, err := att.Blob.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(part, rc)
	return err
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
