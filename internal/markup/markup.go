// Package markup inspects the service-request page to learn where the form
// posts, which services it offers and whether every element the client binds to
// is present.
package markup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"service-request-form/internal/pageids"
)

const maxPageBytes = 2 << 20

// ErrIncomplete is wrapped by Layout.Validate.
var ErrIncomplete = errors.New("page is missing form elements")

// Choice is one service option.
type Choice struct {
	Value string
	Label string
}

// Layout is what the page declares about the form.
type Layout struct {
	Action   string
	Method   string
	Services []Choice
	Missing  []string
}

// ServiceValues returns the option values in document order.
func (l Layout) ServiceValues() []string {
	out := make([]string, 0, len(l.Services))
	for _, c := range l.Services {
		out = append(out, c.Value)
	}
	return out
}

// Validate fails when any required element or every service option is absent.
func (l Layout) Validate() error {
	if len(l.Missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(l.Missing, ", "))
	}
	if len(l.Services) == 0 {
		return fmt.Errorf("%w: no service options", ErrIncomplete)
	}
	return nil
}

// Inspect parses an HTML page.
func Inspect(r io.Reader) (Layout, error) {
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(r, maxPageBytes))
	if err != nil {
		return Layout{}, fmt.Errorf("parse page: %w", err)
	}

	var layout Layout
	for _, id := range pageids.Required() {
		if doc.Find("#"+id).Length() == 0 {
			layout.Missing = append(layout.Missing, id)
		}
	}

	formSel := doc.Find("form#" + pageids.Form)
	layout.Action = strings.TrimSpace(formSel.AttrOr("action", ""))
	layout.Method = strings.ToLower(strings.TrimSpace(formSel.AttrOr("method", "")))

	seen := map[string]bool{}
	formSel.Find(`input[name="service"]`).Each(func(_ int, s *goquery.Selection) {
		value := strings.TrimSpace(s.AttrOr("value", ""))
		if value == "" || seen[value] {
			return
		}
		seen[value] = true
		layout.Services = append(layout.Services, Choice{Value: value, Label: labelFor(doc, s, value)})
	})
	return layout, nil
}

func labelFor(doc *goquery.Document, input *goquery.Selection, fallback string) string {
	if id, ok := input.Attr("id"); ok && id != "" {
		if text := strings.TrimSpace(doc.Find(`label[for="` + id + `"]`).First().Text()); text != "" {
			return collapseSpace(text)
		}
	}
	if text := strings.TrimSpace(input.Closest("label").Text()); text != "" {
		return collapseSpace(text)
	}
	return fallback
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fetch downloads pageURL, inspects it and resolves the form action against it.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (Layout, error) {
	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return Layout{}, fmt.Errorf("page url must be http or https: %q", pageURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return Layout{}, err
	}
	req.Header.Set("Accept", "text/html")
	resp, err := client.Do(req)
	if err != nil {
		return Layout{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Layout{}, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	layout, err := Inspect(resp.Body)
	if err != nil {
		return Layout{}, err
	}
	layout.Action = resolve(base, layout.Action)
	return layout, nil
}

// resolve mirrors HTMLFormElement.action: empty means the page itself.
func resolve(base *url.URL, action string) string {
	if action == "" {
		return base.String()
	}
	ref, err := url.Parse(action)
	if err != nil {
		return action
	}
	return base.ResolveReference(ref).String()
}
