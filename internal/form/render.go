package form

import (
	"html"
	"strings"

	"service-request-form/internal/attachments"
)

// CSS hooks used by the rendered attachment list.
const (
	ClassFileItem   = "file-item"
	ClassRemoveFile = "file-remove-btn"
)

// RenderList rebuilds the attachment list markup from scratch.
func RenderList(items []attachments.Attachment) string {
	if len(items) == 0 {
		return ""
	}
	var builder strings.Builder
	for _, item := range items {
		id := html.EscapeString(item.ID)
		builder.WriteString(`<div class="` + ClassFileItem + `" data-id="` + id + `">`)
		builder.WriteString(`<div class="file-info">`)
		builder.WriteString(`<span class="file-name">`)
		builder.WriteString(html.EscapeString(item.Name()))
		builder.WriteString(`</span><span class="file-size">`)
		builder.WriteString(attachments.FormatSize(item.Size()))
		builder.WriteString(`</span></div>`)
		builder.WriteString(`<button type="button" class="` + ClassRemoveFile + `" data-id="` + id + `" aria-label="Remove `)
		builder.WriteString(html.EscapeString(item.Name()))
		builder.WriteString(`">✕</button>`)
		builder.WriteString(`</div>`)
	}
	return builder.String()
}
