// Package pageids names the elements of the service-request page that the
// browser client binds to. It has no dependencies so the wasm build stays small.
package pageids

const (
	Form          = "serviceForm"
	FileInput     = "file-input"
	FileList      = "file-list"
	HiddenInputs  = "hidden-file-inputs"
	Submit        = "submit-button"
	Spinner       = "submit-spinner"
	Notifications = "notification-container"
)

// Required lists every element id the client needs, form first.
func Required() []string {
	return []string{Form, FileInput, FileList, HiddenInputs, Submit, Spinner, Notifications}
}
