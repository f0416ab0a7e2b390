package form

// ServiceField is the multipart field carrying the selected service.
const ServiceField = "service"

// SelectService picks the submitted service from the current selections.
// An empty selection fails with ErrNoService; with several, the first wins.
// The value is sent as checked, blank included; the receiver judges it.
func SelectService(selected []string) (string, error) {
	if len(selected) == 0 {
		return "", ErrNoService
	}
	return selected[0], nil
}
