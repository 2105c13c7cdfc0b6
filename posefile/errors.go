package posefile

import "fmt"

// MalformedDocumentError is returned when a pose document cannot be parsed or a camera entry has
// the wrong shape. It is fatal for the owning session only.
type MalformedDocumentError struct {
	Path   string
	Camera string
	Reason string
}

// NewMalformedDocumentError returns a *MalformedDocumentError for the given camera (empty if the
// problem is document-wide).
func NewMalformedDocumentError(camera, reason string) error {
	return &MalformedDocumentError{Camera: camera, Reason: reason}
}

func (e *MalformedDocumentError) Error() string {
	where := "pose document"
	if e.Path != "" {
		where = fmt.Sprintf("pose document %q", e.Path)
	}
	if e.Camera != "" {
		return fmt.Sprintf("malformed %s: camera %q: %s", where, e.Camera, e.Reason)
	}
	return fmt.Sprintf("malformed %s: %s", where, e.Reason)
}
