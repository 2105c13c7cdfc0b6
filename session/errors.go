package session

import "fmt"

// MissingPoseDocumentError is reported when a session directory has no pose document. The
// session is not fatal: its images still go through extraction and matching, just without rig
// constraints.
type MissingPoseDocumentError struct {
	Session string
	Path    string
}

// NewMissingPoseDocumentError returns a *MissingPoseDocumentError.
func NewMissingPoseDocumentError(session, path string) error {
	return &MissingPoseDocumentError{Session: session, Path: path}
}

func (e *MissingPoseDocumentError) Error() string {
	return fmt.Sprintf("session %q has no pose document at %q", e.Session, e.Path)
}
