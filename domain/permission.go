package domain

import "fmt"

// Operation names the document-store action that was rejected.
type Operation string

const (
	OpGet    Operation = "get"
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// PermissionError carries enough context to reconstruct a rejected
// store operation: the document or collection path, the operation
// kind, and the payload that was being written, if any. Instances are
// published on the error bus rather than returned to intent callers.
type PermissionError struct {
	Path                string    `json:"path"`
	Operation           Operation `json:"operation"`
	RequestResourceData any       `json:"requestResourceData,omitempty"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: unable to %s %q", e.Operation, e.Path)
}

// NewPermissionError builds the bus payload for a rejected operation.
func NewPermissionError(path string, op Operation, data any) *PermissionError {
	return &PermissionError{
		Path:                path,
		Operation:           op,
		RequestResourceData: data,
	}
}
