package usecase

import "github.com/taskmaster/gateway/domain"

// PermissionReporter abstracts the error bus so use cases stay
// decoupled from the presentation side of failure handling.
type PermissionReporter interface {
	Publish(*domain.PermissionError)
}
