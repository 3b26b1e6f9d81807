package transport

import (
	"time"

	"github.com/taskmaster/gateway/domain"
)

// TaskCreateRequest is the add-intent payload. DueDate accepts a
// date-only value or RFC3339; empty means no deadline. Subtasks are
// plain descriptions; ids are assigned by the gateway.
type TaskCreateRequest struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	DueDate     string   `json:"dueDate,omitempty"`
	Subtasks    []string `json:"subtasks,omitempty"`
}

// TaskEditRequest is the edit-intent payload. An empty DueDate clears
// a previously-set due date rather than keeping it.
type TaskEditRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate,omitempty"`
}

// ReorderRequest moves the source task to the target task's position
// within their shared quadrant.
type ReorderRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// LoginRequest is the development-mode sign-in payload.
type LoginRequest struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// ParseDueDate accepts date-only or RFC3339 timestamps.
func ParseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if parsed, err := time.Parse("2006-01-02", s); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid due date", err)
	}
	return &parsed, nil
}
