package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/gateway/domain"
)

// Snapshot is one full-collection emission from a live watch: the
// complete current set of remote tasks, never a delta. A Snapshot with
// a non-nil Err is terminal; no further snapshots follow it.
type Snapshot struct {
	Tasks []domain.Task
	Err   error
}

// TaskPatch describes a partial update. Nil fields are left untouched.
// ClearDueDate is explicit so a previously-set due date can be removed
// rather than silently kept (omitting the field is not enough).
type TaskPatch struct {
	Description  *string
	Category     *domain.Category
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
	Subtasks     *[]domain.Subtask
}

// Empty reports whether the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return p.Description == nil && p.Category == nil && p.DueDate == nil &&
		!p.ClearDueDate && p.Completed == nil && p.Subtasks == nil
}

// TaskRepository scopes all operations to one user's task collection
// at users/{uid}/tasks. Create assigns the authoritative id and
// timestamps and returns the stored record. Watch delivers full
// snapshots on the returned channel until ctx is cancelled or a
// terminal error is emitted; the channel is closed afterwards and
// cancellation is idempotent.
type TaskRepository interface {
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	Create(ctx context.Context, userID string, task *domain.Task) (*domain.Task, error)
	Patch(ctx context.Context, userID, id string, patch TaskPatch) error
	Delete(ctx context.Context, userID, id string) error
	Watch(ctx context.Context, userID string) (<-chan Snapshot, error)
}

// ProfileRepository manages the flat users/{uid} profile document.
type ProfileRepository interface {
	GetByID(ctx context.Context, uid string) (*domain.UserProfile, error)
	Create(ctx context.Context, profile *domain.UserProfile) error
}

// HealthChecker is implemented by store drivers that can report
// connectivity for the monitor.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Logical store paths, used for permission-error context.

func ProfilePath(uid string) string {
	return fmt.Sprintf("users/%s", uid)
}

func TasksPath(uid string) string {
	return fmt.Sprintf("users/%s/tasks", uid)
}

func TaskPath(uid, id string) string {
	return fmt.Sprintf("users/%s/tasks/%s", uid, id)
}
