// Package board hosts the task-synchronization view-model: one Session
// per authenticated user merges the live remote collection watch with
// an optimistic overlay of pending creations, projects the merged set
// into the four-quadrant board, and exposes the mutation intents.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
	"github.com/taskmaster/gateway/usecase"
)

// ErrSessionClosed is returned by intents invoked after Close.
var ErrSessionClosed = domain.NewError(domain.ErrCodeConflict, "board session closed")

const defaultWriteTimeout = 10 * time.Second

// Session owns all per-user board state. It is bound to exactly one
// user identity; switching users means closing this session and
// opening a fresh one, so stale overlay state can never leak across
// an identity switch.
type Session struct {
	userID       string
	repo         repository.TaskRepository
	errors       usecase.PermissionReporter
	logger       *zap.Logger
	now          func() time.Time
	writeTimeout time.Duration

	mu           sync.Mutex
	remote       []domain.Task
	overlay      map[string]domain.Task
	order        Order
	loading      bool
	started      bool
	closed       bool
	cancelWatch  context.CancelFunc
	listeners    map[int]func(domain.Board)
	nextListener int
}

func NewSession(userID string, repo repository.TaskRepository, reporter usecase.PermissionReporter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		userID:       userID,
		repo:         repo,
		errors:       reporter,
		logger:       logger.With(zap.String("user_id", userID)),
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,
		loading:      true,
		overlay:      make(map[string]domain.Task),
		listeners:    make(map[int]func(domain.Board)),
	}
}

func (s *Session) UserID() string { return s.userID }

// Loading is true until the first snapshot arrives or the watch fails.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Board returns the current projection of remote ∪ overlay.
func (s *Session) Board() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildBoard(s.remote, s.overlay, s.order)
}

// OnChange registers a listener invoked with the fresh board after
// every state change. The returned function unsubscribes; it is safe
// to call more than once.
func (s *Session) OnChange(fn func(domain.Board)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Start establishes the live watch over the user's task collection.
// Calling Start on an already started session is a no-op. A watch that
// cannot be established clears the loading state and reports a list
// denial before returning the error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	snaps, err := s.repo.Watch(watchCtx, s.userID)
	if err != nil {
		cancel()
		s.mu.Lock()
		s.started = false
		s.loading = false
		s.mu.Unlock()
		s.report(domain.NewPermissionError(repository.TasksPath(s.userID), domain.OpList, nil))
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrSessionClosed
	}
	s.cancelWatch = cancel
	s.mu.Unlock()

	go s.consume(snaps)
	return nil
}

// Close tears down the watch and discards the overlay. Idempotent; no
// listener is invoked after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancelWatch
	s.overlay = make(map[string]domain.Task)
	s.listeners = make(map[int]func(domain.Board))
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) consume(snaps <-chan repository.Snapshot) {
	for snap := range snaps {
		if snap.Err != nil {
			// The watch stalls silently after an error, so loading
			// must be cleared here, not only on success.
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
			s.logger.Warn("task watch terminated", zap.Error(snap.Err))
			s.report(domain.NewPermissionError(repository.TasksPath(s.userID), domain.OpList, nil))
			s.notify()
			return
		}

		s.mu.Lock()
		s.remote = snap.Tasks
		s.loading = false
		s.order = Order{}
		for id := range s.overlay {
			for i := range snap.Tasks {
				if snap.Tasks[i].ID == id {
					delete(s.overlay, id)
					break
				}
			}
		}
		s.mu.Unlock()
		s.notify()
	}
}

// AddInput carries the validated form values for a new task.
type AddInput struct {
	Description string
	Category    domain.Category
	DueDate     *time.Time
	Subtasks    []string
}

// Add inserts a provisional task into the overlay, making it visible
// immediately, and issues the remote create. On success the overlay
// entry is dropped (the confirmed record arrives via the watch); on
// failure it is rolled back and a create denial is published. Returns
// the provisional id.
func (s *Session) Add(ctx context.Context, in AddInput) (string, error) {
	task := domain.Task{
		ID:          uuid.NewString(),
		Description: in.Description,
		Category:    in.Category,
		DueDate:     in.DueDate,
		Subtasks:    make([]domain.Subtask, 0, len(in.Subtasks)),
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
		Pending:     true,
	}
	for _, desc := range in.Subtasks {
		task.Subtasks = append(task.Subtasks, domain.Subtask{
			ID:          uuid.NewString(),
			Description: desc,
		})
	}
	if err := task.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	s.overlay[task.ID] = task
	s.mu.Unlock()
	s.notify()

	attempt := task
	attempt.ID = ""
	attempt.Pending = false

	go func() {
		wctx, cancel := s.writeContext(ctx)
		defer cancel()

		created, err := s.repo.Create(wctx, s.userID, &attempt)

		s.mu.Lock()
		delete(s.overlay, task.ID)
		s.mu.Unlock()

		if err != nil {
			s.logger.Warn("task create rejected", zap.Error(err))
			s.report(domain.NewPermissionError(repository.TasksPath(s.userID), domain.OpCreate, attempt))
		} else {
			s.logger.Debug("task created", zap.String("task_id", created.ID))
		}
		s.notify()
	}()

	return task.ID, nil
}

// Delete issues the remote delete. No optimistic hiding: the task
// disappears when the next snapshot omits it.
func (s *Session) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	go func() {
		wctx, cancel := s.writeContext(ctx)
		defer cancel()

		if err := s.repo.Delete(wctx, s.userID, id); err != nil {
			s.logger.Warn("task delete rejected", zap.String("task_id", id), zap.Error(err))
			s.report(domain.NewPermissionError(repository.TaskPath(s.userID, id), domain.OpDelete, nil))
		}
	}()
	return nil
}

// Toggle flips the completion flag of a task. With subtasks present
// the persisted value is recomputed from subtask state instead of
// being forced.
func (s *Session) Toggle(ctx context.Context, id string) error {
	task, err := s.find(id)
	if err != nil {
		return err
	}

	next := task.NextCompleted()
	patch := repository.TaskPatch{Completed: &next}
	s.applyPatch(ctx, id, patch, map[string]any{"completed": next})
	return nil
}

// ToggleSubtask flips one subtask and persists the recomputed parent
// completion atomically with the subtask change.
func (s *Session) ToggleSubtask(ctx context.Context, taskID, subtaskID string) error {
	task, err := s.find(taskID)
	if err != nil {
		return err
	}

	subs, completed, ok := task.WithSubtaskToggled(subtaskID)
	if !ok {
		return domain.ErrSubtaskNotFound
	}
	patch := repository.TaskPatch{Subtasks: &subs, Completed: &completed}
	s.applyPatch(ctx, taskID, patch, map[string]any{
		"subtasks":  subs,
		"completed": completed,
	})
	return nil
}

// EditInput carries the validated edit-form values. A nil DueDate
// clears any stored due date rather than keeping it.
type EditInput struct {
	Description string
	Category    domain.Category
	DueDate     *time.Time
}

func (s *Session) Edit(ctx context.Context, id string, in EditInput) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	probe := domain.Task{Description: in.Description, Category: in.Category}
	if err := probe.Validate(); err != nil {
		return err
	}

	patch := repository.TaskPatch{
		Description:  &in.Description,
		Category:     &in.Category,
		DueDate:      in.DueDate,
		ClearDueDate: in.DueDate == nil,
	}
	payload := map[string]any{
		"description": in.Description,
		"category":    in.Category.String(),
		"dueDate":     in.DueDate,
	}
	s.applyPatch(ctx, id, patch, payload)
	return nil
}

// Move reorders a task to the position of another task within the same
// quadrant. The order is cosmetic and session-local: it is never
// persisted and is discarded when the next remote snapshot arrives.
func (s *Session) Move(sourceID, targetID string) error {
	if sourceID == "" || targetID == "" || sourceID == targetID {
		return domain.ErrInvalidPayload
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	b := BuildBoard(s.remote, s.overlay, s.order)

	var bucket []domain.Task
	var category domain.Category
	src, dst := -1, -1
	for _, c := range domain.Categories() {
		src, dst = -1, -1
		for i, t := range b.Buckets[c] {
			switch t.ID {
			case sourceID:
				src = i
			case targetID:
				dst = i
			}
		}
		if src >= 0 && dst >= 0 {
			bucket = b.Buckets[c]
			category = c
			break
		}
	}
	if src < 0 || dst < 0 {
		s.mu.Unlock()
		return domain.ErrTaskNotFound
	}

	ids := make([]string, 0, len(bucket))
	for _, t := range bucket {
		ids = append(ids, t.ID)
	}
	moved := ids[src]
	ids = append(ids[:src], ids[src+1:]...)
	rest := make([]string, 0, len(ids)+1)
	rest = append(rest, ids[:dst]...)
	rest = append(rest, moved)
	rest = append(rest, ids[dst:]...)
	s.order[category] = rest
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Session) applyPatch(ctx context.Context, id string, patch repository.TaskPatch, payload map[string]any) {
	go func() {
		wctx, cancel := s.writeContext(ctx)
		defer cancel()

		if err := s.repo.Patch(wctx, s.userID, id, patch); err != nil {
			s.logger.Warn("task update rejected", zap.String("task_id", id), zap.Error(err))
			s.report(domain.NewPermissionError(repository.TaskPath(s.userID, id), domain.OpUpdate, payload))
		}
	}()
}

// find looks a task up in the merged state.
func (s *Session) find(id string) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, domain.ErrInvalidPayload
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Task{}, ErrSessionClosed
	}
	for i := range s.remote {
		if s.remote[i].ID == id {
			return s.remote[i], nil
		}
	}
	if t, ok := s.overlay[id]; ok {
		return t, nil
	}
	return domain.Task{}, domain.ErrTaskNotFound
}

// writeContext detaches a mutation from its originating request so an
// early client disconnect cannot abort the write mid-flight.
func (s *Session) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}

func (s *Session) report(perr *domain.PermissionError) {
	if s.errors == nil {
		return
	}
	s.errors.Publish(perr)
}

func (s *Session) notify() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	b := BuildBoard(s.remote, s.overlay, s.order)
	fns := make([]func(domain.Board), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(b)
	}
}
