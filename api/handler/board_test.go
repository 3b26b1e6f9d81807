package handler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/internal/errbus"
	"github.com/taskmaster/gateway/internal/services"
	"github.com/taskmaster/gateway/pkg/httpcontext"
	"github.com/taskmaster/gateway/repository"
	boardUC "github.com/taskmaster/gateway/usecase/board"
)

func TestDenialScopedTo(t *testing.T) {
	cases := []struct {
		userID string
		path   string
		want   bool
	}{
		{"alice", "users/alice/tasks", true},
		{"alice", "users/alice/tasks/t1", true},
		{"alice", "users/alice", true},
		{"alice", "users/alice123/tasks", false},
		{"alice", "users/alice123", false},
		{"alice123", "users/alice/tasks", false},
		{"alice", "users/bob/tasks", false},
		{"alice", "", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, denialScopedTo(tc.userID, tc.path),
			"user %q path %q", tc.userID, tc.path)
	}
}

// capturingRepo records the context each mutation arrives with.
type capturingRepo struct {
	mu       sync.Mutex
	lastCtx  context.Context
	watchCtx context.Context
}

func (r *capturingRepo) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (r *capturingRepo) Create(ctx context.Context, userID string, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	r.lastCtx = ctx
	r.mu.Unlock()
	created := *task
	created.ID = "created-1"
	return &created, nil
}

func (r *capturingRepo) Patch(ctx context.Context, userID, id string, patch repository.TaskPatch) error {
	return nil
}

func (r *capturingRepo) Delete(ctx context.Context, userID, id string) error {
	return nil
}

func (r *capturingRepo) Watch(ctx context.Context, userID string) (<-chan repository.Snapshot, error) {
	r.mu.Lock()
	r.watchCtx = ctx
	r.mu.Unlock()
	ch := make(chan repository.Snapshot, 1)
	ch <- repository.Snapshot{}
	return ch, nil
}

func (r *capturingRepo) contexts() (context.Context, context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastCtx, r.watchCtx
}

func newBoardHandlerFixture(t *testing.T) (*BoardHandler, *capturingRepo) {
	t.Helper()
	repo := &capturingRepo{}
	bus := errbus.New()
	sessions := services.NewSessionManager(func(userID string) *boardUC.Session {
		return boardUC.NewSession(userID, repo, bus, nil)
	}, services.ManagerConfig{IdleTTL: time.Hour, SweepInterval: time.Hour}, nil)
	t.Cleanup(sessions.CloseAll)

	h := NewBoardHandler(sessions, bus, httpcontext.NewAdapter(time.Second), nil)
	return h, repo
}

func TestCreateTask_MutationContextIsDetachedFromRequest(t *testing.T) {
	h, repo := newBoardHandlerFixture(t)

	// The request context is pooled by the server and reset after the
	// handler returns; values set on it must not be reachable from the
	// contexts handed to the store.
	var reqCtx fasthttp.RequestCtx
	reqCtx.SetUserValue("pooled_marker", "leak")
	reqCtx.Request.Header.Set("X-User-ID", "u1")
	body, err := json.Marshal(map[string]any{
		"description": "write report",
		"category":    "Urgent & Important",
	})
	require.NoError(t, err)
	reqCtx.Request.SetBody(body)

	h.CreateTask(&reqCtx)
	assert.Equal(t, fasthttp.StatusAccepted, reqCtx.Response.StatusCode())

	require.Eventually(t, func() bool {
		createCtx, _ := repo.contexts()
		return createCtx != nil
	}, time.Second, 5*time.Millisecond)

	createCtx, watchCtx := repo.contexts()
	assert.Nil(t, createCtx.Value("pooled_marker"))
	require.NotNil(t, watchCtx)
	assert.Nil(t, watchCtx.Value("pooled_marker"))
}
