package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/api/transport"
	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/internal/errbus"
	"github.com/taskmaster/gateway/internal/services"
	"github.com/taskmaster/gateway/pkg/httpcontext"
	boardUC "github.com/taskmaster/gateway/usecase/board"
)

const streamHeartbeat = 25 * time.Second

// BoardHandler exposes the per-user board projection and the mutation
// intents over HTTP, plus a server-sent-events feed of board snapshots
// and permission denials.
type BoardHandler struct {
	baseHandler
	sessions *services.SessionManager
	bus      *errbus.Bus
}

func NewBoardHandler(sessions *services.SessionManager, bus *errbus.Bus, adapter *httpcontext.Adapter, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
		bus:         bus,
	}
}

type boardResponse struct {
	Board   domain.Board `json:"board"`
	Loading bool         `json:"loading"`
}

// @Summary Current board projection
// @Tags board
// @Router /api/v1/board [get]
func (h *BoardHandler) GetBoard(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, boardResponse{
		Board:   session.Board(),
		Loading: session.Loading(),
	})
}

// @Summary Stream board snapshots and denials as server-sent events
// @Tags board
// @Router /api/v1/board/stream [get]
func (h *BoardHandler) StreamBoard(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}
	userID := session.UserID()

	ctx.Response.Header.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		boards := make(chan domain.Board, 8)
		denials := make(chan *domain.PermissionError, 8)

		unsubBoard := session.OnChange(func(b domain.Board) {
			select {
			case boards <- b:
			default:
			}
		})
		defer unsubBoard()

		unsubDenied := h.bus.Subscribe(func(perr *domain.PermissionError) {
			if !denialScopedTo(userID, perr.Path) {
				return
			}
			select {
			case denials <- perr:
			default:
			}
		})
		defer unsubDenied()

		if err := writeSSE(w, "board", boardResponse{Board: session.Board(), Loading: session.Loading()}); err != nil {
			return
		}

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case b := <-boards:
				if err := writeSSE(w, "board", boardResponse{Board: b, Loading: session.Loading()}); err != nil {
					return
				}
			case perr := <-denials:
				if err := writeSSE(w, "denied", perr); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}

// @Summary Add a task
// @Tags board
// @Router /api/v1/tasks [post]
func (h *BoardHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	dueDate, err := transport.ParseDueDate(req.DueDate)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	provisionalID, err := session.Add(stdCtx, boardUC.AddInput{
		Description: req.Description,
		Category:    category,
		DueDate:     dueDate,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, map[string]string{"id": provisionalID})
}

// @Summary Edit a task
// @Tags board
// @Router /api/v1/tasks/{id} [patch]
func (h *BoardHandler) EditTask(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	var req transport.TaskEditRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	dueDate, err := transport.ParseDueDate(req.DueDate)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := session.Edit(stdCtx, id, boardUC.EditInput{
		Description: req.Description,
		Category:    category,
		DueDate:     dueDate,
	}); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}

// @Summary Toggle task completion
// @Tags board
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *BoardHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := session.Toggle(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}

// @Summary Toggle one subtask
// @Tags board
// @Router /api/v1/tasks/{id}/subtasks/{subtaskId}/toggle [post]
func (h *BoardHandler) ToggleSubtask(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	subtaskID, _ := ctx.UserValue("subtaskId").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := session.ToggleSubtask(stdCtx, id, subtaskID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}

// @Summary Reorder a task within its quadrant
// @Tags board
// @Router /api/v1/tasks/reorder [post]
func (h *BoardHandler) Reorder(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	var req transport.ReorderRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	if err := session.Move(req.SourceID, req.TargetID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, boardResponse{
		Board:   session.Board(),
		Loading: session.Loading(),
	})
}

// @Summary Delete a task
// @Tags board
// @Router /api/v1/tasks/{id} [delete]
func (h *BoardHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := session.Delete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, nil)
}

// session resolves the caller's board session. The acquire (and the
// watch it may establish) runs on a detached std context rather than
// the pooled request context, which fasthttp recycles after the
// handler returns.
func (h *BoardHandler) session(ctx *fasthttp.RequestCtx) *boardUC.Session {
	userID := h.userID(ctx)
	if userID == "" {
		return nil
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.sessions.Acquire(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return nil
	}
	return session
}

// denialScopedTo reports whether a denial path lies inside one user's
// document tree. A bare prefix match is not enough: a uid that is a
// string-prefix of another uid must not see the other's events.
func denialScopedTo(userID, path string) bool {
	scope := "users/" + userID
	return path == scope || strings.HasPrefix(path, scope+"/")
}

func writeSSE(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
