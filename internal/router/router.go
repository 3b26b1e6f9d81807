package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskmaster/gateway/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Board   *apiHandler.BoardHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))

	r.GET("/api/v1/board", authMiddleware(handlers.Board.GetBoard))
	r.GET("/api/v1/board/stream", authMiddleware(handlers.Board.StreamBoard))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Board.CreateTask))
	r.POST("/api/v1/tasks/reorder", authMiddleware(handlers.Board.Reorder))
	r.PATCH("/api/v1/tasks/{id}", authMiddleware(handlers.Board.EditTask))
	r.POST("/api/v1/tasks/{id}/toggle", authMiddleware(handlers.Board.ToggleTask))
	r.POST("/api/v1/tasks/{id}/subtasks/{subtaskId}/toggle", authMiddleware(handlers.Board.ToggleSubtask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Board.DeleteTask))

	return r
}
