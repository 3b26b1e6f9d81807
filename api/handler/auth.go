package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/api/transport"
	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/internal/services"
	"github.com/taskmaster/gateway/pkg/httpcontext"
	authUC "github.com/taskmaster/gateway/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	issuer   *authUC.LocalIssuer
	sessions *services.SessionManager
}

// NewAuthHandler wires the sign-in and sign-out endpoints. issuer is
// nil when the gateway runs against the managed identity provider; in
// that mode clients obtain tokens from the provider directly and login
// is unavailable.
func NewAuthHandler(issuer *authUC.LocalIssuer, sessions *services.SessionManager, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		issuer:      issuer,
		sessions:    sessions,
	}
}

// @Summary Mint a development token
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	if h.issuer == nil {
		h.respondJSON(ctx, http.StatusNotFound, transport.NewError(string(domain.ErrCodeNotFound), "local sign-in disabled", nil))
		return
	}

	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.UID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.issuer.SignIn(stdCtx, domain.AuthUser{
		UID:         req.UID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, map[string]string{"token": token})
}

// @Summary Discard the caller's board session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	h.sessions.Drop(userID)
	h.respondSuccess(ctx, http.StatusOK, nil)
}
