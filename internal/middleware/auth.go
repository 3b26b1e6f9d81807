package middleware

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/usecase/auth"
)

// AuthUserKey is the request user-value under which the verified
// credential is stored.
const AuthUserKey = "auth_user"

// TokenAuth verifies the bearer token with the configured identity
// provider and propagates the resolved credential to handlers.
func TokenAuth(verifier auth.TokenVerifier, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			user, err := verifier.Verify(ctx, tokenString)
			if err != nil {
				logger.Warn("token rejected", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			ctx.Request.Header.Set("X-User-ID", user.UID)
			ctx.SetUserValue(AuthUserKey, user)

			next(ctx)
		}
	}
}

// AuthUser retrieves the credential stored by TokenAuth.
func AuthUser(ctx *fasthttp.RequestCtx) (*domain.AuthUser, bool) {
	user, ok := ctx.UserValue(AuthUserKey).(*domain.AuthUser)
	return user, ok
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
