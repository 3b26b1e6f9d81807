package firebase

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/taskmaster/gateway/domain"
	authUC "github.com/taskmaster/gateway/usecase/auth"
)

// Verifier validates Firebase ID tokens issued by the client-side
// sign-in flow.
type Verifier struct {
	auth *fbauth.Client
}

func NewVerifier(client *fbauth.Client) *Verifier {
	return &Verifier{auth: client}
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (*domain.AuthUser, error) {
	token, err := v.auth.VerifyIDToken(ctx, tokenString)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, "invalid id token", err)
	}

	user := &domain.AuthUser{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		user.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		user.PhotoURL = picture
	}
	return user, nil
}

var _ authUC.TokenVerifier = (*Verifier)(nil)
