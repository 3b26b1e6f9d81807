// Package firebase constructs the Firebase app and the clients the
// gateway delegates identity and persistence to.
package firebase

import (
	"context"

	cf "cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/taskmaster/gateway/internal/config"
)

// Clients bundles the Firebase services the gateway uses.
type Clients struct {
	App       *fb.App
	Auth      *fbauth.Client
	Firestore *cf.Client
}

// NewClients initializes the Firebase app from configuration and opens
// the Auth and Firestore clients.
func NewClients(ctx context.Context, cfg config.FirebaseConfig, logger *zap.Logger) (*Clients, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, err
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("firebase clients initialized", zap.String("project_id", cfg.ProjectID))
	return &Clients{
		App:       app,
		Auth:      authClient,
		Firestore: fsClient,
	}, nil
}

// Close releases the Firestore client.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
