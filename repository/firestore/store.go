// Package firestore implements the document-store contract against
// Cloud Firestore: users/{uid} profile documents and users/{uid}/tasks
// collections with live snapshot watches.
package firestore

import (
	"context"

	cf "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
)

const usersCollection = "users"

// Store wraps a Firestore client and exposes the repository views.
type Store struct {
	client *cf.Client
}

func New(client *cf.Client) *Store {
	return &Store{client: client}
}

// Tasks exposes the store as a task repository.
func (s *Store) Tasks() repository.TaskRepository { return taskRepo{s} }

// Profiles exposes the store as a profile repository.
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }

// Ping verifies connectivity for the monitor with a cheap read.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(usersCollection).Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) userDoc(uid string) *cf.DocumentRef {
	return s.client.Collection(usersCollection).Doc(uid)
}

func (s *Store) tasksCol(uid string) *cf.CollectionRef {
	return s.userDoc(uid).Collection("tasks")
}

// classify translates a Firestore error into the domain taxonomy.
func classify(err error, notFound *domain.Error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.PermissionDenied:
		return domain.WrapError(domain.ErrCodeForbidden, "permission denied", err)
	case codes.Unauthenticated:
		return domain.WrapError(domain.ErrCodeUnauthorized, "unauthenticated", err)
	case codes.NotFound:
		if notFound != nil {
			return notFound
		}
		return domain.WrapError(domain.ErrCodeNotFound, "not found", err)
	case codes.AlreadyExists:
		return domain.WrapError(domain.ErrCodeConflict, "already exists", err)
	default:
		return domain.WrapError(domain.ErrCodeInternal, "store error", err)
	}
}
