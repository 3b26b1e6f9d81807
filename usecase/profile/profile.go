package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
	"github.com/taskmaster/gateway/usecase"
)

type UseCase struct {
	profiles repository.ProfileRepository
	errors   usecase.PermissionReporter
	logger   *zap.Logger
}

func New(profiles repository.ProfileRepository, reporter usecase.PermissionReporter, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		profiles: profiles,
		errors:   reporter,
		logger:   logger,
	}
}

// Ensure reads the users/{uid} profile through, creating it from the
// identity credential on first sign-in. Denials are published on the
// error bus with the operation that was rejected.
func (uc *UseCase) Ensure(ctx context.Context, user domain.AuthUser) (*domain.UserProfile, error) {
	existing, err := uc.profiles.GetByID(ctx, user.UID)
	if err == nil {
		return existing, nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		uc.report(repository.ProfilePath(user.UID), domain.OpGet, nil)
		return nil, err
	}

	created := domain.ProfileFor(user)
	if err := uc.profiles.Create(ctx, created); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			// Lost a race with another sign-in; the document exists now.
			return uc.profiles.GetByID(ctx, user.UID)
		}
		uc.report(repository.ProfilePath(user.UID), domain.OpCreate, created)
		return nil, err
	}
	uc.logger.Info("profile created", zap.String("uid", user.UID))
	return created, nil
}

func (uc *UseCase) report(path string, op domain.Operation, data any) {
	if uc.errors == nil {
		return
	}
	uc.errors.Publish(domain.NewPermissionError(path, op, data))
}
