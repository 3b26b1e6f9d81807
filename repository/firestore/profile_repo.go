package firestore

import (
	"context"

	"github.com/taskmaster/gateway/domain"
)

type profileRepo struct {
	s *Store
}

type profileDoc struct {
	UID         string `firestore:"uid"`
	Email       string `firestore:"email"`
	DisplayName string `firestore:"displayName"`
	PhotoURL    string `firestore:"photoURL"`
}

func (r profileRepo) GetByID(ctx context.Context, uid string) (*domain.UserProfile, error) {
	snap, err := r.s.userDoc(uid).Get(ctx)
	if err != nil {
		return nil, classify(err, domain.ErrProfileNotFound)
	}
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "malformed profile document", err)
	}
	return &domain.UserProfile{
		UID:         doc.UID,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		PhotoURL:    doc.PhotoURL,
	}, nil
}

func (r profileRepo) Create(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UID == "" {
		return domain.ErrInvalidPayload
	}
	doc := profileDoc{
		UID:         profile.UID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
	}
	if _, err := r.s.userDoc(profile.UID).Create(ctx, doc); err != nil {
		return classify(err, nil)
	}
	return nil
}
