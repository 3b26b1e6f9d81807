package bolt

import (
	"context"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
)

// Tasks exposes the store as a task repository.
func (s *Store) Tasks() repository.TaskRepository { return s }

// Profiles exposes the store as a profile repository.
func (s *Store) Profiles() repository.ProfileRepository { return profileStore{s} }

type profileStore struct {
	s *Store
}

func (p profileStore) GetByID(ctx context.Context, uid string) (*domain.UserProfile, error) {
	return p.s.GetProfile(ctx, uid)
}

func (p profileStore) Create(ctx context.Context, profile *domain.UserProfile) error {
	return p.s.CreateProfile(ctx, profile)
}

func (s *Store) GetProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var profile *domain.UserProfile
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketProfiles).Get([]byte(uid))
		if raw == nil {
			return domain.ErrProfileNotFound
		}
		var p domain.UserProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		profile = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	if profile == nil || profile.UID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProfiles).Put([]byte(profile.UID), payload)
	})
}
