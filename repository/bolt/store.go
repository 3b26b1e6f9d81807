// Package bolt provides a BoltDB-backed document store used for local
// development, mirroring the hosted store's contract: per-user task
// collections, profile documents, and live full-snapshot watches. The
// watch fan-out is in-process; every mutation broadcasts the complete
// current collection to all watchers of the affected user.
package bolt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
)

var (
	bucketTasks    = []byte("tasks")
	bucketProfiles = []byte("profiles")
)

// Store wraps BoltDB and implements repository.TaskRepository,
// repository.ProfileRepository and repository.HealthChecker.
type Store struct {
	db *bolt.DB

	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]chan repository.Snapshot
}

// Open initializes the BoltDB file and ensures the root buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketTasks); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketProfiles)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		watchers: make(map[string]map[int]chan repository.Snapshot),
	}, nil
}

// Close closes the Bolt database and terminates all watches.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	for uid, chans := range s.watchers {
		for id, ch := range chans {
			close(ch)
			delete(chans, id)
		}
		delete(s.watchers, uid)
	}
	s.mu.Unlock()
	return s.db.Close()
}

// Ping reports connectivity for the monitor.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketTasks) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

func (s *Store) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	var task *domain.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTasks).Bucket([]byte(userID))
		if b == nil {
			return domain.ErrTaskNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return domain.ErrTaskNotFound
		}
		var t domain.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		task = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) Create(ctx context.Context, userID string, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	stored := *task
	stored.ID = uuid.NewString()
	stored.Pending = false
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Subtasks == nil {
		stored.Subtasks = []domain.Subtask{}
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketTasks).CreateBucketIfNotExists([]byte(userID))
		if err != nil {
			return err
		}
		payload, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return b.Put([]byte(stored.ID), payload)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(userID)
	return &stored, nil
}

func (s *Store) Patch(ctx context.Context, userID, id string, patch repository.TaskPatch) error {
	if patch.Empty() {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTasks).Bucket([]byte(userID))
		if b == nil {
			return domain.ErrTaskNotFound
		}
		raw := b.Get([]byte(id))
		if raw == nil {
			return domain.ErrTaskNotFound
		}
		var t domain.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}

		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Category != nil {
			t.Category = *patch.Category
		}
		if patch.DueDate != nil {
			due := *patch.DueDate
			t.DueDate = &due
		} else if patch.ClearDueDate {
			t.DueDate = nil
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		if patch.Subtasks != nil {
			t.Subtasks = *patch.Subtasks
		}
		t.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), payload)
	})
	if err != nil {
		return err
	}

	s.broadcast(userID)
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTasks).Bucket([]byte(userID))
		if b == nil || b.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return err
	}

	s.broadcast(userID)
	return nil
}

// Watch registers a snapshot channel for one user's collection. The
// current collection is delivered immediately; subsequent mutations
// broadcast fresh snapshots. Cancelling ctx unregisters the watcher
// and closes the channel; repeated cancellation is harmless.
func (s *Store) Watch(ctx context.Context, userID string) (<-chan repository.Snapshot, error) {
	ch := make(chan repository.Snapshot, 8)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.watchers[userID] == nil {
		s.watchers[userID] = make(map[int]chan repository.Snapshot)
	}
	s.watchers[userID][id] = ch
	s.mu.Unlock()

	tasks, err := s.list(userID)
	if err != nil {
		s.unregister(userID, id)
		return nil, err
	}
	ch <- repository.Snapshot{Tasks: tasks}

	go func() {
		<-ctx.Done()
		s.unregister(userID, id)
	}()

	return ch, nil
}

func (s *Store) unregister(userID string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chans := s.watchers[userID]
	if chans == nil {
		return
	}
	if ch, ok := chans[id]; ok {
		close(ch)
		delete(chans, id)
	}
	if len(chans) == 0 {
		delete(s.watchers, userID)
	}
}

func (s *Store) broadcast(userID string) {
	tasks, err := s.list(userID)
	snap := repository.Snapshot{Tasks: tasks, Err: err}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers[userID] {
		// Latest snapshot wins: a slow consumer loses intermediate
		// emissions, never the most recent one.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *Store) list(userID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTasks).Bucket([]byte(userID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var t domain.Task
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			tasks = append(tasks, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
