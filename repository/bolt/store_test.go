package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/gateway/domain"
	"github.com/taskmaster/gateway/repository"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_CreateAssignsIDAndTimestamps(t *testing.T) {
	store := openStore(t)

	created, err := store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUnurgentUnimportant,
		Pending:     true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Pending)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.NotNil(t, created.Subtasks)

	got, err := store.GetByID(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants", got.Description)
}

func TestStore_GetByIDUnknown(t *testing.T) {
	store := openStore(t)

	_, err := store.GetByID(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_PatchUpdatesOnlyGivenFields(t *testing.T) {
	store := openStore(t)
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	created, err := store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUnurgentUnimportant,
		DueDate:     &due,
	})
	require.NoError(t, err)

	desc := "water all plants"
	require.NoError(t, store.Patch(context.Background(), "u1", created.ID, repository.TaskPatch{
		Description: &desc,
	}))

	got, err := store.GetByID(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "water all plants", got.Description)
	assert.Equal(t, domain.CategoryUnurgentUnimportant, got.Category)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestStore_PatchClearsDueDate(t *testing.T) {
	store := openStore(t)
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	created, err := store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUnurgentUnimportant,
		DueDate:     &due,
	})
	require.NoError(t, err)

	require.NoError(t, store.Patch(context.Background(), "u1", created.ID, repository.TaskPatch{
		ClearDueDate: true,
	}))

	got, err := store.GetByID(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
}

func TestStore_PatchEmptyIsNoOp(t *testing.T) {
	store := openStore(t)

	created, err := store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUnurgentUnimportant,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	snaps, err := store.Watch(ctx, "u1")
	require.NoError(t, err)
	<-snaps // initial

	require.NoError(t, store.Patch(context.Background(), "u1", created.ID, repository.TaskPatch{}))

	// nothing changed, nothing broadcast
	got, err := store.GetByID(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, got.UpdatedAt)
	select {
	case snap := <-snaps:
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_PatchUnknownTask(t *testing.T) {
	store := openStore(t)
	done := true
	err := store.Patch(context.Background(), "u1", "nope", repository.TaskPatch{Completed: &done})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := openStore(t)

	created, err := store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUrgentImportant,
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "u1", created.ID))
	_, err = store.GetByID(context.Background(), "u1", created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	assert.ErrorIs(t, store.Delete(context.Background(), "u1", created.ID), domain.ErrTaskNotFound)
}

func TestStore_CollectionsAreScopedPerUser(t *testing.T) {
	store := openStore(t)

	created, err := store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUrgentImportant,
	})
	require.NoError(t, err)

	_, err = store.GetByID(context.Background(), "u2", created.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestStore_WatchDeliversInitialAndMutationSnapshots(t *testing.T) {
	store := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := store.Watch(ctx, "u1")
	require.NoError(t, err)

	first := <-snaps
	require.NoError(t, first.Err)
	assert.Empty(t, first.Tasks)

	_, err = store.Create(context.Background(), "u1", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUrgentImportant,
	})
	require.NoError(t, err)

	select {
	case snap := <-snaps:
		require.NoError(t, snap.Err)
		require.Len(t, snap.Tasks, 1)
		assert.Equal(t, "water plants", snap.Tasks[0].Description)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after create")
	}
}

func TestStore_WatchIgnoresOtherUsers(t *testing.T) {
	store := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := store.Watch(ctx, "u1")
	require.NoError(t, err)
	<-snaps // initial

	_, err = store.Create(context.Background(), "u2", &domain.Task{
		Description: "water plants",
		Category:    domain.CategoryUrgentImportant,
	})
	require.NoError(t, err)

	select {
	case snap := <-snaps:
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_WatchCancelClosesChannel(t *testing.T) {
	store := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	snaps, err := store.Watch(ctx, "u1")
	require.NoError(t, err)
	<-snaps // initial

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-snaps:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestStore_Profiles(t *testing.T) {
	store := openStore(t)
	profiles := store.Profiles()

	_, err := profiles.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	require.NoError(t, profiles.Create(context.Background(), &domain.UserProfile{
		UID:   "u1",
		Email: "u1@example.com",
	}))

	got, err := profiles.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
}

func TestStore_Ping(t *testing.T) {
	store := openStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
