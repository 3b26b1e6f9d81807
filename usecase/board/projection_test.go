package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/gateway/domain"
)

func taskAt(id string, c domain.Category, created time.Time) domain.Task {
	return domain.Task{ID: id, Description: "task " + id, Category: c, CreatedAt: created}
}

func TestBuildBoard_GroupsIntoFourBuckets(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{
		taskAt("a", domain.CategoryUrgentImportant, base),
		taskAt("b", domain.CategoryUnurgentImportant, base),
		taskAt("c", domain.CategoryUrgentUnimportant, base),
		taskAt("d", domain.CategoryUnurgentUnimportant, base),
	}

	b := BuildBoard(remote, nil, Order{})

	assert.Equal(t, 4, b.Size())
	for _, c := range domain.Categories() {
		assert.Len(t, b.Buckets[c], 1)
	}
}

func TestBuildBoard_SortsByCreationTime(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{
		taskAt("late", domain.CategoryUrgentImportant, base.Add(time.Hour)),
		taskAt("early", domain.CategoryUrgentImportant, base),
		taskAt("mid", domain.CategoryUrgentImportant, base.Add(time.Minute)),
	}

	b := BuildBoard(remote, nil, Order{})

	bucket := b.Buckets[domain.CategoryUrgentImportant]
	require.Len(t, bucket, 3)
	assert.Equal(t, "early", bucket[0].ID)
	assert.Equal(t, "mid", bucket[1].ID)
	assert.Equal(t, "late", bucket[2].ID)
}

func TestBuildBoard_EqualTimestampsTieBreakByID(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{
		taskAt("b", domain.CategoryUnurgentImportant, base),
		taskAt("a", domain.CategoryUnurgentImportant, base),
	}

	b := BuildBoard(remote, nil, Order{})

	bucket := b.Buckets[domain.CategoryUnurgentImportant]
	assert.Equal(t, "a", bucket[0].ID)
	assert.Equal(t, "b", bucket[1].ID)
}

func TestBuildBoard_MergesOverlay(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{taskAt("r1", domain.CategoryUrgentImportant, base)}
	overlay := map[string]domain.Task{
		"p1": taskAt("p1", domain.CategoryUrgentImportant, base.Add(time.Minute)),
	}

	b := BuildBoard(remote, overlay, Order{})

	bucket := b.Buckets[domain.CategoryUrgentImportant]
	require.Len(t, bucket, 2)
	assert.Equal(t, "r1", bucket[0].ID)
	assert.Equal(t, "p1", bucket[1].ID)
}

func TestBuildBoard_OverlayIDCollisionPrefersRemote(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{taskAt("x", domain.CategoryUrgentImportant, base)}
	shadow := taskAt("x", domain.CategoryUrgentImportant, base)
	shadow.Pending = true
	overlay := map[string]domain.Task{"x": shadow}

	b := BuildBoard(remote, overlay, Order{})

	bucket := b.Buckets[domain.CategoryUrgentImportant]
	require.Len(t, bucket, 1)
	assert.False(t, bucket[0].Pending)
}

func TestBuildBoard_ManualOrderWins(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{
		taskAt("a", domain.CategoryUrgentImportant, base),
		taskAt("b", domain.CategoryUrgentImportant, base.Add(time.Minute)),
		taskAt("c", domain.CategoryUrgentImportant, base.Add(2*time.Minute)),
	}
	var order Order
	order[domain.CategoryUrgentImportant] = []string{"c", "a", "b"}

	b := BuildBoard(remote, nil, order)

	bucket := b.Buckets[domain.CategoryUrgentImportant]
	require.Len(t, bucket, 3)
	assert.Equal(t, "c", bucket[0].ID)
	assert.Equal(t, "a", bucket[1].ID)
	assert.Equal(t, "b", bucket[2].ID)
}

func TestBuildBoard_UnrankedTasksKeepChronologicalTail(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	remote := []domain.Task{
		taskAt("a", domain.CategoryUrgentImportant, base),
		taskAt("b", domain.CategoryUrgentImportant, base.Add(time.Minute)),
		taskAt("new", domain.CategoryUrgentImportant, base.Add(2*time.Minute)),
	}
	var order Order
	order[domain.CategoryUrgentImportant] = []string{"b", "a"}

	b := BuildBoard(remote, nil, order)

	bucket := b.Buckets[domain.CategoryUrgentImportant]
	require.Len(t, bucket, 3)
	assert.Equal(t, "b", bucket[0].ID)
	assert.Equal(t, "a", bucket[1].ID)
	assert.Equal(t, "new", bucket[2].ID)
}

func TestBuildBoard_SkipsInvalidCategories(t *testing.T) {
	remote := []domain.Task{{ID: "bad", Category: domain.Category(42)}}
	b := BuildBoard(remote, nil, Order{})
	assert.True(t, b.AllEmpty())
}
