package board

import (
	"sort"

	"github.com/taskmaster/gateway/domain"
)

// Order is the ephemeral manual ordering of one session: per quadrant,
// the id sequence produced by drag moves. It is discarded whenever a
// fresh remote snapshot arrives.
type Order [domain.CategoryCount][]string

// BuildBoard derives the categorized board from the latest remote
// snapshot and the optimistic overlay. Pure function of its inputs:
// overlay entries whose id collides with a remote document are
// excluded, every task lands in exactly one of the four buckets, and
// buckets are ordered by ascending creation time (provisional tasks
// sort by their provisional timestamp until the authoritative one
// arrives).
func BuildBoard(remote []domain.Task, overlay map[string]domain.Task, order Order) domain.Board {
	var b domain.Board

	seen := make(map[string]struct{}, len(remote))
	for _, t := range remote {
		if !t.Category.Valid() {
			continue
		}
		seen[t.ID] = struct{}{}
		b.Buckets[t.Category] = append(b.Buckets[t.Category], t)
	}
	for _, t := range overlay {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		if !t.Category.Valid() {
			continue
		}
		b.Buckets[t.Category] = append(b.Buckets[t.Category], t)
	}

	for _, c := range domain.Categories() {
		bucket := b.Buckets[c]
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].CreatedAt.Equal(bucket[j].CreatedAt) {
				return bucket[i].ID < bucket[j].ID
			}
			return bucket[i].CreatedAt.Before(bucket[j].CreatedAt)
		})
		b.Buckets[c] = applyOrder(bucket, order[c])
	}
	return b
}

// applyOrder rearranges a chronologically sorted bucket to follow the
// manual id sequence. Ids absent from the sequence (tasks created
// after the drag) keep their chronological position at the tail.
func applyOrder(bucket []domain.Task, ids []string) []domain.Task {
	if len(ids) == 0 || len(bucket) < 2 {
		return bucket
	}
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}

	ordered := make([]domain.Task, 0, len(bucket))
	var tail []domain.Task
	for _, t := range bucket {
		if _, ok := rank[t.ID]; ok {
			ordered = append(ordered, t)
		} else {
			tail = append(tail, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i].ID] < rank[ordered[j].ID]
	})
	return append(ordered, tail...)
}
