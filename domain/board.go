package domain

import "encoding/json"

// Board is the categorized projection of the merged task set: exactly
// one bucket per quadrant, each ordered by ascending creation time.
type Board struct {
	Buckets [CategoryCount][]Task
}

// Bucket returns the ordered tasks of one quadrant.
func (b Board) Bucket(c Category) []Task {
	if !c.Valid() {
		return nil
	}
	return b.Buckets[c]
}

// AllEmpty is true iff every one of the four buckets is empty. The
// view layer uses it to switch between the empty-state presentation
// and the populated grid.
func (b Board) AllEmpty() bool {
	for _, bucket := range b.Buckets {
		if len(bucket) > 0 {
			return false
		}
	}
	return true
}

// Size returns the total number of tasks across all buckets.
func (b Board) Size() int {
	n := 0
	for _, bucket := range b.Buckets {
		n += len(bucket)
	}
	return n
}

type boardJSON struct {
	Categories    map[string][]Task `json:"categories"`
	AllTasksEmpty bool              `json:"allTasksEmpty"`
}

func (b Board) MarshalJSON() ([]byte, error) {
	out := boardJSON{
		Categories:    make(map[string][]Task, CategoryCount),
		AllTasksEmpty: b.AllEmpty(),
	}
	for _, c := range Categories() {
		bucket := b.Buckets[c]
		if bucket == nil {
			bucket = []Task{}
		}
		out.Categories[c.String()] = bucket
	}
	return json.Marshal(out)
}
