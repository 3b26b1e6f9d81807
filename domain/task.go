package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category is one of the four fixed urgency/importance quadrants a task
// belongs to. The set is closed: grouping always produces exactly these
// four buckets.
type Category int

const (
	CategoryUrgentImportant Category = iota
	CategoryUnurgentImportant
	CategoryUrgentUnimportant
	CategoryUnurgentUnimportant

	CategoryCount
)

var categoryNames = [CategoryCount]string{
	CategoryUrgentImportant:     "Urgent & Important",
	CategoryUnurgentImportant:   "Unurgent & Important",
	CategoryUrgentUnimportant:   "Urgent & Unimportant",
	CategoryUnurgentUnimportant: "Unurgent & Unimportant",
}

// Categories returns all four quadrants in display order.
func Categories() [CategoryCount]Category {
	return [CategoryCount]Category{
		CategoryUrgentImportant,
		CategoryUnurgentImportant,
		CategoryUrgentUnimportant,
		CategoryUnurgentUnimportant,
	}
}

func (c Category) Valid() bool {
	return c >= 0 && c < CategoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps the stored category string onto the enum.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, WrapError(ErrCodeInvalid, "unknown category", fmt.Errorf("%q", s))
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid category %d", int(c))
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Subtask is a single step within a task.
type Subtask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Task is the central entity: one item in a user's task collection.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	Subtasks    []Subtask  `json:"subtasks"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Pending marks a provisional task whose creation has not yet been
	// confirmed by a remote snapshot. Never persisted.
	Pending bool `json:"pending,omitempty"`
}

// MinDescriptionLen is enforced at the input boundary, before any
// remote call is made.
const MinDescriptionLen = 3

// AllSubtasksDone reports whether every subtask is completed. An empty
// slice yields true; callers must check for emptiness first when the
// distinction matters.
func AllSubtasksDone(subs []Subtask) bool {
	for _, s := range subs {
		if !s.Completed {
			return false
		}
	}
	return true
}

// DerivedCompleted returns the completion flag the task must carry:
// with subtasks present it is the AND of all subtask flags, otherwise
// the independently stored flag.
func (t Task) DerivedCompleted() bool {
	if len(t.Subtasks) == 0 {
		return t.Completed
	}
	return AllSubtasksDone(t.Subtasks)
}

// NextCompleted computes the completion value a parent toggle should
// persist. Direct flipping only applies to tasks without subtasks;
// otherwise the effective value is recomputed from subtask state.
func (t Task) NextCompleted() bool {
	if len(t.Subtasks) == 0 {
		return !t.Completed
	}
	return AllSubtasksDone(t.Subtasks)
}

// WithSubtaskToggled returns a copy of the subtask slice with the given
// subtask flipped, together with the recomputed parent completion. The
// last return is false when the subtask id is unknown.
func (t Task) WithSubtaskToggled(subtaskID string) (subs []Subtask, completed bool, ok bool) {
	found := false
	subs = make([]Subtask, len(t.Subtasks))
	copy(subs, t.Subtasks)
	for i := range subs {
		if subs[i].ID == subtaskID {
			subs[i].Completed = !subs[i].Completed
			found = true
			break
		}
	}
	if !found {
		return nil, false, false
	}
	return subs, AllSubtasksDone(subs), true
}

func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if len(t.Description) < MinDescriptionLen {
		return NewError(ErrCodeInvalid, "description must be at least 3 characters")
	}
	if !t.Category.Valid() {
		return NewError(ErrCodeInvalid, "category must be one of the four quadrants")
	}
	return nil
}
