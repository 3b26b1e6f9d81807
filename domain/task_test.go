package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestParseCategory_Unknown(t *testing.T) {
	_, err := ParseCategory("Somewhat Important")
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestCategory_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(CategoryUnurgentImportant)
	require.NoError(t, err)
	assert.Equal(t, `"Unurgent & Important"`, string(data))

	var c Category
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, CategoryUnurgentImportant, c)
}

func TestCategory_MarshalInvalid(t *testing.T) {
	_, err := json.Marshal(Category(17))
	assert.Error(t, err)
}

func TestDerivedCompleted_NoSubtasks(t *testing.T) {
	task := Task{Completed: true}
	assert.True(t, task.DerivedCompleted())

	task.Completed = false
	assert.False(t, task.DerivedCompleted())
}

func TestDerivedCompleted_WithSubtasks(t *testing.T) {
	task := Task{
		Completed: true, // stored flag is ignored once subtasks exist
		Subtasks: []Subtask{
			{ID: "a", Completed: true},
			{ID: "b", Completed: false},
		},
	}
	assert.False(t, task.DerivedCompleted())

	task.Subtasks[1].Completed = true
	assert.True(t, task.DerivedCompleted())
}

func TestNextCompleted_FlipsOnlyWithoutSubtasks(t *testing.T) {
	task := Task{Completed: false}
	assert.True(t, task.NextCompleted())

	task.Subtasks = []Subtask{{ID: "a", Completed: false}}
	assert.False(t, task.NextCompleted())

	task.Subtasks[0].Completed = true
	assert.True(t, task.NextCompleted())
}

func TestWithSubtaskToggled(t *testing.T) {
	task := Task{
		Subtasks: []Subtask{
			{ID: "a", Completed: true},
			{ID: "b", Completed: false},
		},
	}

	subs, completed, ok := task.WithSubtaskToggled("b")
	require.True(t, ok)
	assert.True(t, subs[1].Completed)
	assert.True(t, completed)

	// the receiver is untouched
	assert.False(t, task.Subtasks[1].Completed)
}

func TestWithSubtaskToggled_UnknownID(t *testing.T) {
	task := Task{Subtasks: []Subtask{{ID: "a"}}}
	_, _, ok := task.WithSubtaskToggled("nope")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	task := Task{Description: "buy groceries", Category: CategoryUrgentImportant}
	assert.NoError(t, task.Validate())

	short := Task{Description: "ab", Category: CategoryUrgentImportant}
	assert.True(t, IsDomainError(short.Validate(), ErrCodeInvalid))

	badCategory := Task{Description: "buy groceries", Category: Category(9)}
	assert.True(t, IsDomainError(badCategory.Validate(), ErrCodeInvalid))
}
