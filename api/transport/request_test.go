package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/gateway/domain"
)

func TestParseDueDate_Empty(t *testing.T) {
	parsed, err := ParseDueDate("")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestParseDueDate_DateOnly(t *testing.T) {
	parsed, err := ParseDueDate("2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *parsed)
}

func TestParseDueDate_RFC3339(t *testing.T) {
	parsed, err := ParseDueDate("2025-06-01T15:04:05Z")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, 15, parsed.Hour())
}

func TestParseDueDate_Invalid(t *testing.T) {
	_, err := ParseDueDate("next tuesday")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
