package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefault(t *testing.T) {
	t.Cleanup(func() { SetDefault(DefaultTimezone) })

	assert.False(t, SetDefault("Mars/Olympus"))
	assert.Equal(t, DefaultTimezone, Default())

	require.True(t, SetDefault("America/Sao_Paulo"))
	assert.Equal(t, "America/Sao_Paulo", Clinic().String())
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2025-03-10T14:30")
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())

	got, err = ParseDateTime("2025-03-10T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())

	_, err = ParseDateTime("tomorrow")
	assert.Error(t, err)
}
