package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsValid(t *testing.T) {
	t.Parallel()

	s := New()
	assert.Len(t, s, 26)
	assert.True(t, Valid(s))
	assert.False(t, Valid("not-a-run-id"))
}

func TestAtRoundTripsTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	got, err := Time(At(at))
	require.NoError(t, err)
	assert.Equal(t, at, got)

	_, err = Time("bogus")
	assert.Error(t, err)
}

// Not parallel: another goroutine drawing ids from a different
// millisecond resets the monotonic sequence.
func TestSameMillisecondSorted(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = At(at)
	}
	assert.True(t, sort.StringsAreSorted(ids))

	seen := map[string]bool{}
	for _, s := range ids {
		assert.False(t, seen[s], "duplicate id %s", s)
		seen[s] = true
	}
}
