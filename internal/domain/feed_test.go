package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	assert.NoError(t, ValidateRange(day(1), day(1)))
	assert.NoError(t, ValidateRange(day(1), day(8)))
	assert.ErrorIs(t, ValidateRange(day(1), day(9)), ErrInvalidRange)
	assert.ErrorIs(t, ValidateRange(day(5), day(4)), ErrInvalidRange)
}

func TestParseRange(t *testing.T) {
	freezeClock(t)

	t.Run("defaults to today", func(t *testing.T) {
		start, end, err := ParseRange("", "")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, start, end)
	})

	t.Run("end defaults to start", func(t *testing.T) {
		start, end, err := ParseRange("2024-03-01", "")
		require.NoError(t, err)
		assert.Equal(t, start, end)
	})

	t.Run("explicit range", func(t *testing.T) {
		start, end, err := ParseRange("2024-03-01", "2024-03-07")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", start.Format(DateLayout))
		assert.Equal(t, "2024-03-07", end.Format(DateLayout))
	})

	t.Run("bad dates", func(t *testing.T) {
		_, _, err := ParseRange("03/01/2024", "")
		assert.ErrorIs(t, err, ErrInvalidRange)
		_, _, err = ParseRange("2024-03-01", "tomorrow")
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("too wide", func(t *testing.T) {
		_, _, err := ParseRange("2024-03-01", "2024-03-20")
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}
