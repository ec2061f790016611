package domain

import (
	"context"
	"fmt"
	"time"
)

// MaxFeedRangeDays is the widest start/end span the NeoWs feed accepts.
const MaxFeedRangeDays = 7

// DateLayout is the NeoWs calendar date format.
const DateLayout = "2006-01-02"

// FeedSource supplies raw NeoWs objects.
type FeedSource interface {
	// Feed returns every object with a close approach between start and end,
	// inclusive, ordered by approach date.
	Feed(ctx context.Context, start, end time.Time) ([]FeedObject, error)

	// Lookup returns a single object by NeoWs id.
	Lookup(ctx context.Context, id string) (FeedObject, error)
}

// ValidateRange checks that start <= end and the span is within the feed limit.
func ValidateRange(start, end time.Time) error {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return fmt.Errorf("%w: end_date %s is before start_date %s",
			ErrInvalidRange, end.Format(DateLayout), start.Format(DateLayout))
	}
	if end.Sub(start) > MaxFeedRangeDays*24*time.Hour {
		return fmt.Errorf("%w: span exceeds %d days", ErrInvalidRange, MaxFeedRangeDays)
	}
	return nil
}

// ParseRange parses optional start/end date strings. A missing start means
// today; a missing end means start.
func ParseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start := truncateDay(clock.Now().UTC())
	if startRaw != "" {
		t, err := time.Parse(DateLayout, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", ErrInvalidRange, startRaw)
		}
		start = t
	}
	end := start
	if endRaw != "" {
		t, err := time.Parse(DateLayout, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", ErrInvalidRange, endRaw)
		}
		end = t
	}
	if err := ValidateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
