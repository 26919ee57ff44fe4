// Package timeutil converts timestamp pairs into elapsed durations and renders
// them for chat messages.
package timeutil

import (
	"fmt"
	"standbot/internal/models"
)

// ElapsedSeconds returns end - start in whole seconds. Any pair with
// end >= start is accepted; an end before the start (clock skew) or a span
// that overflows int64 is an invalid timestamp pair.
func ElapsedSeconds(start, end int64) (int64, error) {
	if end < start {
		return 0, fmt.Errorf("%w: end %d precedes start %d", models.ErrInvalidTimestamp, end, start)
	}
	secs := end - start
	if secs < 0 {
		return 0, fmt.Errorf("%w: span from %d to %d overflows", models.ErrInvalidTimestamp, start, end)
	}
	return secs, nil
}

// FormatElapsed renders "M minutes S seconds". Invalid input renders as zero.
func FormatElapsed(start, end int64) string {
	secs, err := ElapsedSeconds(start, end)
	if err != nil {
		secs = 0
	}
	return FormatMinutes(secs)
}

func FormatMinutes(secs int64) string {
	return fmt.Sprintf("%d minutes %d seconds", secs/60, secs%60)
}

// FormatTotal renders "H hours M minutes S seconds".
func FormatTotal(totalSeconds int64) string {
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d hours %d minutes %d seconds", hours, minutes, seconds)
}

// ParseElapsed reads back the output of FormatElapsed.
func ParseElapsed(s string) (minutes, seconds int64, err error) {
	if _, err = fmt.Sscanf(s, "%d minutes %d seconds", &minutes, &seconds); err != nil {
		return 0, 0, fmt.Errorf("parse elapsed %q: %w", s, err)
	}
	return minutes, seconds, nil
}
