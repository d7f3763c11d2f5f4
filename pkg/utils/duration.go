package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidDurationFormat indicates that the duration string is not a number followed by m, h or d.
	ErrInvalidDurationFormat = errors.New("invalid duration format")
	// ErrDurationTooLong indicates that the duration exceeds the platform's timeout limit.
	ErrDurationTooLong = errors.New("duration too long")
)

// MaxTimeoutDuration is the longest member timeout the platform accepts.
const MaxTimeoutDuration = 28 * 24 * time.Hour

// ParseTimeoutDuration parses strings like "10m", "1h" or "7d" into a duration.
// Durations above MaxTimeoutDuration are rejected.
func ParseTimeoutDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, s)
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, s)
	}

	var unit time.Duration

	switch s[len(s)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, s)
	}

	d := time.Duration(value) * unit
	if d > MaxTimeoutDuration {
		return 0, fmt.Errorf("%w: %s", ErrDurationTooLong, s)
	}

	return d, nil
}

// FormatDuration renders a duration as "1d 2h 3m 4s", dropping zero parts.
// Durations under one second render as "0s".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
