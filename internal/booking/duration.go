package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned for malformed hh:mm:ss values.
var ErrInvalidClock = errors.New("booking: value must use hh:mm:ss")

const day = 24 * time.Hour

// ParseDuration parses an hh:mm:ss duration. Hours are unbounded, so
// "25:00:00" is twenty-five hours rather than an invalid time of day.
func ParseDuration(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, ErrInvalidClock
	}

	hours, err := parseClockField(parts[0], -1)
	if err != nil {
		return 0, err
	}
	minutes, err := parseClockField(parts[1], 59)
	if err != nil {
		return 0, err
	}
	seconds, err := parseClockField(parts[2], 59)
	if err != nil {
		return 0, err
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// FormatDuration renders d as hh:mm:ss, the inverse of ParseDuration.
// Sub-second precision is dropped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// ParseClock parses an hh:mm:ss time of day and returns its offset from
// midnight. Unlike ParseDuration, hours must be below 24.
func ParseClock(value string) (time.Duration, error) {
	d, err := ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d >= day {
		return 0, ErrInvalidClock
	}
	return d, nil
}

func parseClockField(field string, max int) (int, error) {
	if field == "" {
		return 0, ErrInvalidClock
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0, ErrInvalidClock
		}
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, ErrInvalidClock
	}
	if max >= 0 && n > max {
		return 0, ErrInvalidClock
	}
	return n, nil
}
