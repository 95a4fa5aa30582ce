package booking

import (
	"fmt"
	"strconv"
	"strings"
)

// SettingKey names a tunable admission limit.
type SettingKey string

const (
	// SettingTimeWindow bounds how far ahead of now a reservation may end.
	SettingTimeWindow SettingKey = "TIME_WINDOW"
	// SettingTimeLimit bounds the length of a single slot.
	SettingTimeLimit SettingKey = "TIME_LIMIT"
	// SettingMaxDaily bounds reservations a user may create per calendar day.
	SettingMaxDaily SettingKey = "MAX_DAILY"
)

// ParseSettingKey validates a setting identifier.
func ParseSettingKey(value string) (SettingKey, error) {
	key := SettingKey(strings.ToUpper(strings.TrimSpace(value)))
	switch key {
	case SettingTimeWindow, SettingTimeLimit, SettingMaxDaily:
		return key, nil
	}
	return "", fmt.Errorf("booking: unknown setting %q", value)
}

// NormalizeSettingValue checks value against the encoding of key and returns
// the canonical form that is stored.
func NormalizeSettingValue(key SettingKey, value string) (string, error) {
	switch key {
	case SettingTimeWindow, SettingTimeLimit:
		d, err := ParseDuration(value)
		if err != nil {
			return "", err
		}
		return FormatDuration(d), nil
	case SettingMaxDaily:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return "", fmt.Errorf("booking: %s must be a non-negative integer", key)
		}
		return strconv.Itoa(n), nil
	}
	return "", fmt.Errorf("booking: unknown setting %q", key)
}
