package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

// SettingReader loads a single setting row.
type SettingReader interface {
	GetSetting(ctx context.Context, key booking.SettingKey) (persistence.Setting, error)
}

// SettingsStore reads admission limits. A missing row means the limit does
// not apply; callers must not treat it as zero.
type SettingsStore struct {
	settings SettingReader
}

// NewSettingsStore wraps a setting reader.
func NewSettingsStore(settings SettingReader) *SettingsStore {
	return &SettingsStore{settings: settings}
}

// GetDuration returns the hh:mm:ss setting for key. ok is false when the
// setting is absent. A malformed stored value is an error.
func (s *SettingsStore) GetDuration(ctx context.Context, key booking.SettingKey) (d time.Duration, ok bool, err error) {
	value, ok, err := s.lookup(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	d, err = booking.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("settings: %s has malformed value %q: %w", key, value, err)
	}
	return d, true, nil
}

// GetInt returns the integer setting for key. ok is false when the setting
// is absent.
func (s *SettingsStore) GetInt(ctx context.Context, key booking.SettingKey) (n int, ok bool, err error) {
	value, ok, err := s.lookup(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err = strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("settings: %s has malformed value %q: %w", key, value, err)
	}
	return n, true, nil
}

func (s *SettingsStore) lookup(ctx context.Context, key booking.SettingKey) (string, bool, error) {
	if s == nil || s.settings == nil {
		return "", false, nil
	}
	setting, err := s.settings.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("settings: load %s: %w", key, err)
	}
	return setting.Value, true, nil
}
