package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/booking"
	"github.com/example/room-reservation/internal/persistence"
)

type catalogRepoStub struct {
	periods  []persistence.Period
	terms    []persistence.Term
	settings map[booking.SettingKey]persistence.Setting

	deletePeriodErr error
	putErr          error
}

func newCatalogRepoStub() *catalogRepoStub {
	return &catalogRepoStub{settings: make(map[booking.SettingKey]persistence.Setting)}
}

func (c *catalogRepoStub) CreatePeriod(ctx context.Context, period persistence.Period) error {
	c.periods = append(c.periods, period)
	return nil
}

func (c *catalogRepoStub) ListPeriods(ctx context.Context) ([]persistence.Period, error) {
	return c.periods, nil
}

func (c *catalogRepoStub) DeletePeriod(ctx context.Context, id string) error {
	if c.deletePeriodErr != nil {
		return c.deletePeriodErr
	}
	for i, p := range c.periods {
		if p.ID == id {
			c.periods = append(c.periods[:i], c.periods[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (c *catalogRepoStub) CreateTerm(ctx context.Context, term persistence.Term) error {
	c.terms = append(c.terms, term)
	return nil
}

func (c *catalogRepoStub) ListTerms(ctx context.Context) ([]persistence.Term, error) {
	return c.terms, nil
}

func (c *catalogRepoStub) PutSetting(ctx context.Context, setting persistence.Setting) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.settings[setting.Key] = setting
	return nil
}

func (c *catalogRepoStub) DeleteSetting(ctx context.Context, key booking.SettingKey) error {
	if _, ok := c.settings[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(c.settings, key)
	return nil
}

func (c *catalogRepoStub) ListSettings(ctx context.Context) ([]persistence.Setting, error) {
	out := make([]persistence.Setting, 0, len(c.settings))
	for _, s := range c.settings {
		out = append(out, s)
	}
	return out, nil
}

func TestCatalogService_Periods(t *testing.T) {
	t.Parallel()

	repo := newCatalogRepoStub()
	svc := NewCatalogService(repo, func() string { return "period-1" }, nil, nil)
	ctx := context.Background()

	if _, err := svc.CreatePeriod(ctx, basicPrincipal, PeriodInput{Name: "1st", Start: "09:00:00", End: "10:30:00"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	_, err := svc.CreatePeriod(ctx, adminPrincipal, PeriodInput{Name: "", Start: "24:00:00", End: "9am"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "start_time", "end_time"} {
		if vErr.Reason(field) == "" {
			t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
		}
	}

	if _, err := svc.CreatePeriod(ctx, adminPrincipal, PeriodInput{Name: "empty", Start: "09:00:00", End: "09:00:00"}); err == nil {
		t.Fatalf("expected zero-length period to be rejected")
	}

	period, err := svc.CreatePeriod(ctx, adminPrincipal, PeriodInput{Name: " Night ", Start: "22:00:00", End: "02:00:00"})
	if err != nil {
		t.Fatalf("expected wrapping period to be accepted, got %v", err)
	}
	if period.Name != "Night" || period.Start != 22*time.Hour || period.End != 2*time.Hour {
		t.Fatalf("unexpected period %#v", period)
	}

	listed, err := svc.ListPeriods(ctx)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one period, got %v %v", listed, err)
	}

	if err := svc.DeletePeriod(ctx, adminPrincipal, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.DeletePeriod(ctx, adminPrincipal, "period-1"); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
}

func TestCatalogService_Terms(t *testing.T) {
	t.Parallel()

	repo := newCatalogRepoStub()
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	svc := NewCatalogService(repo, func() string { return "term-1" }, func() time.Time { return now }, nil)
	ctx := context.Background()

	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateTerm(ctx, adminPrincipal, TermInput{Name: "Spring", Start: start, End: start})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Reason("time") != ReasonInvalidTimeRange {
		t.Fatalf("expected invalid time range, got %v", err)
	}

	term, err := svc.CreateTerm(ctx, adminPrincipal, TermInput{Name: "Spring", Start: start, End: start.AddDate(0, 4, 0), IsCurrent: true})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !term.IsCurrent || !term.CreatedAt.Equal(now) {
		t.Fatalf("unexpected term %#v", term)
	}

	terms, err := svc.ListTerms(ctx)
	if err != nil || len(terms) != 1 {
		t.Fatalf("expected one term, got %v %v", terms, err)
	}
}

func TestCatalogService_Settings(t *testing.T) {
	t.Parallel()

	repo := newCatalogRepoStub()
	svc := NewCatalogService(repo, nil, nil, nil)
	ctx := context.Background()

	if _, err := svc.PutSetting(ctx, basicPrincipal, "MAX_DAILY", "3"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	tests := []struct {
		key, value string
		field      string
	}{
		{key: "COLOR", value: "blue", field: "key"},
		{key: "MAX_DAILY", value: "-1", field: "value"},
		{key: "TIME_LIMIT", value: "90m", field: "value"},
	}
	for _, tc := range tests {
		_, err := svc.PutSetting(ctx, adminPrincipal, tc.key, tc.value)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Reason(tc.field) == "" {
			t.Fatalf("%s=%s: expected %s error, got %v", tc.key, tc.value, tc.field, err)
		}
	}

	setting, err := svc.PutSetting(ctx, adminPrincipal, "time_window", "168:0:0")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if setting.Key != booking.SettingTimeWindow || setting.Value != "168:00:00" {
		t.Fatalf("expected canonical setting, got %#v", setting)
	}

	listed, err := svc.ListSettings(ctx, adminPrincipal)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one setting, got %v %v", listed, err)
	}

	if err := svc.DeleteSetting(ctx, adminPrincipal, "TIME_WINDOW"); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if err := svc.DeleteSetting(ctx, adminPrincipal, "TIME_WINDOW"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	repo.putErr = fmt.Errorf("wrapped: %w", errors.New("disk full"))
	_, err = svc.PutSetting(ctx, adminPrincipal, "MAX_DAILY", "2")
	var sErr *StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}
