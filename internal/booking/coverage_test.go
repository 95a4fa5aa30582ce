package booking

import (
	"testing"
	"time"
)

func clock(t *testing.T, value string) time.Duration {
	t.Helper()
	d, err := ParseClock(value)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", value, err)
	}
	return d
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 10, hour, minute, 0, 0, time.UTC)
}

func TestCovered(t *testing.T) {
	t.Parallel()

	contiguous := []Period{
		{ID: "morning", Start: clock(t, "09:00:00"), End: clock(t, "12:00:00")},
		{ID: "afternoon", Start: clock(t, "12:00:00"), End: clock(t, "17:00:00")},
	}
	gapped := []Period{
		{ID: "first", Start: clock(t, "09:00:00"), End: clock(t, "10:00:00")},
		{ID: "second", Start: clock(t, "11:00:00"), End: clock(t, "12:00:00")},
	}

	tests := []struct {
		name    string
		periods []Period
		start   time.Time
		end     time.Time
		want    bool
	}{
		{name: "union of adjacent periods", periods: contiguous, start: at(9, 0), end: at(17, 0), want: true},
		{name: "exceeds coverage", periods: contiguous, start: at(9, 0), end: at(17, 30), want: false},
		{name: "inside one period", periods: contiguous, start: at(10, 0), end: at(11, 0), want: true},
		{name: "exactly one period", periods: contiguous, start: at(12, 0), end: at(17, 0), want: true},
		{name: "crosses period boundary", periods: contiguous, start: at(11, 0), end: at(13, 0), want: true},
		{name: "spans a gap", periods: gapped, start: at(9, 0), end: at(12, 0), want: false},
		{name: "inside the gap", periods: gapped, start: at(10, 0), end: at(11, 0), want: false},
		{name: "starts before opening", periods: contiguous, start: at(8, 30), end: at(10, 0), want: false},
		{name: "no periods configured", periods: nil, start: at(9, 0), end: at(10, 0), want: false},
		{name: "reversed range", periods: contiguous, start: at(11, 0), end: at(10, 0), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Covered(tc.start, tc.end, tc.periods, time.UTC); got != tc.want {
				t.Fatalf("Covered(%s, %s) = %v, want %v", tc.start.Format("15:04"), tc.end.Format("15:04"), got, tc.want)
			}
		})
	}
}

func TestCovered_AcrossMidnight(t *testing.T) {
	t.Parallel()

	periods := []Period{
		{ID: "evening", Start: clock(t, "18:00:00"), End: clock(t, "00:00:00")},
		{ID: "night", Start: clock(t, "00:00:00"), End: clock(t, "02:00:00")},
	}
	start := time.Date(2025, time.March, 10, 22, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 11, 1, 0, 0, 0, time.UTC)

	if !Covered(start, end, periods, time.UTC) {
		t.Fatalf("expected request across midnight to be covered")
	}

	late := time.Date(2025, time.March, 11, 3, 0, 0, 0, time.UTC)
	if Covered(start, late, periods, time.UTC) {
		t.Fatalf("expected request past the night period to be rejected")
	}
}

func TestCovered_WrappingPeriod(t *testing.T) {
	t.Parallel()

	periods := []Period{{ID: "overnight", Start: clock(t, "22:00:00"), End: clock(t, "02:00:00")}}
	start := time.Date(2025, time.March, 11, 0, 30, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 11, 1, 30, 0, 0, time.UTC)

	if !Covered(start, end, periods, time.UTC) {
		t.Fatalf("expected early-morning request inside the wrapping period to be covered")
	}
}

func TestCovered_UsesLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+9", 9*60*60)
	periods := []Period{{ID: "office", Start: clock(t, "09:00:00"), End: clock(t, "18:00:00")}}

	// 00:00-02:00 UTC is 09:00-11:00 at UTC+9.
	start := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	if !Covered(start, end, periods, loc) {
		t.Fatalf("expected request to be evaluated in the configured location")
	}
	if Covered(start, end, periods, time.UTC) {
		t.Fatalf("expected request to fall outside the period in UTC")
	}
}
