package booking

import "time"

// Period is a recurring daily opening window expressed as offsets from
// midnight. An End at or before Start wraps past midnight.
type Period struct {
	ID    string
	Start time.Duration
	End   time.Duration
}

// Covered reports whether [start, end) is exactly the union of the opening
// periods it touches. The request is projected onto the time of day of
// start in loc; each period contributes the length of its intersection with
// the request and the request is accepted only when those lengths add up
// to the requested duration. A gap between periods or a request running
// past the last period therefore fails the test.
func Covered(start, end time.Time, periods []Period, loc *time.Location) bool {
	if end.Before(start) {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}

	requested := end.Sub(start)
	windowStart := timeOfDay(start, loc)
	windowEnd := windowStart + requested

	var covered time.Duration
	for _, p := range periods {
		pStart, pEnd := p.Start, p.End
		if pEnd <= pStart {
			pEnd += day
		}
		// The previous day's copy matters for periods that wrap midnight.
		for shift := -day; pStart+shift < windowEnd; shift += day {
			covered += overlap(pStart+shift, pEnd+shift, windowStart, windowEnd)
		}
	}

	return covered == requested
}

func timeOfDay(t time.Time, loc *time.Location) time.Duration {
	local := t.In(loc)
	h, m, s := local.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(local.Nanosecond())
}

func overlap(aStart, aEnd, bStart, bEnd time.Duration) time.Duration {
	lo := max(aStart, bStart)
	hi := min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
