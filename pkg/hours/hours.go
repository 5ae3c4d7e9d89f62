// Package hours computes the working time contained in a datetime range,
// walking the range day by day and clamping partial days to a configurable
// work window.
package hours

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when a range does not start strictly
	// before it ends.
	ErrInvalidRange = errors.New("start date must be strictly before end date")

	// ErrInvalidWindow is returned when a work window does not open
	// strictly before it closes.
	ErrInvalidWindow = errors.New("start of day must be strictly before end of day")
)

// TimeOfDay is a wall-clock time within a day, independent of any date or
// location.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses a time-of-day in "15:04:05" form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// clock returns the offset from midnight.
func (t TimeOfDay) clock() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second
}

// Window is the daily span that counts as a full workday.
type Window struct {
	StartOfDay TimeOfDay
	EndOfDay   TimeOfDay
}

// Duration returns the length of a full workday.
func (w Window) Duration() time.Duration {
	return w.EndOfDay.clock() - w.StartOfDay.clock()
}

// Range is an inclusive pair of instants; Evaluate counts working time up to
// and including End, and requires Start strictly before End. Both instants
// are interpreted in Start's location.
type Range struct {
	Start time.Time
	End   time.Time
}

// Result is the evaluated working time of a range. Minutes and Seconds are
// linear derivations of Hours, never computed independently.
type Result struct {
	Hours   float64
	Minutes float64
	Seconds float64
	Start   time.Time
	End     time.Time
}

// Evaluate walks the calendar days of r in r.Start's location and sums the
// working time each day contributes. Saturdays, Sundays and days present in
// holidays contribute nothing; the first and last day are clamped to the
// work window; interior days contribute the full window duration.
//
// holidays is keyed by calendar date in "2006-01-02" form, in the range's
// timezone.
//
// The boundary guards are deliberately asymmetric: a multi-day range whose
// start sits exactly on the window's end contributes nothing that day
// (the guard uses >=), while a range ending exactly on the window's start
// passes its guard (<) and contributes a zero-length interval. Callers rely
// on which exact-boundary instants produce zero, so the operators must not
// be normalized.
func Evaluate(r Range, w Window, holidays map[string]bool) (Result, error) {
	if w.StartOfDay.clock() >= w.EndOfDay.clock() {
		return Result{}, ErrInvalidWindow
	}
	if !r.Start.Before(r.End) {
		return Result{}, ErrInvalidRange
	}

	loc := r.Start.Location()
	startDay := dateOf(r.Start.In(loc))
	endDay := dateOf(r.End.In(loc))

	windowStart := w.StartOfDay.clock()
	windowEnd := w.EndOfDay.clock()

	// The walk and the per-day contributions operate on civil dates and
	// wall-clock offsets, not instants. In zones where a DST transition
	// falls inside the work window (or skips midnight entirely), instant
	// arithmetic would stretch or shrink a day; wall-clock arithmetic
	// keeps every interior weekday worth exactly the window's duration.
	var total float64
	for day := startDay; !day.after(endDay); day = day.next() {
		if wd := day.weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if holidays[day.format()] {
			continue
		}

		switch {
		case day == startDay && day == endDay:
			startClock := clock(r.Start)
			endClock := clock(r.End)
			if startClock > windowEnd || endClock < windowStart {
				continue
			}
			if worked := min(endClock, windowEnd) - max(startClock, windowStart); worked > 0 {
				total += worked.Seconds() / 3600.0
			}
		case day == startDay:
			startClock := clock(r.Start)
			if startClock >= windowEnd {
				continue
			}
			total += (windowEnd - max(startClock, windowStart)).Seconds() / 3600.0
		case day == endDay:
			endClock := clock(r.End)
			if endClock < windowStart {
				continue
			}
			total += (min(endClock, windowEnd) - windowStart).Seconds() / 3600.0
		default:
			total += w.Duration().Seconds() / 3600.0
		}
	}

	return Result{
		Hours:   total,
		Minutes: total * 60.0,
		Seconds: total * 3600.0,
		Start:   r.Start,
		End:     r.End,
	}, nil
}

// civilDate is a calendar date detached from any location, so advancing it
// never normalizes through a DST gap.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

func (c civilDate) next() civilDate {
	return dateOf(time.Date(c.year, c.month, c.day+1, 0, 0, 0, 0, time.UTC))
}

func (c civilDate) after(o civilDate) bool {
	if c.year != o.year {
		return c.year > o.year
	}
	if c.month != o.month {
		return c.month > o.month
	}
	return c.day > o.day
}

func (c civilDate) weekday() time.Weekday {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (c civilDate) format() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.year, int(c.month), c.day)
}

// clock returns t's wall-clock time of day as an offset duration, ignoring
// the date.
func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
