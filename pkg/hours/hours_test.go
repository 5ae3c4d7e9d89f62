package hours

import (
	"errors"
	"math"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string, loc *time.Location) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func defaultWindow(t *testing.T) Window {
	t.Helper()
	start, err := ParseTimeOfDay("09:00:00")
	if err != nil {
		t.Fatalf("parse start of day: %v", err)
	}
	end, err := ParseTimeOfDay("17:00:00")
	if err != nil {
		t.Fatalf("parse end of day: %v", err)
	}
	return Window{StartOfDay: start, EndOfDay: end}
}

func TestEvaluate(t *testing.T) {
	utc := time.UTC

	tests := []struct {
		name     string
		start    string
		end      string
		holidays map[string]bool
		want     float64
	}{
		{
			// Monday 2023-10-02, fully inside the window.
			name:  "single full workday",
			start: "2023-10-02T09:00:00",
			end:   "2023-10-02T17:00:00",
			want:  8.0,
		},
		{
			name:  "single partial day starting at noon",
			start: "2023-10-02T12:00:00",
			end:   "2023-10-02T17:00:00",
			want:  5.0,
		},
		{
			name:  "single day strictly inside the window",
			start: "2023-10-02T10:30:00",
			end:   "2023-10-02T14:00:00",
			want:  3.5,
		},
		{
			name:  "full working week",
			start: "2023-10-02T09:00:00",
			end:   "2023-10-06T17:00:00",
			want:  40.0,
		},
		{
			name:     "working week with one holiday",
			start:    "2023-10-02T09:00:00",
			end:      "2023-10-06T17:00:00",
			holidays: map[string]bool{"2023-10-04": true},
			want:     32.0,
		},
		{
			// 2023-10-07 is a Saturday, 2023-10-08 a Sunday.
			name:  "weekend only",
			start: "2023-10-07T09:00:00",
			end:   "2023-10-08T17:00:00",
			want:  0.0,
		},
		{
			name:  "range inside a single saturday",
			start: "2023-10-07T10:00:00",
			end:   "2023-10-07T15:00:00",
			want:  0.0,
		},
		{
			name:  "range spanning a weekend",
			start: "2023-10-06T09:00:00",
			end:   "2023-10-09T17:00:00",
			want:  16.0,
		},
		{
			name:  "single day entirely before the window",
			start: "2023-10-02T05:00:00",
			end:   "2023-10-02T07:00:00",
			want:  0.0,
		},
		{
			name:  "single day entirely after the window",
			start: "2023-10-02T18:00:00",
			end:   "2023-10-02T22:00:00",
			want:  0.0,
		},
		{
			name:  "single day overlapping both window edges",
			start: "2023-10-02T06:00:00",
			end:   "2023-10-02T20:00:00",
			want:  8.0,
		},
		{
			// Start day rule uses >=: starting exactly at the window end
			// contributes nothing on the first day.
			name:  "multi-day range starting exactly at window end",
			start: "2023-10-02T17:00:00",
			end:   "2023-10-03T17:00:00",
			want:  8.0,
		},
		{
			// End day rule uses <: ending exactly at the window start passes
			// the guard but yields a zero-length interval.
			name:  "multi-day range ending exactly at window start",
			start: "2023-10-02T09:00:00",
			end:   "2023-10-03T09:00:00",
			want:  8.0,
		},
		{
			name:  "multi-day range ending just before window start",
			start: "2023-10-02T09:00:00",
			end:   "2023-10-03T08:59:59",
			want:  8.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Range{Start: mustTime(t, tt.start, utc), End: mustTime(t, tt.end, utc)}
			result, err := Evaluate(r, defaultWindow(t), tt.holidays)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if result.Hours != tt.want {
				t.Errorf("Hours = %v, want %v", result.Hours, tt.want)
			}
			if result.Minutes != tt.want*60.0 {
				t.Errorf("Minutes = %v, want %v", result.Minutes, tt.want*60.0)
			}
			if result.Seconds != tt.want*3600.0 {
				t.Errorf("Seconds = %v, want %v", result.Seconds, tt.want*3600.0)
			}
		})
	}
}

func TestEvaluateExactInteriorRange(t *testing.T) {
	// For a range strictly inside the window on a plain weekday, the result
	// is exactly the range's own length.
	window := defaultWindow(t)
	start := mustTime(t, "2023-10-03T10:17:23", time.UTC)
	end := mustTime(t, "2023-10-03T15:44:07", time.UTC)

	result, err := Evaluate(Range{Start: start, End: end}, window, nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	want := end.Sub(start).Seconds() / 3600.0
	if math.Abs(result.Hours-want) > 1e-12 {
		t.Errorf("Hours = %v, want %v", result.Hours, want)
	}
}

func TestEvaluateCustomWindow(t *testing.T) {
	startOfDay, err := ParseTimeOfDay("08:00:00")
	if err != nil {
		t.Fatalf("parse start of day: %v", err)
	}
	endOfDay, err := ParseTimeOfDay("16:00:00")
	if err != nil {
		t.Fatalf("parse end of day: %v", err)
	}
	window := Window{StartOfDay: startOfDay, EndOfDay: endOfDay}

	t.Run("full custom day", func(t *testing.T) {
		r := Range{
			Start: mustTime(t, "2023-10-02T08:00:00", time.UTC),
			End:   mustTime(t, "2023-10-02T16:00:00", time.UTC),
		}
		result, err := Evaluate(r, window, nil)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if result.Hours != 8.0 {
			t.Errorf("Hours = %v, want 8.0", result.Hours)
		}
	})

	t.Run("late start inside custom day", func(t *testing.T) {
		r := Range{
			Start: mustTime(t, "2023-10-02T10:00:00", time.UTC),
			End:   mustTime(t, "2023-10-02T16:00:00", time.UTC),
		}
		result, err := Evaluate(r, window, nil)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if result.Hours != 6.0 {
			t.Errorf("Hours = %v, want 6.0", result.Hours)
		}
	})
}

func TestEvaluateOtherTimezone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	r := Range{
		Start: mustTime(t, "2023-10-02T09:00:00", paris),
		End:   mustTime(t, "2023-10-02T17:00:00", paris),
	}
	result, err := Evaluate(r, defaultWindow(t), nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if result.Hours != 8.0 {
		t.Errorf("Hours = %v, want 8.0", result.Hours)
	}
}

func TestEvaluateDSTGapAtMidnight(t *testing.T) {
	// Iran's clocks jump from 00:00 to 01:00 on 2022-03-22, so that
	// calendar day has no midnight. The walk must still visit every
	// calendar day through Wednesday the 23rd, and the interior Tuesday
	// must count a full window despite being one hour shorter in real
	// time. 2022-03-21 is a Monday.
	tehran, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	earlyStart, err := ParseTimeOfDay("00:30:00")
	if err != nil {
		t.Fatalf("parse start of day: %v", err)
	}
	earlyEnd, err := ParseTimeOfDay("08:30:00")
	if err != nil {
		t.Fatalf("parse end of day: %v", err)
	}

	tests := []struct {
		name   string
		window Window
		start  string
		end    string
		want   float64
	}{
		{
			name:   "window straddling the gap",
			window: Window{StartOfDay: earlyStart, EndOfDay: earlyEnd},
			start:  "2022-03-21T00:30:00",
			end:    "2022-03-23T08:30:00",
			want:   24.0,
		},
		{
			name:   "default window",
			window: defaultWindow(t),
			start:  "2022-03-21T09:00:00",
			end:    "2022-03-23T17:00:00",
			want:   24.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Range{
				Start: mustTime(t, tc.start, tehran),
				End:   mustTime(t, tc.end, tehran),
			}
			result, err := Evaluate(r, tc.window, nil)
			if err != nil {
				t.Fatalf("Evaluate returned error: %v", err)
			}
			if result.Hours != tc.want {
				t.Errorf("Hours = %v, want %v", result.Hours, tc.want)
			}
		})
	}
}

func TestEvaluateDurationEquivalence(t *testing.T) {
	// An end instant expressed as start+duration must be indistinguishable
	// from the same end instant given explicitly.
	window := defaultWindow(t)
	start := mustTime(t, "2023-10-02T09:00:00", time.UTC)

	byDuration, err := Evaluate(Range{Start: start, End: start.Add(432000 * time.Second)}, window, nil)
	if err != nil {
		t.Fatalf("Evaluate by duration: %v", err)
	}
	explicit, err := Evaluate(Range{Start: start, End: mustTime(t, "2023-10-07T09:00:00", time.UTC)}, window, nil)
	if err != nil {
		t.Fatalf("Evaluate explicit: %v", err)
	}
	if byDuration.Hours != explicit.Hours {
		t.Errorf("duration result %v != explicit result %v", byDuration.Hours, explicit.Hours)
	}
	if byDuration.Hours != 40.0 {
		t.Errorf("Hours = %v, want 40.0", byDuration.Hours)
	}
}

func TestEvaluateInvalidRange(t *testing.T) {
	window := defaultWindow(t)
	start := mustTime(t, "2023-10-02T09:00:00", time.UTC)

	t.Run("start equals end", func(t *testing.T) {
		_, err := Evaluate(Range{Start: start, End: start}, window, nil)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("err = %v, want ErrInvalidRange", err)
		}
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := Evaluate(Range{Start: start, End: start.Add(-24 * time.Hour)}, window, nil)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("err = %v, want ErrInvalidRange", err)
		}
	})
}

func TestEvaluateInvalidWindow(t *testing.T) {
	start := mustTime(t, "2023-10-02T09:00:00", time.UTC)
	end := mustTime(t, "2023-10-02T17:00:00", time.UTC)

	inverted := Window{
		StartOfDay: TimeOfDay{Hour: 17},
		EndOfDay:   TimeOfDay{Hour: 9},
	}
	if _, err := Evaluate(Range{Start: start, End: end}, inverted, nil); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("inverted window err = %v, want ErrInvalidWindow", err)
	}

	empty := Window{
		StartOfDay: TimeOfDay{Hour: 9},
		EndOfDay:   TimeOfDay{Hour: 9},
	}
	if _, err := Evaluate(Range{Start: start, End: end}, empty, nil); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("empty window err = %v, want ErrInvalidWindow", err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseTimeOfDay("13:45:30")
		if err != nil {
			t.Fatalf("ParseTimeOfDay: %v", err)
		}
		want := TimeOfDay{Hour: 13, Minute: 45, Second: 30}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", "9:00", "25:00:00", "09-00-00", "noon"} {
			if _, err := ParseTimeOfDay(s); err == nil {
				t.Errorf("ParseTimeOfDay(%q) succeeded, want error", s)
			}
		}
	})
}

func TestWindowDuration(t *testing.T) {
	w := defaultWindow(t)
	if w.Duration() != 8*time.Hour {
		t.Errorf("Duration = %v, want 8h", w.Duration())
	}
}
