// Package main implements the workhours CLI: it evaluates working hours
// between two instants from the command line, using the same engine, cache
// and fallback store as the server, and can seed the store from built-in
// country calendars.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/fmodolix/workhours/pkg/calseed"
	"github.com/fmodolix/workhours/pkg/countrycode"
	"github.com/fmodolix/workhours/pkg/holidaycache"
	"github.com/fmodolix/workhours/pkg/holidaystore"
	"github.com/fmodolix/workhours/pkg/hours"
	"github.com/fmodolix/workhours/pkg/openholidays"
)

var (
	start       = flag.String("start", "", "Start instant, RFC3339 (required)")
	end         = flag.String("end", "", "End instant, RFC3339 (or use -duration)")
	duration    = flag.Int64("duration", 0, "Duration in seconds from start (or use -end)")
	startOfDay  = flag.String("start-of-day", "09:00:00", "Start of the work day")
	endOfDay    = flag.String("end-of-day", "17:00:00", "End of the work day")
	country     = flag.String("country", "", "ISO-3166-1 alpha-2 country code")
	subdivision = flag.String("subdivision", "", "Subdivision code; overrides country for the holiday lookup")
	timezone    = flag.String("timezone", "UTC", "IANA timezone name")
	dbPath      = flag.String("db", "workhours.db", "SQLite database location (or set DATABASE_LOCATION)")
	noFetch     = flag.Bool("no-fetch", false, "Skip the holiday API, use only the local store")
	seed        = flag.Bool("seed", false, "Seed the local store from the built-in calendar for -country and -year")
	year        = flag.Int("year", time.Now().Year(), "Year to seed")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("workhours CLI v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if env := os.Getenv("DATABASE_LOCATION"); env != "" && *dbPath == "workhours.db" {
		*dbPath = env
	}

	if err := run(logger); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx := context.Background()

	if *seed {
		return runSeed(ctx, logger)
	}

	if *start == "" {
		flag.PrintDefaults()
		return fmt.Errorf("-start is required")
	}
	if *country == "" && *subdivision == "" {
		return fmt.Errorf("-country (or -subdivision) is required")
	}
	if *country != "" && !countrycode.Valid(*country) {
		return fmt.Errorf("invalid country code %q", *country)
	}

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	startAt, err := parseInZone(*start, loc)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	var endAt time.Time
	switch {
	case *end != "":
		endAt, err = parseInZone(*end, loc)
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
	case flagSet("duration"):
		endAt = startAt.Add(time.Duration(*duration) * time.Second)
	default:
		return fmt.Errorf("either -end or -duration is required")
	}

	windowStart, err := hours.ParseTimeOfDay(*startOfDay)
	if err != nil {
		return err
	}
	windowEnd, err := hours.ParseTimeOfDay(*endOfDay)
	if err != nil {
		return err
	}

	store, err := holidaystore.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("opening holiday store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close holiday store", "error", err)
		}
	}()

	holidays := lookupHolidays(ctx, store, logger)

	result, err := hours.Evaluate(
		hours.Range{Start: startAt, End: endAt},
		hours.Window{StartOfDay: windowStart, EndOfDay: windowEnd},
		holidays,
	)
	if err != nil {
		return err
	}

	printResult(result, len(holidays))
	return nil
}

func lookupHolidays(ctx context.Context, store *holidaystore.Store, logger *slog.Logger) map[string]bool {
	var list []openholidays.Holiday
	if *noFetch {
		rows, err := store.ByCountry(ctx, strings.ToLower(*country))
		if err != nil {
			logger.Error("Failed to read holiday store", "error", err)
		}
		for _, row := range rows {
			list = append(list, openholidays.Holiday{Date: row.Date, Description: row.Description})
		}
	} else {
		source := openholidays.NewClient("", &http.Client{Timeout: 15 * time.Second}, logger)
		cache := holidaycache.New(source, store, logger)
		loc, _ := time.LoadLocation(*timezone) //nolint:errcheck // validated in run
		startAt, _ := parseInZone(*start, loc) //nolint:errcheck // validated in run
		list = cache.Lookup(ctx, *country, *subdivision, startAt.Year())
	}

	set := make(map[string]bool, len(list))
	for _, h := range list {
		date := h.Date
		if len(date) > 10 {
			date = date[:10]
		}
		set[date] = true
	}
	return set
}

func runSeed(ctx context.Context, logger *slog.Logger) error {
	if *country == "" {
		return fmt.Errorf("-country is required for -seed (supported: %s)",
			strings.Join(calseed.Countries(), ", "))
	}

	store, err := holidaystore.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("opening holiday store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close holiday store", "error", err)
		}
	}()

	added, err := calseed.Seed(ctx, store, *country, *year)
	if err != nil {
		return err
	}
	color.New(color.FgGreen, color.Bold).Printf("Seeded %d holidays", added)
	fmt.Printf(" for %s %d into %s\n", strings.ToLower(*country), *year, *dbPath)
	return nil
}

// parseInZone parses an RFC3339 instant and re-anchors its wall-clock
// fields in loc, mirroring the server's interpretation.
// flagSet reports whether the named flag was given on the command line, so
// an explicit -duration 0 reaches Evaluate and fails as an invalid range
// rather than being read as unset.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func parseInZone(value string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
}

func printResult(result hours.Result, holidayCount int) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.Faint)

	bold.Printf("%s", result.Start.Format(time.RFC3339))
	fmt.Print(" .. ")
	bold.Printf("%s\n", result.End.Format(time.RFC3339))
	green.Printf("Work hours: %.2f\n", result.Hours)
	dim.Printf("  minutes: %.1f  seconds: %.1f  known holidays: %d\n",
		result.Minutes, result.Seconds, holidayCount)
}
