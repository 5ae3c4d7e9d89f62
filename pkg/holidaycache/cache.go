// Package holidaycache serves public-holiday lookups from a TTL cache
// keyed by jurisdiction and year, loading through an upstream source and
// falling back to the persisted store when the source fails. A lookup never
// fails: the caller always receives some holiday list, possibly empty.
package holidaycache

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
	"golang.org/x/sync/singleflight"

	"github.com/fmodolix/workhours/pkg/holidaystore"
	"github.com/fmodolix/workhours/pkg/openholidays"
)

// DefaultTTL is how long a fetched holiday list stays fresh.
const DefaultTTL = 24 * time.Hour

// Source fetches the authoritative holiday list for a jurisdiction.
type Source interface {
	Holidays(ctx context.Context, country, subdivision string, year int) ([]openholidays.Holiday, error)
}

// Fallback reads locally persisted holidays when the source is
// unreachable.
type Fallback interface {
	ByCountry(ctx context.Context, country string) ([]holidaystore.Holiday, error)
}

type entry struct {
	Holidays  []openholidays.Holiday
	ExpiresAt time.Time
}

// Cache is the shared holiday lookup used by request handlers. Entries are
// replaced whole on refresh, never mutated, so concurrent readers cannot
// observe a half-written list.
type Cache struct {
	entries  *otter.Cache[string, entry]
	source   Source
	fallback Fallback
	group    singleflight.Group
	ttl      time.Duration
	logger   *slog.Logger
}

// New builds a cache around the given source and fallback store.
func New(source Source, fallback Fallback, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	entries := otter.Must(&otter.Options[string, entry]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, entry](DefaultTTL),
	})
	return &Cache{
		entries:  entries,
		source:   source,
		fallback: fallback,
		ttl:      DefaultTTL,
		logger:   logger,
	}
}

// Key returns the cache key for a jurisdiction and year: the uppercased
// subdivision code when present, else the uppercased country code, with the
// year appended.
func Key(country, subdivision string, year int) string {
	code := country
	if subdivision != "" {
		code = subdivision
	}
	return strings.ToUpper(code) + strconv.Itoa(year)
}

// Lookup returns the holidays of a jurisdiction for year. A fresh cache
// entry is served without I/O; otherwise the source is fetched once per key
// (concurrent misses share the flight) and cached for the TTL. If the fetch
// fails the persisted store's list for the country is returned instead; a
// store failure degrades to an empty list. Lookup never returns an error.
func (c *Cache) Lookup(ctx context.Context, country, subdivision string, year int) []openholidays.Holiday {
	key := Key(country, subdivision, year)

	if holidays, ok := c.fresh(key); ok {
		c.logger.Debug("holiday cache hit", "key", key, "count", len(holidays))
		return holidays
	}

	v, _, shared := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have refreshed the entry while this
		// caller waited for the group.
		if holidays, ok := c.fresh(key); ok {
			return holidays, nil
		}
		return c.load(ctx, key, country, subdivision, year), nil
	})
	holidays, _ := v.([]openholidays.Holiday)
	if shared {
		c.logger.Debug("holiday fetch shared with concurrent lookup", "key", key)
	}
	return holidays
}

func (c *Cache) fresh(key string) ([]openholidays.Holiday, bool) {
	e, ok := c.entries.GetIfPresent(key)
	if !ok {
		return nil, false
	}
	// Otter expires on its own; double-check the recorded deadline anyway.
	if time.Now().After(e.ExpiresAt) {
		c.logger.Debug("holiday cache entry expired", "key", key, "expired_at", e.ExpiresAt)
		c.entries.Invalidate(key)
		return nil, false
	}
	return e.Holidays, true
}

func (c *Cache) load(ctx context.Context, key, country, subdivision string, year int) []openholidays.Holiday {
	holidays, err := c.source.Holidays(ctx, country, subdivision, year)
	if err != nil {
		c.logger.Warn("holiday fetch failed, using persisted fallback",
			"key", key, "country", country, "error", err)
		return c.persisted(ctx, country)
	}

	c.entries.Set(key, entry{Holidays: holidays, ExpiresAt: time.Now().Add(c.ttl)})
	c.logger.Info("holiday cache updated", "key", key, "count", len(holidays), "ttl", c.ttl)
	return holidays
}

func (c *Cache) persisted(ctx context.Context, country string) []openholidays.Holiday {
	rows, err := c.fallback.ByCountry(ctx, strings.ToLower(country))
	if err != nil {
		c.logger.Error("persisted holiday read failed, treating as no known holidays",
			"country", country, "error", err)
		return []openholidays.Holiday{}
	}
	holidays := make([]openholidays.Holiday, 0, len(rows))
	for _, row := range rows {
		holidays = append(holidays, openholidays.Holiday{Date: row.Date, Description: row.Description})
	}
	return holidays
}
