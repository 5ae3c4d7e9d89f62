// Package calseed populates the persisted holiday store from rule-based
// country calendars, so the service keeps a usable fallback when the
// external holiday API is unreachable.
package calseed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/us"

	"github.com/fmodolix/workhours/pkg/holidaystore"
)

// Store is the insert surface of the persisted holiday store.
type Store interface {
	Add(ctx context.Context, h holidaystore.Holiday) (int64, error)
}

var calendars = map[string][]*cal.Holiday{
	"at": at.Holidays,
	"ca": ca.Holidays,
	"de": de.Holidays,
	"es": es.Holidays,
	"fr": fr.Holidays,
	"gb": gb.Holidays,
	"it": it.Holidays,
	"nl": nl.Holidays,
	"us": us.Holidays,
}

// Countries lists the country codes with a built-in calendar.
func Countries() []string {
	codes := make([]string, 0, len(calendars))
	for code := range calendars {
		codes = append(codes, code)
	}
	return codes
}

// Seed computes the given country's public holidays for year and inserts
// them as plain dated rows. It returns the number of rows written.
func Seed(ctx context.Context, store Store, country string, year int) (int, error) {
	code := strings.ToLower(country)
	defs, ok := calendars[code]
	if !ok {
		return 0, fmt.Errorf("no built-in calendar for country %q", country)
	}

	added := 0
	for _, def := range defs {
		_, observed := def.Calc(year)
		if observed.IsZero() {
			continue
		}
		_, err := store.Add(ctx, holidaystore.Holiday{
			Date:        observed.Format("2006-01-02"),
			Description: def.Name,
			Country:     code,
		})
		if err != nil {
			return added, fmt.Errorf("seeding %s %d: %w", code, year, err)
		}
		added++
	}
	return added, nil
}
