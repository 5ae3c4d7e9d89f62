// Package httpapi exposes the work-hours service over HTTP: the evaluation
// endpoint, the stored-holiday endpoints, a health probe and the OpenAPI
// document.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fmodolix/workhours/pkg/countrycode"
	"github.com/fmodolix/workhours/pkg/holidaystore"
	"github.com/fmodolix/workhours/pkg/hours"
	"github.com/fmodolix/workhours/pkg/openholidays"
)

// HolidayLookup is the cache-backed holiday snapshot provider. It never
// fails; an unknown jurisdiction yields an empty list.
type HolidayLookup interface {
	Lookup(ctx context.Context, country, subdivision string, year int) []openholidays.Holiday
}

// HolidayStore is the persisted holiday table behind the /holidays
// endpoints.
type HolidayStore interface {
	Add(ctx context.Context, h holidaystore.Holiday) (int64, error)
	ByCountry(ctx context.Context, country string) ([]holidaystore.Holiday, error)
}

// Server holds the handler dependencies. Construct it with New and mount
// Routes on an http.Server.
type Server struct {
	store    HolidayStore
	holidays HolidayLookup
	logger   *slog.Logger
}

// New creates a Server.
func New(store HolidayStore, holidays HolidayLookup, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, holidays: holidays, logger: logger}
}

const (
	defaultStartOfDay = "09:00:00"
	defaultEndOfDay   = "17:00:00"
)

type workHoursRequest struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	DurationSeconds *int64 `json:"durationSeconds"`
	StartOfDay      string `json:"startOfDay"`
	EndOfDay        string `json:"endOfDay"`
	Country         string `json:"country"`
	Subdivision     string `json:"subdivision"`
	Timezone        string `json:"timezone"`
}

type workHoursResponse struct {
	WorkHours   float64 `json:"workHours"`
	WorkMinutes float64 `json:"workMinutes"`
	WorkSeconds float64 `json:"workSeconds"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
}

func (s *Server) handleWorkHours(w http.ResponseWriter, r *http.Request) {
	var req workHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.StartOfDay == "" {
		req.StartOfDay = defaultStartOfDay
	}
	if req.EndOfDay == "" {
		req.EndOfDay = defaultEndOfDay
	}

	if req.Country == "" && req.Subdivision == "" {
		s.writeError(w, http.StatusBadRequest, "Country code is required unless a subdivision is given")
		return
	}
	if req.Country != "" && !countrycode.Valid(req.Country) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid country code: %s. Must be a valid ISO-3166-1 alpha-2 code.", strings.ToLower(req.Country)))
		return
	}

	if req.Timezone == "" {
		s.writeError(w, http.StatusBadRequest, "Timezone is required")
		return
	}
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid timezone: %v", err))
		return
	}

	start, err := parseInZone(req.StartDate, loc)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start date format: %v", err))
		return
	}

	startOfDay, err := hours.ParseTimeOfDay(req.StartOfDay)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid start time format: %v", err))
		return
	}
	endOfDay, err := hours.ParseTimeOfDay(req.EndOfDay)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid end time format: %v", err))
		return
	}

	var end time.Time
	switch {
	case req.EndDate != "":
		end, err = parseInZone(req.EndDate, loc)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid end date format: %v", err))
			return
		}
	case req.DurationSeconds != nil:
		end = start.Add(time.Duration(*req.DurationSeconds) * time.Second)
	default:
		s.writeError(w, http.StatusBadRequest, "Either endDate or durationSeconds must be provided")
		return
	}

	holidaySet := s.holidaySet(r.Context(), req.Country, req.Subdivision, start.Year())

	result, err := hours.Evaluate(
		hours.Range{Start: start, End: end},
		hours.Window{StartOfDay: startOfDay, EndOfDay: endOfDay},
		holidaySet,
	)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, capitalized(err))
		return
	}

	s.logger.Debug("work hours evaluated",
		"country", req.Country, "subdivision", req.Subdivision,
		"start", result.Start, "end", result.End, "hours", result.Hours)

	s.writeJSON(w, http.StatusOK, workHoursResponse{
		WorkHours:   result.Hours,
		WorkMinutes: result.Minutes,
		WorkSeconds: result.Seconds,
		StartDate:   result.Start.Format(time.RFC3339),
		EndDate:     result.End.Format(time.RFC3339),
	})
}

// holidaySet looks up the jurisdiction's holidays and normalizes them to
// calendar-date keys, truncating longer timestamps to their YYYY-MM-DD
// prefix.
func (s *Server) holidaySet(ctx context.Context, country, subdivision string, year int) map[string]bool {
	list := s.holidays.Lookup(ctx, country, subdivision, year)
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

type holidayInput struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (s *Server) handleAddHolidays(w http.ResponseWriter, r *http.Request) {
	country := strings.ToLower(r.PathValue("country"))
	if !countrycode.Valid(country) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid country code: %s. Must be a valid ISO-3166-1 alpha-2 code.", country))
		return
	}

	var inputs []holidayInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	added := 0
	var failures []string
	for _, input := range inputs {
		_, err := s.store.Add(r.Context(), holidaystore.Holiday{
			Date:        input.Date,
			Description: input.Description,
			Country:     country,
		})
		if err != nil {
			s.logger.Error("failed to add holiday", "country", country, "date", input.Date, "error", err)
			failures = append(failures, fmt.Sprintf("Failed to add holiday %s: %v", input.Date, err))
			continue
		}
		added++
	}

	// Successfully added rows are kept even when later items fail.
	if len(failures) > 0 {
		s.writeJSON(w, http.StatusInternalServerError, failures)
		return
	}
	s.writeJSON(w, http.StatusOK, fmt.Sprintf("%d holidays added successfully", added))
}

func (s *Server) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	country := strings.ToLower(r.PathValue("country"))
	if !countrycode.Valid(country) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid country code: %s. Must be a valid ISO-3166-1 alpha-2 code.", country))
		return
	}

	holidays, err := s.store.ByCountry(r.Context(), country)
	if err != nil {
		s.logger.Error("failed to list holidays", "country", country, "error", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch holidays: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, holidays)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Debug("failed to write health response", "error", err)
	}
}

// parseInZone parses an RFC3339 instant and re-anchors its wall-clock
// fields in loc: the request timezone wins over any offset carried by the
// input string.
func parseInZone(value string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
}

func capitalized(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
