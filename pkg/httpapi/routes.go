package httpapi

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openapiDocument []byte

// Routes builds the service mux, wrapped in the standard middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleWorkHours)
	mux.HandleFunc("POST /holidays/{country}", s.handleAddHolidays)
	mux.HandleFunc("GET /holidays/{country}", s.handleListHolidays)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	return s.wrap(mux)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(openapiDocument); err != nil {
		s.logger.Debug("failed to write openapi document", "error", err)
	}
}
