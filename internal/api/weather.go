package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nugget/bob-assistant/internal/weather"
)

// handleWeather serves GET /api/weather/{location} and the older
// GET /api/weather?location= form.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.deps.Weather == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "weather not configured")
		return
	}

	location := r.PathValue("location")
	if location == "" {
		location = r.URL.Query().Get("location")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		s.errorResponse(w, http.StatusBadRequest, "location is required")
		return
	}

	report, err := s.deps.Weather.Current(r.Context(), location)
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		s.errorResponse(w, http.StatusNotFound, "Location not found")
	case errors.Is(err, weather.ErrNotConfigured):
		s.errorResponse(w, http.StatusServiceUnavailable, "weather not configured")
	case err != nil:
		s.logger.Error("weather lookup failed", "location", location, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to get weather data")
	default:
		s.respond(w, http.StatusOK, report)
	}
}
