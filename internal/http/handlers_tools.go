package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/device"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCompoundInterest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()

	principal, err := strconv.ParseFloat(strings.TrimSpace(q.Get("principal")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid principal")
		return
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(q.Get("rate")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate")
		return
	}
	years, err := strconv.ParseFloat(strings.TrimSpace(q.Get("years")), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid years")
		return
	}

	times := 1
	if v := strings.TrimSpace(q.Get("times")); v != "" {
		times, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid times")
			return
		}
	}

	result, err := core.CompoundInterest(principal, rate, times, years)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.battery == nil {
		writeError(w, http.StatusServiceUnavailable, "battery information unavailable")
		return
	}

	level, err := s.battery.Level(r.Context())
	if err != nil {
		if errors.Is(err, device.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "battery information unavailable")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Battery read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "battery read failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"level": level})
}

func (s *Server) handleBatterySettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.battery == nil {
		writeError(w, http.StatusServiceUnavailable, "battery information unavailable")
		return
	}

	if err := s.battery.OpenSettings(r.Context()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Battery settings launch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not open battery settings")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "launched"})
}

func (s *Server) handleCalendarAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.reminders == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar unavailable")
		return
	}

	granted, err := s.reminders.RequestAccess(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrCalendarDisabled) {
			writeError(w, http.StatusForbidden, "calendar capability disabled")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Calendar access request failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "calendar unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"granted": granted})
}

type reminderRequest struct {
	Title string `json:"title"`
	DueAt string `json:"due_at"`
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	if s.reminders == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar unavailable")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleListReminders(w, r)
	case http.MethodPost:
		s.handleCreateReminder(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.ListReminders(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrCalendarDisabled) || errors.Is(err, services.ErrAccessNotGranted) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Reminder list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list reminders")
		return
	}

	if reminders == nil {
		reminders = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.reminders.CreateReminder(r.Context(), sanitizeInput(req.Title), strings.TrimSpace(req.DueAt))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCalendarDisabled), errors.Is(err, services.ErrAccessNotGranted):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, core.ErrEmptyTitle), errors.Is(err, core.ErrInvalidDueDate):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Reminder create failed", "error", err)
			writeError(w, http.StatusInternalServerError, "could not create reminder")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	hits, misses := s.viewCache.Stats()
	writeJSON(w, http.StatusOK, struct {
		Requests   int64  `json:"requests"`
		AvgMicros  int64  `json:"avg_response_micros"`
		RateHits   int64  `json:"rate_limit_hits"`
		Clients    int64  `json:"rate_limit_clients"`
		Suspicious int64  `json:"suspicious_requests"`
		CacheHits  uint64 `json:"view_cache_hits"`
		CacheMiss  uint64 `json:"view_cache_misses"`
		CacheSize  int    `json:"view_cache_size"`
		Version    uint64 `json:"store_version"`
	}{
		Requests:   s.tracer.GetMetrics().TotalRequests,
		AvgMicros:  s.tracer.GetMetrics().AverageResponseTime,
		RateHits:   s.rateLimiter.GetMetrics().TotalHits,
		Clients:    s.rateLimiter.GetMetrics().ClientCount,
		Suspicious: s.detector.GetMetrics().SuspiciousRequests,
		CacheHits:  hits,
		CacheMiss:  misses,
		CacheSize:  s.viewCache.Size(),
		Version:    s.store.Version(),
	})
}
