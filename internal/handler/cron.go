package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/C4NU/hanavi-schedule/internal/notifier"
)

// CheckSchedule is the scheduler-driven entry point. Modes:
//
//	detect — fetch the source and record a pending change, send nothing
//	notify — deliver the pending notification if one is recorded
//	direct — detect, then notify immediately when something changed
func (h *Handler) CheckSchedule(w http.ResponseWriter, r *http.Request) {
	if h.config.Cron.Secret != "" {
		if r.Header.Get("Authorization") != "Bearer "+h.config.Cron.Secret {
			h.writeJSON(w, r, http.StatusUnauthorized, Response{
				Success: false,
				Message: "unauthorized",
				Data:    nil,
			})
			return
		}
	} else {
		slog.Warn("CRON_SECRET is not set, the cron endpoint is unprotected")
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "direct"
	}

	switch mode {
	case "detect":
		result, err := h.detector.Detect(r.Context())
		if err != nil {
			h.cronError(w, r, err)
			return
		}
		if !result.Changed {
			h.successResponse(w, r, "No changes detected (detect mode).", result)
			return
		}
		h.successResponse(w, r, "Change detected. Pending flag set.", result)

	case "notify":
		report, err := h.dispatcher.NotifyPending(r.Context())
		if err != nil {
			h.cronError(w, r, err)
			return
		}
		h.successResponse(w, r, report.Message, report)

	case "direct":
		result, err := h.detector.Detect(r.Context())
		if err != nil {
			h.cronError(w, r, err)
			return
		}
		if !result.Changed {
			h.successResponse(w, r, "No schedule changes detected.", result)
			return
		}

		report, err := h.dispatcher.NotifyPending(r.Context())
		if err != nil {
			h.cronError(w, r, err)
			return
		}
		h.successResponse(w, r, report.Message, report)

	default:
		h.errorResponse(w, r, "unknown mode")
	}
}

// cronError keeps source outages distinguishable from real faults: an
// unavailable sheet is a retryable condition for the scheduler, not a bug.
func (h *Handler) cronError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, notifier.ErrScheduleUnavailable) {
		slog.Warn("schedule source unavailable", "error", err)
		h.writeJSON(w, r, http.StatusServiceUnavailable, Response{
			Success: false,
			Message: "schedule source unavailable",
			Data:    nil,
		})
		return
	}
	h.internalServerError(w, r, err)
}
