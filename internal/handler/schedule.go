package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/notifier"
	"github.com/C4NU/hanavi-schedule/internal/reconciler"
	"github.com/C4NU/hanavi-schedule/internal/repository"
	"github.com/C4NU/hanavi-schedule/internal/utils"
)

// GetSchedule returns the reconciled week view. Without a week parameter the
// latest active week is used; an unknown week still succeeds and returns the
// fully synthesized defaults for that week.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	roster, err := h.repository.GetAllCharacters()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	baselines, err := h.repository.GetAllBaselines()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	weekRange := r.URL.Query().Get("week")
	var items []repository.ScheduleItemRow

	if weekRange == "" {
		rec, err := h.repository.GetLatestActiveWeek()
		switch {
		case err == nil:
			weekRange = rec.WeekRange
			if items, err = h.repository.GetScheduleItems(rec.ID); err != nil {
				h.internalServerError(w, r, err)
				return
			}
		case errors.Is(err, sql.ErrNoRows):
			weekRange = domain.UnknownWeekRange
		default:
			h.internalServerError(w, r, err)
			return
		}
	} else {
		rec, err := h.repository.GetWeekRecord(weekRange)
		switch {
		case err == nil:
			if items, err = h.repository.GetScheduleItems(rec.ID); err != nil {
				h.internalServerError(w, r, err)
				return
			}
		case errors.Is(err, sql.ErrNoRows):
			// No record yet: the synthesized defaults below are the preview.
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	rows := make([]reconciler.ItemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, reconciler.ItemRow{
			CharacterID: item.CharacterID,
			Day:         item.Day,
			Item:        item.Item,
		})
	}

	week := reconciler.BuildWeek(weekRange, roster, baselines, reconciler.OverridesFromItems(rows))
	h.successResponse(w, r, "schedule fetched", week)
}

func (h *Handler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	var req domain.WeeklySchedule

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateWeeklySchedule(&req); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.SaveWeeklySchedule(&req); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// The save is already durable; event delivery is best effort. A lost
	// event only delays the notification until the next cron detection.
	hash, err := notifier.HashSchedule(&req)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := h.publisher.PublishScheduleChanged(domain.ChangeEvent{
		Type:      domain.EventScheduleChanged,
		Hash:      hash,
		Source:    "save",
		WeekRange: req.WeekRange,
	}); err != nil {
		slog.Error("failed to publish schedule change event", "week_range", req.WeekRange, "error", err)
	}

	h.successResponse(w, r, "schedule saved", map[string]string{"weekRange": req.WeekRange, "hash": hash})
}
