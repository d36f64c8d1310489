package handler

import (
	"net/http"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	// The field is named endpoint on the wire for compatibility with the
	// existing service-worker client; the value is the FCM token.
	var req struct {
		Token string `json:"endpoint" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpsertPushToken(req.Token, r.UserAgent()); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "subscribed", nil)
}

// SendPush fans a custom message out to every subscriber. The shared admin
// secret travels in the body; the caller is an operator tool without a
// session.
func (h *Handler) SendPush(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret" validate:"required"`
		Title  string `json:"title" validate:"required"`
		Body   string `json:"body" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Secret != h.config.Admin.Secret {
		h.errorResponse(w, r, "invalid secret")
		return
	}

	report, err := h.dispatcher.Send(r.Context(), domain.PushMessage{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, report.Message, report)
}

// ScheduleUpdateWebhook is the push-style counterpart of the cron detector:
// an external editor calls it right after publishing a new week, and the
// stock announcement goes out immediately.
func (h *Handler) ScheduleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.Secret != h.config.Admin.Secret {
		h.errorResponse(w, r, "invalid secret")
		return
	}

	msg := domain.DefaultUpdateMessage(h.config.Push.Icon)
	msg.Body = "새로운 스케줄이 등록되었습니다! 지금 확인해보세요."

	report, err := h.dispatcher.Send(r.Context(), msg)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, report.Message, report)
}
