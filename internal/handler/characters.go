package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/utils"
)

func (h *Handler) GetAllCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := h.repository.GetAllCharacters()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "characters fetched", characters)
}

func (h *Handler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req domain.Character

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.ID == "" || req.Name == "" {
		h.errorResponse(w, r, "id and name are required")
		return
	}
	if req.DefaultTime != nil && *req.DefaultTime != "" && !utils.ValidTimeOfDay(*req.DefaultTime) {
		h.errorResponse(w, r, "invalid default time")
		return
	}

	if _, err := h.repository.GetCharacter(req.ID); err == nil {
		h.errorResponse(w, r, "Character ID already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.repository.CreateCharacter(&req); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "character created", req)
}

func (h *Handler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repository.DeleteCharacter(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "character not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "character deleted", nil)
}
