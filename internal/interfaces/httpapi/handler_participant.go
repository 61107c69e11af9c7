package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/gift-exchange/internal/usecase"
)

func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateParticipant")
	defer span.End()

	var req participantRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.participantService.CreateParticipant(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "create participant failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, participantToDTO(item))
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListParticipants")
	defer span.End()

	items, err := h.participantService.ListParticipants(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list participants failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]participantDTO, 0, len(items))
	for _, item := range items {
		out = append(out, participantToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetParticipant")
	defer span.End()

	participantID := strings.TrimSpace(r.PathValue("participantID"))
	item, err := h.participantService.GetParticipant(ctx, participantID)
	if err != nil {
		h.logger.WarnContext(ctx, "get participant failed", "participant_id", participantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantToDTO(item))
}

func (h *Handler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateParticipant")
	defer span.End()

	participantID := strings.TrimSpace(r.PathValue("participantID"))
	var req participantRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.participantService.UpdateParticipant(ctx, usecase.UpdateParticipantInput{
		ParticipantID:          participantID,
		CreateParticipantInput: req.toInput(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update participant failed", "participant_id", participantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantToDTO(item))
}

func (h *Handler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteParticipant")
	defer span.End()

	participantID := strings.TrimSpace(r.PathValue("participantID"))
	if err := h.participantService.DeleteParticipant(ctx, participantID); err != nil {
		h.logger.WarnContext(ctx, "delete participant failed", "participant_id", participantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": participantID, "status": "deleted"})
}
