package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGame")
	defer span.End()

	var req gameRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.gameService.CreateGame(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "create game failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, gameToDTO(item))
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	items, err := h.gameService.ListGames(ctx, usecase.ListGamesInput{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list games failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]gameDTO, 0, len(items))
	for _, item := range items {
		out = append(out, gameToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	item, err := h.gameService.GetGame(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(item))
}

func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateGame")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	var req gameRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.gameService.UpdateGame(ctx, usecase.UpdateGameInput{
		GameID:          gameID,
		CreateGameInput: req.toInput(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(item))
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteGame")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	if err := h.gameService.DeleteGame(ctx, gameID); err != nil {
		h.logger.WarnContext(ctx, "delete game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": gameID, "status": "deleted"})
}

// RunAssignment answers with a count only. Pairs are read back through the
// reveal or export routes.
func (h *Handler) RunAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAssignment")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	span.SetAttributes(attribute.String("game.id", gameID))

	records, err := h.gameService.RunAssignment(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "run assignment failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, drawResultDTO{
		GameID:          gameID,
		Status:          string(game.StatusActive),
		AssignmentCount: len(records),
	})
}

func (h *Handler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteGame")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	item, err := h.gameService.CompleteGame(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "complete game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(item))
}
