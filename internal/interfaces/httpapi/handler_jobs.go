package httpapi

import (
	"net/http"
)

// RunCompleteDueGamesJob closes every classic game whose delivery date has passed.
func (h *Handler) RunCompleteDueGamesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCompleteDueGamesJob")
	defer span.End()

	result, err := h.gameService.CompleteDueGames(ctx, h.now())
	if err != nil {
		h.logger.WarnContext(ctx, "complete due games job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "complete due games job finished",
		"due_count", result.DueCount,
		"completed_count", result.CompletedCount,
		"failed_count", result.FailedCount,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}
