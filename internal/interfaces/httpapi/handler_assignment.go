package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	"github.com/riskibarqy/gift-exchange/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

var exportCSVHeader = []string{"giver_id", "giver_name", "receiver_id", "receiver_name"}

// RevealAssignment returns the single record where the caller is the giver.
func (h *Handler) RevealAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RevealAssignment")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	participantID := strings.TrimSpace(r.PathValue("participantID"))
	item, err := h.gameService.GetAssignmentFor(ctx, gameID, participantID)
	if err != nil {
		h.logger.WarnContext(ctx, "reveal assignment failed", "game_id", gameID, "participant_id", participantID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, revealToDTO(item))
}

func (h *Handler) ExportAssignments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExportAssignments")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format != "" && format != "json" && format != "csv" {
		writeError(ctx, w, fmt.Errorf("%w: unsupported export format %q", usecase.ErrInvalidInput, format))
		return
	}

	export, err := h.gameService.ExportAssignments(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "export assignments failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	if format != "csv" {
		writeSuccess(ctx, w, http.StatusOK, exportToDTO(export))
		return
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := writeExportCSV(buf, export); err != nil {
		h.logger.ErrorContext(ctx, "render export csv failed", "game_id", gameID, "error", err)
		writeInternalError(ctx, w)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="game-%s-assignments.csv"`, export.Game.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.B)
}

func writeExportCSV(buf *bytebufferpool.ByteBuffer, export usecase.Export) error {
	writer := csv.NewWriter(buf)
	if err := writer.Write(exportCSVHeader); err != nil {
		return err
	}
	for _, a := range export.Assignments {
		if err := writer.Write([]string{a.GiverID, a.GiverName, a.ReceiverID, a.ReceiverName}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

const maxUpcomingBirthdayDays = 366

func (h *Handler) ListUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingBirthdays")
	defer span.End()

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	var window time.Duration
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: days must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		if days > maxUpcomingBirthdayDays {
			writeError(ctx, w, fmt.Errorf("%w: days cannot exceed %d", usecase.ErrInvalidInput, maxUpcomingBirthdayDays))
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	items, err := h.gameService.ListUpcomingBirthdays(ctx, gameID, window)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming birthdays failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]upcomingBirthdayDTO, 0, len(items))
	for _, item := range items {
		out = append(out, upcomingBirthdayDTO{
			ParticipantID: item.Participant.ID,
			Name:          item.Participant.Name,
			NextBirthday:  item.NextBirthday.Format(participant.DateLayout),
			DaysUntil:     item.DaysUntil,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
