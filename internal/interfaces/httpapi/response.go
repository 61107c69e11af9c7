package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/usecase"
)

const (
	googleAPIVersion     = "2.0"
	errorDomain          = "gift-exchange"
	internalErrorMessage = "internal server error"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain       string `json:"domain"`
	Reason       string `json:"reason"`
	Message      string `json:"message"`
	Location     string `json:"location,omitempty"`
	LocationType string `json:"locationType,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	message := err.Error()
	if mapped.HTTPStatus == http.StatusInternalServerError {
		message = internalErrorMessage
	}
	writeErrorBody(ctx, w, mapped, message, errorItems(err, mapped, message))
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	mapped := mappedError{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}
	writeErrorBody(ctx, w, mapped, internalErrorMessage, nil)
}

func writeErrorBody(ctx context.Context, w http.ResponseWriter, mapped mappedError, message string, items []googleErrorItem) {
	if len(items) == 0 {
		items = []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: message}}
	}
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors:  items,
		},
	})
}

// errorItems names each participant that blocks a birthday draw so clients
// can point at them without parsing the message.
func errorItems(err error, mapped mappedError, message string) []googleErrorItem {
	var missing *game.MissingBirthDateError
	if !errors.As(err, &missing) || len(missing.ParticipantIDs) == 0 {
		return nil
	}
	items := make([]googleErrorItem, 0, len(missing.ParticipantIDs))
	for _, id := range missing.ParticipantIDs {
		items = append(items, googleErrorItem{
			Domain:       errorDomain,
			Reason:       mapped.Reason,
			Message:      "participant has no birth date",
			Location:     id,
			LocationType: "participant",
		})
	}
	return items
}

// mapError checks domain failures before the generic usecase sentinels.
func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case errors.Is(err, game.ErrInsufficientParticipants):
		return mappedError{
			HTTPStatus: http.StatusUnprocessableEntity,
			Reason:     "insufficientParticipants",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, game.ErrMissingBirthDate):
		return mappedError{
			HTTPStatus: http.StatusUnprocessableEntity,
			Reason:     "missingBirthDate",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, game.ErrInvalidStateTransition):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "invalidStateTransition",
			Status:     "ABORTED",
		}
	case errors.Is(err, game.ErrAssignmentsNotYetAvailable):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "assignmentsNotYetAvailable",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, game.ErrUnknownParticipant):
		return mappedError{
			HTTPStatus: http.StatusNotFound,
			Reason:     "unknownParticipant",
			Status:     "NOT_FOUND",
		}
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{
			HTTPStatus: http.StatusBadRequest,
			Reason:     "invalidInput",
			Status:     "INVALID_ARGUMENT",
		}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{
			HTTPStatus: http.StatusNotFound,
			Reason:     "notFound",
			Status:     "NOT_FOUND",
		}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{
			HTTPStatus: http.StatusUnauthorized,
			Reason:     "unauthorized",
			Status:     "UNAUTHENTICATED",
		}
	case errors.Is(err, usecase.ErrConflict):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "conflict",
			Status:     "ABORTED",
		}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{
			HTTPStatus: http.StatusServiceUnavailable,
			Reason:     "dependencyUnavailable",
			Status:     "UNAVAILABLE",
		}
	default:
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     "internalError",
			Status:     "INTERNAL",
		}
	}
}
