package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Participant CRUD exists only when this service owns the registry.
func registerParticipantRoutes(mux *http.ServeMux, handler *Handler) {
	if handler.participantService == nil {
		return
	}

	mux.HandleFunc("POST /v1/participants", handler.CreateParticipant)
	mux.HandleFunc("GET /v1/participants", handler.ListParticipants)
	mux.HandleFunc("GET /v1/participants/{participantID}", handler.GetParticipant)
	mux.HandleFunc("PUT /v1/participants/{participantID}", handler.UpdateParticipant)
	mux.HandleFunc("DELETE /v1/participants/{participantID}", handler.DeleteParticipant)
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/games", handler.CreateGame)
	mux.HandleFunc("GET /v1/games", handler.ListGames)
	mux.HandleFunc("GET /v1/games/{gameID}", handler.GetGame)
	mux.HandleFunc("GET /v1/games/{gameID}/assignments/{participantID}", handler.RevealAssignment)
	mux.HandleFunc("GET /v1/games/{gameID}/birthdays/upcoming", handler.ListUpcomingBirthdays)
}

func registerOrganizerRoutes(mux *http.ServeMux, handler *Handler, organizerKey string) {
	mux.Handle("PUT /v1/games/{gameID}", RequireOrganizerKey(organizerKey, http.HandlerFunc(handler.UpdateGame)))
	mux.Handle("DELETE /v1/games/{gameID}", RequireOrganizerKey(organizerKey, http.HandlerFunc(handler.DeleteGame)))
	mux.Handle("POST /v1/games/{gameID}/assign", RequireOrganizerKey(organizerKey, http.HandlerFunc(handler.RunAssignment)))
	mux.Handle("POST /v1/games/{gameID}/complete", RequireOrganizerKey(organizerKey, http.HandlerFunc(handler.CompleteGame)))
	mux.Handle("GET /v1/games/{gameID}/export", RequireOrganizerKey(organizerKey, http.HandlerFunc(handler.ExportAssignments)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/complete-due-games", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunCompleteDueGamesJob)))
}
