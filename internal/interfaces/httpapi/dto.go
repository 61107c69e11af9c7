package httpapi

import (
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	"github.com/riskibarqy/gift-exchange/internal/usecase"
)

type gameRequest struct {
	Name           string   `json:"name" validate:"required,max=120"`
	Description    string   `json:"description" validate:"max=1000"`
	Mode           string   `json:"mode" validate:"required,oneof=classic birthday"`
	DeliveryDate   string   `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	ParticipantIDs []string `json:"participant_ids" validate:"required,dive,required"`
}

func (r gameRequest) toInput() usecase.CreateGameInput {
	return usecase.CreateGameInput{
		Name:           r.Name,
		Description:    r.Description,
		Mode:           r.Mode,
		DeliveryDate:   r.DeliveryDate,
		ParticipantIDs: r.ParticipantIDs,
	}
}

type participantRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r participantRequest) toInput() usecase.CreateParticipantInput {
	return usecase.CreateParticipantInput{
		Name:      r.Name,
		Email:     r.Email,
		BirthDate: r.BirthDate,
	}
}

type gameDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Mode           string   `json:"mode"`
	DeliveryDate   string   `json:"delivery_date,omitempty"`
	Status         string   `json:"status"`
	ParticipantIDs []string `json:"participant_ids"`
	CreatedAtUTC   string   `json:"created_at_utc"`
	UpdatedAtUTC   string   `json:"updated_at_utc"`
}

type participantDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	BirthDate    string `json:"birth_date,omitempty"`
	CreatedAtUTC string `json:"created_at_utc"`
	UpdatedAtUTC string `json:"updated_at_utc"`
}

type drawResultDTO struct {
	GameID          string `json:"game_id"`
	Status          string `json:"status"`
	AssignmentCount int    `json:"assignment_count"`
}

type revealDTO struct {
	GameID       string `json:"game_id"`
	GiverID      string `json:"giver_id"`
	GiverName    string `json:"giver_name"`
	ReceiverID   string `json:"receiver_id"`
	ReceiverName string `json:"receiver_name"`
}

type exportDTO struct {
	Game         gameDTO               `json:"game"`
	Assignments  []exportAssignmentDTO `json:"assignments"`
	GeneratedUTC string                `json:"generated_at_utc"`
}

type exportAssignmentDTO struct {
	GiverID      string `json:"giver_id"`
	GiverName    string `json:"giver_name"`
	ReceiverID   string `json:"receiver_id"`
	ReceiverName string `json:"receiver_name"`
}

type upcomingBirthdayDTO struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	NextBirthday  string `json:"next_birthday"`
	DaysUntil     int    `json:"days_until"`
}

func gameToDTO(g game.Game) gameDTO {
	out := gameDTO{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		Mode:           string(g.Mode),
		Status:         string(g.Status),
		ParticipantIDs: append([]string{}, g.ParticipantIDs...),
		CreatedAtUTC:   formatTime(g.CreatedAt),
		UpdatedAtUTC:   formatTime(g.UpdatedAt),
	}
	if g.DeliveryDate != nil {
		out.DeliveryDate = g.DeliveryDate.Format(participant.DateLayout)
	}
	return out
}

func participantToDTO(p participant.Participant) participantDTO {
	out := participantDTO{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		CreatedAtUTC: formatTime(p.CreatedAt),
		UpdatedAtUTC: formatTime(p.UpdatedAt),
	}
	if p.HasBirthDate() {
		out.BirthDate = p.BirthDate.Format(participant.DateLayout)
	}
	return out
}

func revealToDTO(a game.Assignment) revealDTO {
	return revealDTO{
		GameID:       a.GameID,
		GiverID:      a.GiverID,
		GiverName:    a.GiverName,
		ReceiverID:   a.ReceiverID,
		ReceiverName: a.ReceiverName,
	}
}

func exportToDTO(e usecase.Export) exportDTO {
	items := make([]exportAssignmentDTO, 0, len(e.Assignments))
	for _, a := range e.Assignments {
		items = append(items, exportAssignmentDTO{
			GiverID:      a.GiverID,
			GiverName:    a.GiverName,
			ReceiverID:   a.ReceiverID,
			ReceiverName: a.ReceiverName,
		})
	}
	return exportDTO{
		Game:         gameToDTO(e.Game),
		Assignments:  items,
		GeneratedUTC: formatTime(e.GeneratedAt),
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
