package postgres

import (
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
)

type participantTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	BirthDate *time.Time `db:"birth_date"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

type participantInsertModel struct {
	PublicID  string     `db:"public_id"`
	Name      string     `db:"name"`
	Email     string     `db:"email"`
	BirthDate *time.Time `db:"birth_date"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

type gameTableModel struct {
	ID           int64      `db:"id"`
	PublicID     string     `db:"public_id"`
	Name         string     `db:"name"`
	Description  string     `db:"description"`
	Mode         string     `db:"mode"`
	DeliveryDate *time.Time `db:"delivery_date"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type gameInsertModel struct {
	PublicID     string     `db:"public_id"`
	Name         string     `db:"name"`
	Description  string     `db:"description"`
	Mode         string     `db:"mode"`
	DeliveryDate *time.Time `db:"delivery_date"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type gameParticipantModel struct {
	GameID        string `db:"game_public_id"`
	ParticipantID string `db:"participant_public_id"`
	Position      int    `db:"position"`
}

type assignmentTableModel struct {
	ID           int64     `db:"id"`
	PublicID     string    `db:"public_id"`
	GameID       string    `db:"game_public_id"`
	GiverID      string    `db:"giver_participant_id"`
	ReceiverID   string    `db:"receiver_participant_id"`
	GiverName    string    `db:"giver_name"`
	ReceiverName string    `db:"receiver_name"`
	CreatedAt    time.Time `db:"created_at"`
}

type assignmentInsertModel struct {
	PublicID     string    `db:"public_id"`
	GameID       string    `db:"game_public_id"`
	GiverID      string    `db:"giver_participant_id"`
	ReceiverID   string    `db:"receiver_participant_id"`
	GiverName    string    `db:"giver_name"`
	ReceiverName string    `db:"receiver_name"`
	CreatedAt    time.Time `db:"created_at"`
}

var (
	participantColumns = []string{"id", "public_id", "name", "email", "birth_date", "created_at", "updated_at"}
	gameColumns        = []string{"id", "public_id", "name", "description", "mode", "delivery_date", "status", "created_at", "updated_at"}
	assignmentColumns  = []string{"id", "public_id", "game_public_id", "giver_participant_id", "receiver_participant_id", "giver_name", "receiver_name", "created_at"}
)

func participantFromRow(row participantTableModel) participant.Participant {
	return participant.Participant{
		ID:        row.PublicID,
		Name:      row.Name,
		Email:     row.Email,
		BirthDate: dateOnly(row.BirthDate),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func participantToInsert(p participant.Participant) participantInsertModel {
	return participantInsertModel{
		PublicID:  p.ID,
		Name:      p.Name,
		Email:     p.Email,
		BirthDate: dateOnly(p.BirthDate),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func gameFromRow(row gameTableModel, participantIDs []string) game.Game {
	return game.Game{
		ID:             row.PublicID,
		Name:           row.Name,
		Description:    row.Description,
		Mode:           game.Mode(row.Mode),
		DeliveryDate:   dateOnly(row.DeliveryDate),
		Status:         game.Status(row.Status),
		ParticipantIDs: append([]string(nil), participantIDs...),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func gameToInsert(g game.Game) gameInsertModel {
	return gameInsertModel{
		PublicID:     g.ID,
		Name:         g.Name,
		Description:  g.Description,
		Mode:         string(g.Mode),
		DeliveryDate: dateOnly(g.DeliveryDate),
		Status:       string(g.Status),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func gameParticipantRows(gameID string, ids []string) []any {
	out := make([]any, 0, len(ids))
	for i, id := range ids {
		out = append(out, gameParticipantModel{GameID: gameID, ParticipantID: id, Position: i})
	}
	return out
}

func assignmentFromRow(row assignmentTableModel) game.Assignment {
	return game.Assignment{
		ID:           row.PublicID,
		GameID:       row.GameID,
		GiverID:      row.GiverID,
		ReceiverID:   row.ReceiverID,
		GiverName:    row.GiverName,
		ReceiverName: row.ReceiverName,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func assignmentRows(items []game.Assignment) []any {
	out := make([]any, 0, len(items))
	for _, a := range items {
		out = append(out, assignmentInsertModel{
			PublicID:     a.ID,
			GameID:       a.GameID,
			GiverID:      a.GiverID,
			ReceiverID:   a.ReceiverID,
			GiverName:    a.GiverName,
			ReceiverName: a.ReceiverName,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}
