package game

import (
	"fmt"
	"strings"
	"time"
)

// MinParticipants is the smallest group that can be drawn without self-gifting
// and without every giver trivially knowing their receiver.
const MinParticipants = 3

type Mode string

const (
	ModeClassic  Mode = "classic"
	ModeBirthday Mode = "birthday"
)

func (m Mode) Valid() bool {
	return m == ModeClassic || m == ModeBirthday
}

func ParseMode(v string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(v)))
	if !mode.Valid() {
		return "", fmt.Errorf("unknown game mode %q", v)
	}
	return mode, nil
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted:
		return true
	default:
		return false
	}
}

// AssignmentsVisible reports whether the draw has happened for a game in this status.
func (s Status) AssignmentsVisible() bool {
	return s == StatusActive || s == StatusCompleted
}

type Game struct {
	ID             string
	Name           string
	Description    string
	Mode           Mode
	DeliveryDate   *time.Time
	Status         Status
	ParticipantIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assignment is one giver -> receiver pair. Names are a snapshot taken at draw time.
type Assignment struct {
	ID           string
	GameID       string
	GiverID      string
	ReceiverID   string
	GiverName    string
	ReceiverName string
	CreatedAt    time.Time
}

func (g Game) HasParticipant(participantID string) bool {
	for _, id := range g.ParticipantIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// ValidateBasic checks the structural invariants of a game record.
func (g Game) ValidateBasic() error {
	if strings.TrimSpace(g.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("game name is required")
	}
	if !g.Mode.Valid() {
		return fmt.Errorf("unknown game mode %q", g.Mode)
	}
	if !g.Status.Valid() {
		return fmt.Errorf("unknown game status %q", g.Status)
	}
	if g.Mode == ModeClassic && g.DeliveryDate == nil {
		return fmt.Errorf("delivery date is required for classic games")
	}
	if g.Mode != ModeClassic && g.DeliveryDate != nil {
		return fmt.Errorf("delivery date is only allowed for classic games")
	}

	seen := make(map[string]struct{}, len(g.ParticipantIDs))
	for _, id := range g.ParticipantIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("participant id cannot be empty")
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate participant id %s", id)
		}
		seen[id] = struct{}{}
	}
	if len(g.ParticipantIDs) < MinParticipants {
		return fmt.Errorf("%w: need at least %d, got %d", ErrInsufficientParticipants, MinParticipants, len(g.ParticipantIDs))
	}

	return nil
}

func cloneIDs(ids []string) []string {
	return append([]string(nil), ids...)
}

// Clone returns a copy that shares no slices or pointers with g.
func (g Game) Clone() Game {
	copied := g
	copied.ParticipantIDs = cloneIDs(g.ParticipantIDs)
	if g.DeliveryDate != nil {
		d := *g.DeliveryDate
		copied.DeliveryDate = &d
	}
	return copied
}
