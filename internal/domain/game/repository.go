package game

import (
	"context"
	"time"
)

// Repository stores games and their assignment sets.
//
// Activate must persist the whole assignment set and move the game from
// pending to active as one atomic unit. When the game is no longer pending it
// fails with ErrInvalidStateTransition and writes nothing.
type Repository interface {
	Create(ctx context.Context, g Game) error
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	List(ctx context.Context) ([]Game, error)
	ListActiveClassicDueBefore(ctx context.Context, day time.Time) ([]Game, error)
	ListPendingIDsByParticipant(ctx context.Context, participantID string) ([]string, error)
	UpdatePending(ctx context.Context, g Game) error
	Delete(ctx context.Context, gameID string) error
	Activate(ctx context.Context, gameID string, assignments []Assignment) error
	TransitionStatus(ctx context.Context, gameID string, from, to Status) error
	GetAssignmentByGiver(ctx context.Context, gameID, giverID string) (Assignment, bool, error)
	ListAssignments(ctx context.Context, gameID string) ([]Assignment, error)
}
