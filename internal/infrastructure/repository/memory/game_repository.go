package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
)

// GameRepository keeps games and their assignment sets behind one lock, so
// Activate is a single critical section.
type GameRepository struct {
	mu          sync.RWMutex
	games       map[string]game.Game
	assignments map[string][]game.Assignment
}

func NewGameRepository() *GameRepository {
	return &GameRepository{
		games:       make(map[string]game.Game),
		assignments: make(map[string][]game.Assignment),
	}
}

func (r *GameRepository) Create(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[g.ID]; exists {
		return fmt.Errorf("game %s already exists", g.ID)
	}
	r.games[g.ID] = g.Clone()
	return nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[gameID]
	if !ok {
		return game.Game{}, false, nil
	}
	return g.Clone(), true, nil
}

func (r *GameRepository) List(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, g.Clone())
	}
	sortGames(out)
	return out, nil
}

func (r *GameRepository) ListActiveClassicDueBefore(_ context.Context, day time.Time) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, g := range r.games {
		if g.Status != game.StatusActive || g.Mode != game.ModeClassic || g.DeliveryDate == nil {
			continue
		}
		if g.DeliveryDate.Before(day) {
			out = append(out, g.Clone())
		}
	}
	sortGames(out)
	return out, nil
}

// ListPendingIDsByParticipant returns the ids of pending games whose
// participant list contains participantID, sorted.
func (r *GameRepository) ListPendingIDsByParticipant(_ context.Context, participantID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, g := range r.games {
		if g.Status == game.StatusPending && slices.Contains(g.ParticipantIDs, participantID) {
			out = append(out, g.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *GameRepository) UpdatePending(_ context.Context, g game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.games[g.ID]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, g.ID)
	}
	if current.Status != game.StatusPending {
		return fmt.Errorf("%w: game %s is %s", game.ErrInvalidStateTransition, g.ID, current.Status)
	}

	next := g.Clone()
	next.Status = game.StatusPending
	next.CreatedAt = current.CreatedAt
	r.games[g.ID] = next
	return nil
}

func (r *GameRepository) Delete(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[gameID]; !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	delete(r.games, gameID)
	delete(r.assignments, gameID)
	return nil
}

func (r *GameRepository) Activate(_ context.Context, gameID string, assignments []game.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	if err := game.ValidateTransition(g.Status, game.StatusActive); err != nil {
		return err
	}
	if err := game.ValidateAssignmentSet(g, assignments); err != nil {
		return err
	}

	r.assignments[gameID] = append([]game.Assignment(nil), assignments...)
	g.Status = game.StatusActive
	g.UpdatedAt = time.Now().UTC()
	r.games[gameID] = g
	return nil
}

func (r *GameRepository) TransitionStatus(_ context.Context, gameID string, from, to game.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	if g.Status != from {
		return &game.TransitionError{From: g.Status, To: to}
	}
	if err := game.ValidateTransition(from, to); err != nil {
		return err
	}
	if to == game.StatusActive {
		return fmt.Errorf("%w: activation must go through Activate", game.ErrInvalidStateTransition)
	}

	g.Status = to
	g.UpdatedAt = time.Now().UTC()
	r.games[gameID] = g
	return nil
}

func (r *GameRepository) GetAssignmentByGiver(_ context.Context, gameID, giverID string) (game.Assignment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.assignments[gameID] {
		if a.GiverID == giverID {
			return a, true, nil
		}
	}
	return game.Assignment{}, false, nil
}

func (r *GameRepository) ListAssignments(_ context.Context, gameID string) ([]game.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]game.Assignment(nil), r.assignments[gameID]...), nil
}

func sortGames(items []game.Game) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
