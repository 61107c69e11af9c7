package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	gamemock "github.com/riskibarqy/gift-exchange/internal/mocks/domain/game"
	participantmock "github.com/riskibarqy/gift-exchange/internal/mocks/domain/participant"
	idgen "github.com/riskibarqy/gift-exchange/internal/platform/id"
	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func pendingClassicGame() game.Game {
	delivery := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	return game.Game{
		ID:             "game-1",
		Name:           "Office party",
		Mode:           game.ModeClassic,
		DeliveryDate:   &delivery,
		Status:         game.StatusPending,
		ParticipantIDs: []string{"p1", "p2", "p3"},
	}
}

func registryPeople() []participant.Participant {
	return []participant.Participant{
		{ID: "p1", Name: "Ana"},
		{ID: "p2", Name: "Budi"},
		{ID: "p3", Name: "Citra"},
	}
}

func TestGameService_RunAssignment_PersistFailureKeepsPendingAndRetries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 1)

	g := pendingClassicGame()
	games.On("GetByID", mock.Anything, g.ID).Return(g, true, nil).Twice()
	registry.On("GetByIDs", mock.Anything, g.ParticipantIDs).Return(registryPeople(), nil).Twice()

	storeDown := errors.New("connection reset")
	games.
		On("Activate", mock.Anything, g.ID, mock.AnythingOfType("[]game.Assignment")).
		Return(storeDown).
		Once()

	if _, err := service.RunAssignment(ctx, g.ID); !errors.Is(err, storeDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	games.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	games.
		On("Activate", mock.Anything, g.ID, mock.MatchedBy(func(items []game.Assignment) bool {
			return game.ValidateAssignmentSet(g, items) == nil
		})).
		Return(nil).
		Once()

	records, err := service.RunAssignment(ctx, g.ID)
	if err != nil {
		t.Fatalf("retry after failed persist: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestGameService_RunAssignment_StorageConflictIsReported(t *testing.T) {
	t.Parallel()

	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 1)

	g := pendingClassicGame()
	games.On("GetByID", mock.Anything, g.ID).Return(g, true, nil).Once()
	registry.On("GetByIDs", mock.Anything, g.ParticipantIDs).Return(registryPeople(), nil).Once()
	games.
		On("Activate", mock.Anything, g.ID, mock.AnythingOfType("[]game.Assignment")).
		Return(fmt.Errorf("%w: duplicate receiver", game.ErrAssignmentConflict)).
		Once()

	_, err := service.RunAssignment(context.Background(), g.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGameService_RunAssignment_ActivateIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 1)

	g := pendingClassicGame()
	games.On("GetByID", mock.Anything, g.ID).Return(g, true, nil).Once()
	registry.
		On("GetByIDs", mock.Anything, g.ParticipantIDs).
		Run(func(mock.Arguments) { cancel() }).
		Return(registryPeople(), nil).
		Once()
	games.
		On("Activate", mock.MatchedBy(func(v context.Context) bool { return v.Err() == nil }), g.ID, mock.Anything).
		Return(nil).
		Once()

	if _, err := service.RunAssignment(ctx, g.ID); err != nil {
		t.Fatalf("run assignment: %v", err)
	}
}

func TestGameService_RunAssignment_RegistryUnavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 1)

	g := pendingClassicGame()
	games.On("GetByID", mock.Anything, g.ID).Return(g, true, nil).Once()
	registry.On("GetByIDs", mock.Anything, g.ParticipantIDs).Return(nil, errors.New("circuit breaker is open")).Once()

	if _, err := service.RunAssignment(ctx, g.ID); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestGameService_RunAssignment_ParticipantRemovedFromRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 1)

	g := pendingClassicGame()
	games.On("GetByID", mock.Anything, g.ID).Return(g, true, nil).Once()
	registry.On("GetByIDs", mock.Anything, g.ParticipantIDs).Return(nil, participant.ErrNotFound).Once()

	if _, err := service.RunAssignment(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGameService_RunAssignment_ActiveGameIsRejectedBeforeDraw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 1)

	g := pendingClassicGame()
	g.Status = game.StatusActive
	games.On("GetByID", mock.Anything, g.ID).Return(g, true, nil).Once()

	if _, err := service.RunAssignment(ctx, g.ID); !errors.Is(err, game.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	registry.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestGameService_CompleteDueGames_ReportsPerGameFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	games := gamemock.NewRepository(t)
	registry := participantmock.NewRegistry(t)
	service := NewGameService(games, registry, idgen.NewSequence("asg"), logging.NewNop(), 4)

	now := time.Date(2026, 12, 26, 8, 0, 0, 0, time.UTC)
	day := time.Date(2026, 12, 26, 0, 0, 0, 0, time.UTC)

	ok := pendingClassicGame()
	ok.ID = "game-ok"
	ok.Status = game.StatusActive
	broken := pendingClassicGame()
	broken.ID = "game-broken"
	broken.Status = game.StatusActive

	games.On("ListActiveClassicDueBefore", mock.Anything, day).Return([]game.Game{ok, broken}, nil).Once()
	games.On("GetByID", mock.Anything, ok.ID).Return(ok, true, nil).Once()
	games.On("GetByID", mock.Anything, broken.ID).Return(broken, true, nil).Once()
	games.On("TransitionStatus", mock.Anything, ok.ID, game.StatusActive, game.StatusCompleted).Return(nil).Once()
	games.On("TransitionStatus", mock.Anything, broken.ID, game.StatusActive, game.StatusCompleted).Return(errors.New("deadlock detected")).Once()

	result, err := service.CompleteDueGames(ctx, now)
	if err != nil {
		t.Fatalf("complete due games: %v", err)
	}
	if result.DueCount != 2 || result.CompletedCount != 1 || result.FailedCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.WorkerCount != 2 {
		t.Fatalf("expected worker count capped to task count, got %d", result.WorkerCount)
	}
	if result.Items[0].GameID != "game-broken" || result.Items[0].Status != completionStatusFailed {
		t.Fatalf("unexpected sorted items: %+v", result.Items)
	}
}

func TestGameService_CompleteDueGames_NothingDue(t *testing.T) {
	t.Parallel()

	games := gamemock.NewRepository(t)
	service := NewGameService(games, participantmock.NewRegistry(t), idgen.NewSequence("asg"), logging.NewNop(), 4)

	games.On("ListActiveClassicDueBefore", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil, nil).Once()

	result, err := service.CompleteDueGames(context.Background(), time.Date(2026, 12, 26, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("complete due games: %v", err)
	}
	if result.DueCount != 0 || len(result.Items) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
