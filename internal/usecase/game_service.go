package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/matching"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	idgen "github.com/riskibarqy/gift-exchange/internal/platform/id"
	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
	"github.com/riskibarqy/gift-exchange/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

type CreateGameInput struct {
	Name           string
	Description    string
	Mode           string
	DeliveryDate   string
	ParticipantIDs []string
}

type UpdateGameInput struct {
	GameID string
	CreateGameInput
}

type ListGamesInput struct {
	Status string
}

// Export is the organizer view of a drawn game.
type Export struct {
	Game        game.Game
	Assignments []game.Assignment
	GeneratedAt time.Time
}

type UpcomingBirthday struct {
	Participant  participant.Participant
	NextBirthday time.Time
	DaysUntil    int
}

const (
	defaultBirthdayWindow = 30 * 24 * time.Hour
	maxBirthdayWindow     = 366 * 24 * time.Hour
)

// GameService owns the game lifecycle. Every mutation of one game runs under
// that game's lock; storage repeats the status check so separate processes
// sharing a database still draw at most once.
type GameService struct {
	games    game.Repository
	registry participant.Registry
	idGen    idgen.Generator
	locks    *resilience.KeyedMutex
	logger   *logging.Logger
	now      func() time.Time
	drawOpts []matching.Option

	completionWorkers int
	scheduler         CompletionScheduler
}

// CompletionScheduler queues a completion sweep to run at a later time.
type CompletionScheduler interface {
	ScheduleCompletionSweep(ctx context.Context, runAt time.Time) error
}

func NewGameService(
	games game.Repository,
	registry participant.Registry,
	idGen idgen.Generator,
	logger *logging.Logger,
	completionWorkers int,
) *GameService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameService{
		games:             games,
		registry:          registry,
		idGen:             idGen,
		locks:             resilience.NewKeyedMutex(),
		logger:            logger,
		now:               time.Now,
		completionWorkers: completionWorkers,
	}
}

// SetCompletionScheduler makes RunAssignment queue a sweep for the day after
// a classic game's delivery date. Nil disables scheduling.
func (s *GameService) SetCompletionScheduler(scheduler CompletionScheduler) {
	s.scheduler = scheduler
}

func (s *GameService) CreateGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.CreateGame")
	defer span.End()

	draft, err := s.buildGame(ctx, input)
	if err != nil {
		return game.Game{}, err
	}

	gameID, err := s.idGen.NewID()
	if err != nil {
		return game.Game{}, fmt.Errorf("generate game id: %w", err)
	}
	now := s.now().UTC()
	draft.ID = gameID
	draft.Status = game.StatusPending
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := draft.ValidateBasic(); err != nil {
		return game.Game{}, invalidGame(err)
	}
	if err := s.games.Create(ctx, draft); err != nil {
		return game.Game{}, fmt.Errorf("create game: %w", err)
	}

	s.logger.InfoContext(ctx, "game created", "game_id", draft.ID, "mode", draft.Mode, "participant_count", len(draft.ParticipantIDs))
	return draft, nil
}

func (s *GameService) GetGame(ctx context.Context, gameID string) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.GetGame", attribute.String("game.id", gameID))
	defer span.End()

	return s.loadGame(ctx, gameID)
}

func (s *GameService) ListGames(ctx context.Context, input ListGamesInput) ([]game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ListGames")
	defer span.End()

	var status game.Status
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status = game.Status(strings.ToLower(raw))
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown game status %q", ErrInvalidInput, raw)
		}
	}

	items, err := s.games.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if status == "" {
		return items, nil
	}

	out := make([]game.Game, 0, len(items))
	for _, item := range items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

// UpdateGame edits a game that has not been drawn yet.
func (s *GameService) UpdateGame(ctx context.Context, input UpdateGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.UpdateGame", attribute.String("game.id", input.GameID))
	defer span.End()

	gameID := strings.TrimSpace(input.GameID)
	if gameID == "" {
		return game.Game{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(gameID)
	defer unlock()

	current, err := s.loadGame(ctx, gameID)
	if err != nil {
		return game.Game{}, err
	}
	if current.Status != game.StatusPending {
		return game.Game{}, fmt.Errorf("%w: game %s is %s and can no longer be edited", game.ErrInvalidStateTransition, gameID, current.Status)
	}

	draft, err := s.buildGame(ctx, input.CreateGameInput)
	if err != nil {
		return game.Game{}, err
	}
	draft.ID = current.ID
	draft.Status = game.StatusPending
	draft.CreatedAt = current.CreatedAt
	draft.UpdatedAt = s.now().UTC()
	if err := draft.ValidateBasic(); err != nil {
		return game.Game{}, invalidGame(err)
	}

	if err := s.games.UpdatePending(ctx, draft); err != nil {
		return game.Game{}, mapGameStoreError("update game", err)
	}
	return draft, nil
}

func (s *GameService) DeleteGame(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.DeleteGame", attribute.String("game.id", gameID))
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(gameID)
	defer unlock()

	if err := s.games.Delete(ctx, gameID); err != nil {
		return mapGameStoreError("delete game", err)
	}
	s.logger.InfoContext(ctx, "game deleted", "game_id", gameID)
	return nil
}

// RunAssignment draws the game and moves it from pending to active. The
// returned set is for the organizer only.
func (s *GameService) RunAssignment(ctx context.Context, gameID string) ([]game.Assignment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.RunAssignment")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	span.SetAttributes(attribute.String("game.id", gameID))

	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := game.ValidateTransition(g.Status, game.StatusActive); err != nil {
		return nil, err
	}
	if len(g.ParticipantIDs) < game.MinParticipants {
		return nil, fmt.Errorf("%w: need at least %d, got %d", game.ErrInsufficientParticipants, game.MinParticipants, len(g.ParticipantIDs))
	}

	people, err := s.snapshot(ctx, g.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	pairs, err := matching.Assign(people, g.Mode, s.drawOpts...)
	if err != nil {
		if errors.Is(err, matching.ErrInvalidParticipants) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("draw assignments: %w", err)
	}

	names := make(map[string]string, len(people))
	for _, p := range people {
		names[p.ID] = p.Name
	}
	now := s.now().UTC()
	records := make([]game.Assignment, 0, len(pairs))
	for _, pair := range pairs {
		assignmentID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate assignment id: %w", err)
		}
		records = append(records, game.Assignment{
			ID:           assignmentID,
			GameID:       g.ID,
			GiverID:      pair.GiverID,
			ReceiverID:   pair.ReceiverID,
			GiverName:    names[pair.GiverID],
			ReceiverName: names[pair.ReceiverID],
			CreatedAt:    now,
		})
	}

	// Once the write starts it must finish or roll back on its own.
	if err := s.games.Activate(context.WithoutCancel(ctx), g.ID, records); err != nil {
		s.logger.WarnContext(ctx, "activate game failed", "game_id", g.ID, "error", err)
		return nil, mapGameStoreError("activate game", err)
	}

	s.logger.InfoContext(ctx, "game activated", "game_id", g.ID, "mode", g.Mode, "assignment_count", len(records))
	s.scheduleCompletion(ctx, g)
	return records, nil
}

// scheduleCompletion is best effort; the draw already succeeded and the
// internal job endpoint can still be triggered by hand.
func (s *GameService) scheduleCompletion(ctx context.Context, g game.Game) {
	if s.scheduler == nil || g.Mode != game.ModeClassic || g.DeliveryDate == nil {
		return
	}
	runAt := g.DeliveryDate.UTC().AddDate(0, 0, 1)
	if err := s.scheduler.ScheduleCompletionSweep(ctx, runAt); err != nil {
		s.logger.WarnContext(ctx, "schedule completion sweep failed", "game_id", g.ID, "run_at", runAt.Format(time.RFC3339), "error", err)
		return
	}
	s.logger.InfoContext(ctx, "completion sweep scheduled", "game_id", g.ID, "run_at", runAt.Format(time.RFC3339))
}

// GetAssignmentFor reveals the receiver of one giver and nothing else.
func (s *GameService) GetAssignmentFor(ctx context.Context, gameID, participantID string) (game.Assignment, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.GetAssignmentFor", attribute.String("game.id", gameID), attribute.String("participant.id", participantID))
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return game.Assignment{}, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}

	g, err := s.loadGame(ctx, gameID)
	if err != nil {
		return game.Assignment{}, err
	}
	if !g.Status.AssignmentsVisible() {
		return game.Assignment{}, fmt.Errorf("%w: game %s is %s", game.ErrAssignmentsNotYetAvailable, g.ID, g.Status)
	}
	if !g.HasParticipant(participantID) {
		return game.Assignment{}, fmt.Errorf("%w: %s is not part of game %s", game.ErrUnknownParticipant, participantID, g.ID)
	}

	item, exists, err := s.games.GetAssignmentByGiver(ctx, g.ID, participantID)
	if err != nil {
		return game.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	if !exists {
		// An active game always carries one record per participant.
		return game.Assignment{}, fmt.Errorf("assignment missing for giver %s in game %s", participantID, g.ID)
	}
	return item, nil
}

// ExportAssignments returns the full set sorted by giver name.
func (s *GameService) ExportAssignments(ctx context.Context, gameID string) (Export, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ExportAssignments", attribute.String("game.id", gameID))
	defer span.End()

	g, err := s.loadGame(ctx, gameID)
	if err != nil {
		return Export{}, err
	}
	if !g.Status.AssignmentsVisible() {
		return Export{}, fmt.Errorf("%w: game %s is %s", game.ErrAssignmentsNotYetAvailable, g.ID, g.Status)
	}

	items, err := s.games.ListAssignments(ctx, g.ID)
	if err != nil {
		return Export{}, fmt.Errorf("list assignments: %w", err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].GiverName != items[j].GiverName {
			return items[i].GiverName < items[j].GiverName
		}
		return items[i].GiverID < items[j].GiverID
	})

	s.logger.InfoContext(ctx, "assignments exported", "game_id", g.ID, "assignment_count", len(items))
	return Export{Game: g, Assignments: items, GeneratedAt: s.now().UTC()}, nil
}

// CompleteGame closes an active game.
func (s *GameService) CompleteGame(ctx context.Context, gameID string) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.CompleteGame", attribute.String("game.id", gameID))
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Game{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.loadGame(ctx, gameID)
	if err != nil {
		return game.Game{}, err
	}
	if err := game.ValidateTransition(g.Status, game.StatusCompleted); err != nil {
		return game.Game{}, err
	}
	if err := s.games.TransitionStatus(ctx, g.ID, game.StatusActive, game.StatusCompleted); err != nil {
		return game.Game{}, mapGameStoreError("complete game", err)
	}

	g.Status = game.StatusCompleted
	g.UpdatedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "game completed", "game_id", g.ID)
	return g, nil
}

// ListUpcomingBirthdays lists the participants of a birthday game whose next
// birthday falls inside window, soonest first.
func (s *GameService) ListUpcomingBirthdays(ctx context.Context, gameID string, window time.Duration) ([]UpcomingBirthday, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.ListUpcomingBirthdays", attribute.String("game.id", gameID))
	defer span.End()

	if window <= 0 {
		window = defaultBirthdayWindow
	}
	if window > maxBirthdayWindow {
		return nil, fmt.Errorf("%w: window cannot exceed 366 days", ErrInvalidInput)
	}

	g, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Mode != game.ModeBirthday {
		return nil, fmt.Errorf("%w: upcoming birthdays are only tracked for birthday games", ErrInvalidInput)
	}

	people, err := s.snapshot(ctx, g.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	limit := today.Add(window)
	out := make([]UpcomingBirthday, 0, len(people))
	for _, p := range people {
		next, ok := p.NextBirthday(now)
		if !ok || next.After(limit) {
			continue
		}
		out = append(out, UpcomingBirthday{
			Participant:  p,
			NextBirthday: next,
			DaysUntil:    int(next.Sub(today).Hours() / 24),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].NextBirthday.Equal(out[j].NextBirthday) {
			return out[i].NextBirthday.Before(out[j].NextBirthday)
		}
		return out[i].Participant.Name < out[j].Participant.Name
	})
	return out, nil
}

func (s *GameService) buildGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return game.Game{}, fmt.Errorf("%w: game name is required", ErrInvalidInput)
	}
	mode, err := game.ParseMode(input.Mode)
	if err != nil {
		return game.Game{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var delivery *time.Time
	rawDate := strings.TrimSpace(input.DeliveryDate)
	switch {
	case mode == game.ModeClassic && rawDate == "":
		return game.Game{}, fmt.Errorf("%w: delivery date is required for classic games", ErrInvalidInput)
	case mode == game.ModeBirthday && rawDate != "":
		return game.Game{}, fmt.Errorf("%w: birthday games do not take a delivery date", ErrInvalidInput)
	case rawDate != "":
		parsed, err := time.Parse(participant.DateLayout, rawDate)
		if err != nil {
			return game.Game{}, fmt.Errorf("%w: delivery date must use YYYY-MM-DD", ErrInvalidInput)
		}
		delivery = &parsed
	}

	ids := make([]string, 0, len(input.ParticipantIDs))
	seen := make(map[string]struct{}, len(input.ParticipantIDs))
	for _, raw := range input.ParticipantIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return game.Game{}, fmt.Errorf("%w: participant id cannot be empty", ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return game.Game{}, fmt.Errorf("%w: participant %s is listed twice", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < game.MinParticipants {
		return game.Game{}, fmt.Errorf("%w: need at least %d, got %d", game.ErrInsufficientParticipants, game.MinParticipants, len(ids))
	}

	if _, err := s.registry.GetByIDs(ctx, ids); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			return game.Game{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return game.Game{}, fmt.Errorf("%w: participant registry: %v", ErrDependencyUnavailable, err)
	}

	return game.Game{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Mode:           mode,
		DeliveryDate:   delivery,
		ParticipantIDs: ids,
	}, nil
}

// snapshot reads the registry once and returns participants in ids order.
func (s *GameService) snapshot(ctx context.Context, ids []string) ([]participant.Participant, error) {
	items, err := s.registry.GetByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: participant registry: %v", ErrDependencyUnavailable, err)
	}

	byID := make(map[string]participant.Participant, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]participant.Participant, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: participant %s", ErrNotFound, id)
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *GameService) loadGame(ctx context.Context, gameID string) (game.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Game{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	g, exists, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game: %w", err)
	}
	if !exists {
		return game.Game{}, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return g, nil
}

func invalidGame(err error) error {
	if errors.Is(err, game.ErrInsufficientParticipants) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func mapGameStoreError(op string, err error) error {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, game.ErrInvalidStateTransition):
		return err
	case errors.Is(err, game.ErrAssignmentConflict):
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
