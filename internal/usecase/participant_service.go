package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	idgen "github.com/riskibarqy/gift-exchange/internal/platform/id"
	"go.opentelemetry.io/otel/attribute"
)

type CreateParticipantInput struct {
	Name      string
	Email     string
	BirthDate string
}

type UpdateParticipantInput struct {
	ParticipantID string
	CreateParticipantInput
}

type ParticipantService struct {
	repo     participant.Repository
	games    game.Repository
	idGen    idgen.Generator
	validate *validator.Validate
	now      func() time.Time
}

func NewParticipantService(repo participant.Repository, games game.Repository, idGen idgen.Generator) *ParticipantService {
	return &ParticipantService{
		repo:     repo,
		games:    games,
		idGen:    idGen,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

func (s *ParticipantService) CreateParticipant(ctx context.Context, input CreateParticipantInput) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.CreateParticipant")
	defer span.End()

	item, err := s.normalize(input)
	if err != nil {
		return participant.Participant{}, err
	}

	participantID, err := s.idGen.NewID()
	if err != nil {
		return participant.Participant{}, fmt.Errorf("generate participant id: %w", err)
	}
	now := s.now().UTC()
	item.ID = participantID
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.repo.Create(ctx, item); err != nil {
		return participant.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return item, nil
}

func (s *ParticipantService) GetParticipant(ctx context.Context, participantID string) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.GetParticipant")
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return participant.Participant{}, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}

	item, exists, err := s.repo.GetByID(ctx, participantID)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	if !exists {
		return participant.Participant{}, fmt.Errorf("%w: participant %s", ErrNotFound, participantID)
	}
	return item, nil
}

func (s *ParticipantService) ListParticipants(ctx context.Context) ([]participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.ListParticipants")
	defer span.End()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return items, nil
}

// UpdateParticipant edits registry data. Assignments already drawn keep the
// names captured at draw time.
func (s *ParticipantService) UpdateParticipant(ctx context.Context, input UpdateParticipantInput) (participant.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.UpdateParticipant")
	defer span.End()

	current, err := s.GetParticipant(ctx, input.ParticipantID)
	if err != nil {
		return participant.Participant{}, err
	}

	item, err := s.normalize(input.CreateParticipantInput)
	if err != nil {
		return participant.Participant{}, err
	}
	item.ID = current.ID
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, item); err != nil {
		return participant.Participant{}, fmt.Errorf("update participant: %w", err)
	}
	return item, nil
}

// DeleteParticipant removes a participant who is not part of any pending
// game. Drawn games keep their own participant list and name snapshots, so
// they do not block the delete.
func (s *ParticipantService) DeleteParticipant(ctx context.Context, participantID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ParticipantService.DeleteParticipant",
		attribute.String("participant.id", participantID))
	defer span.End()

	current, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}

	pending, err := s.games.ListPendingIDsByParticipant(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("list pending games for participant: %w", err)
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: participant %s is in pending games %s", ErrConflict, current.ID, strings.Join(pending, ","))
	}

	if err := s.repo.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			return fmt.Errorf("%w: participant %s", ErrNotFound, current.ID)
		}
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

func (s *ParticipantService) normalize(input CreateParticipantInput) (participant.Participant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return participant.Participant{}, fmt.Errorf("%w: participant name is required", ErrInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return participant.Participant{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	var birthDate *time.Time
	if raw := strings.TrimSpace(input.BirthDate); raw != "" {
		parsed, err := time.Parse(participant.DateLayout, raw)
		if err != nil {
			return participant.Participant{}, fmt.Errorf("%w: birth date must use YYYY-MM-DD", ErrInvalidInput)
		}
		if parsed.After(s.now().UTC()) {
			return participant.Participant{}, fmt.Errorf("%w: birth date cannot be in the future", ErrInvalidInput)
		}
		birthDate = &parsed
	}

	return participant.Participant{
		Name:      name,
		Email:     email,
		BirthDate: birthDate,
	}, nil
}
