package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	qb "github.com/riskibarqy/gift-exchange/internal/platform/querybuilder"
)

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, p participant.Participant) error {
	query, args, err := qb.InsertModel("participants", participantToInsert(p), "")
	if err != nil {
		return fmt.Errorf("build create participant query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) Update(ctx context.Context, p participant.Participant) error {
	query, args, err := qb.Update("participants").
		Set("name", p.Name).
		Set("email", p.Email).
		Set("birth_date", dateOnly(p.BirthDate)).
		Set("updated_at", p.UpdatedAt).
		Where(qb.Eq("public_id", p.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update participant query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update participant: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", participant.ErrNotFound, p.ID)
	}
	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	query, args, err := qb.DeleteFrom("participants").Where(qb.Eq("public_id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete participant query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete participant: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", participant.ErrNotFound, id)
	}
	return nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (participant.Participant, bool, error) {
	query, args, err := qb.Select(participantColumns...).
		From("participants").
		Where(qb.Eq("public_id", id)).
		ToSQL()
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("build get participant query: %w", err)
	}

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get participant: %w", err)
	}
	return participantFromRow(row), true, nil
}

// GetByIDs returns participants in the order of ids.
func (r *ParticipantRepository) GetByIDs(ctx context.Context, ids []string) ([]participant.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select(participantColumns...).
		From("participants").
		Where(qb.InStrings("public_id", ids)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get participants by ids query: %w", err)
	}

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get participants by ids: %w", err)
	}

	byID := make(map[string]participantTableModel, len(rows))
	for _, row := range rows {
		byID[row.PublicID] = row
	}
	out := make([]participant.Participant, 0, len(ids))
	var missing []string
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, participantFromRow(row))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", participant.ErrNotFound, missing)
	}
	return out, nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]participant.Participant, error) {
	query, args, err := qb.Select(participantColumns...).
		From("participants").
		OrderBy("name", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]participant.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, participantFromRow(row))
	}
	return out, nil
}
