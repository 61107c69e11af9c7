package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	qb "github.com/riskibarqy/gift-exchange/internal/platform/querybuilder"
)

// GameRepository stores games, their ordered participant lists and the
// assignment set. Activate locks the game row and flips the status with a
// compare-and-swap in the same transaction that writes the assignments.
type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create game: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModel("games", gameToInsert(g), "")
	if err != nil {
		return fmt.Errorf("build create game query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create game: duplicate id %s: %w", g.ID, err)
		}
		return fmt.Errorf("create game: %w", err)
	}
	if err := insertGameParticipants(ctx, tx, g.ID, g.ParticipantIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create game tx: %w", err)
	}
	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	row, exists, err := getGameRow(ctx, r.db, gameID, false)
	if err != nil || !exists {
		return game.Game{}, exists, err
	}

	ids, err := listGameParticipantIDs(ctx, r.db, []string{gameID})
	if err != nil {
		return game.Game{}, false, err
	}
	return gameFromRow(row, ids[gameID]), true, nil
}

func (r *GameRepository) List(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}
	return r.selectGames(ctx, query, args)
}

func (r *GameRepository) ListActiveClassicDueBefore(ctx context.Context, day time.Time) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(
			qb.Eq("status", string(game.StatusActive)),
			qb.Eq("mode", string(game.ModeClassic)),
			qb.Expr("delivery_date < ?", day),
		).
		OrderBy("delivery_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list due games query: %w", err)
	}
	return r.selectGames(ctx, query, args)
}

func (r *GameRepository) ListPendingIDsByParticipant(ctx context.Context, participantID string) ([]string, error) {
	query, args, err := qb.Select("g.public_id").
		From("games g JOIN game_participants gp ON gp.game_public_id = g.public_id").
		Where(qb.Eq("gp.participant_public_id", participantID), qb.Eq("g.status", string(game.StatusPending))).
		OrderBy("g.public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending games by participant query: %w", err)
	}

	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list pending games by participant: %w", err)
	}
	return ids, nil
}

func (r *GameRepository) UpdatePending(ctx context.Context, g game.Game) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update game: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, exists, err := getGameRow(ctx, tx, g.ID, true)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, g.ID)
	}
	if game.Status(current.Status) != game.StatusPending {
		return fmt.Errorf("%w: game %s is %s", game.ErrInvalidStateTransition, g.ID, current.Status)
	}

	query, args, err := qb.Update("games").
		Set("name", g.Name).
		Set("description", g.Description).
		Set("mode", string(g.Mode)).
		Set("delivery_date", dateOnly(g.DeliveryDate)).
		Set("updated_at", g.UpdatedAt).
		Where(qb.Eq("public_id", g.ID), qb.Eq("status", string(game.StatusPending))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update game: %w", err)
	}

	deleteQuery, deleteArgs, err := qb.DeleteFrom("game_participants").Where(qb.Eq("game_public_id", g.ID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build clear game participants query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("clear game participants: %w", err)
	}
	if err := insertGameParticipants(ctx, tx, g.ID, g.ParticipantIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update game tx: %w", err)
	}
	return nil
}

func (r *GameRepository) Delete(ctx context.Context, gameID string) error {
	query, args, err := qb.DeleteFrom("games").Where(qb.Eq("public_id", gameID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete game query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete game: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	return nil
}

func (r *GameRepository) Activate(ctx context.Context, gameID string, assignments []game.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx activate game: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row, exists, err := getGameRow(ctx, tx, gameID, true)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	if err := game.ValidateTransition(game.Status(row.Status), game.StatusActive); err != nil {
		return err
	}

	ids, err := listGameParticipantIDs(ctx, tx, []string{gameID})
	if err != nil {
		return err
	}
	if err := game.ValidateAssignmentSet(gameFromRow(row, ids[gameID]), assignments); err != nil {
		return err
	}

	insertQuery, insertArgs, err := qb.InsertModels("assignments", assignmentRows(assignments), "")
	if err != nil {
		return fmt.Errorf("build insert assignments query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %v", game.ErrAssignmentConflict, err)
		}
		return fmt.Errorf("insert assignments: %w", err)
	}

	if err := swapStatus(ctx, tx, gameID, game.StatusPending, game.StatusActive); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate game tx: %w", err)
	}
	return nil
}

func (r *GameRepository) TransitionStatus(ctx context.Context, gameID string, from, to game.Status) error {
	if err := game.ValidateTransition(from, to); err != nil {
		return err
	}
	if to == game.StatusActive {
		return fmt.Errorf("%w: activation must go through Activate", game.ErrInvalidStateTransition)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx transition game: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := swapStatus(ctx, tx, gameID, from, to); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition game tx: %w", err)
	}
	return nil
}

func (r *GameRepository) GetAssignmentByGiver(ctx context.Context, gameID, giverID string) (game.Assignment, bool, error) {
	query, args, err := qb.Select(assignmentColumns...).
		From("assignments").
		Where(qb.Eq("game_public_id", gameID), qb.Eq("giver_participant_id", giverID)).
		ToSQL()
	if err != nil {
		return game.Assignment{}, false, fmt.Errorf("build get assignment query: %w", err)
	}

	var row assignmentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Assignment{}, false, nil
		}
		return game.Assignment{}, false, fmt.Errorf("get assignment: %w", err)
	}
	return assignmentFromRow(row), true, nil
}

func (r *GameRepository) ListAssignments(ctx context.Context, gameID string) ([]game.Assignment, error) {
	query, args, err := qb.Select(assignmentColumns...).
		From("assignments").
		Where(qb.Eq("game_public_id", gameID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list assignments query: %w", err)
	}

	var rows []assignmentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	out := make([]game.Assignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, assignmentFromRow(row))
	}
	return out, nil
}

func (r *GameRepository) selectGames(ctx context.Context, query string, args []any) ([]game.Game, error) {
	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	if len(rows) == 0 {
		return []game.Game{}, nil
	}

	gameIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		gameIDs = append(gameIDs, row.PublicID)
	}
	ids, err := listGameParticipantIDs(ctx, r.db, gameIDs)
	if err != nil {
		return nil, err
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row, ids[row.PublicID]))
	}
	return out, nil
}

func getGameRow(ctx context.Context, q sqlx.QueryerContext, gameID string, forUpdate bool) (gameTableModel, bool, error) {
	builder := qb.Select(gameColumns...).From("games").Where(qb.Eq("public_id", gameID))
	if forUpdate {
		builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return gameTableModel{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameTableModel{}, false, nil
		}
		return gameTableModel{}, false, fmt.Errorf("get game: %w", err)
	}
	return row, true, nil
}

func listGameParticipantIDs(ctx context.Context, q sqlx.QueryerContext, gameIDs []string) (map[string][]string, error) {
	query, args, err := qb.Select("game_public_id", "participant_public_id", "position").
		From("game_participants").
		Where(qb.InStrings("game_public_id", gameIDs)).
		OrderBy("game_public_id", "position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list game participants query: %w", err)
	}

	var rows []gameParticipantModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list game participants: %w", err)
	}

	out := make(map[string][]string, len(gameIDs))
	for _, row := range rows {
		out[row.GameID] = append(out[row.GameID], row.ParticipantID)
	}
	return out, nil
}

func insertGameParticipants(ctx context.Context, tx *sqlx.Tx, gameID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := qb.InsertModels("game_participants", gameParticipantRows(gameID, ids), "")
	if err != nil {
		return fmt.Errorf("build insert game participants query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game participants: %w", err)
	}
	return nil
}

// swapStatus moves a game from one status to another only if it still holds
// the expected one.
func swapStatus(ctx context.Context, tx *sqlx.Tx, gameID string, from, to game.Status) error {
	query, args, err := qb.Update("games").
		Set("status", string(to)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", gameID), qb.Eq("status", string(from))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build swap game status query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("swap game status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected swap game status: %w", err)
	}
	if affected == 1 {
		return nil
	}

	row, exists, err := getGameRow(ctx, tx, gameID, false)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	return &game.TransitionError{From: game.Status(row.Status), To: to}
}
