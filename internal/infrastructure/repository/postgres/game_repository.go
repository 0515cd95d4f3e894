package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/game"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Create(ctx context.Context, g game.Game) error {
	query, args, err := qb.InsertModel("games", gameRowFrom(g), "")
	if err != nil {
		return errors.Wrap(err, "build insert game query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert game")
	}
	return nil
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select(gameColumns...).From("games").Where(qb.Eq("id", gameID)).ToSQL()
	if err != nil {
		return game.Game{}, false, errors.Wrap(err, "build select game query")
	}

	var row gameRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, classify(err, "select game")
	}
	return row.toDomain(), true, nil
}

func (r *GameRepository) ListByCompetition(ctx context.Context, competitionID string) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).
		From("games").
		Where(qb.Eq("competition_id", competitionID)).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list games query")
	}

	var rows []gameRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list games")
	}
	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *GameRepository) ListMatches(ctx context.Context, gameID string) ([]game.Match, error) {
	return listMatches(ctx, r.db, gameID)
}

func (r *GameRepository) CountUnfinished(ctx context.Context, competitionID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").
		From("games").
		Where(qb.Eq("competition_id", competitionID), qb.NotEq("status", string(game.StatusFinished))).
		ToSQL()
	if err != nil {
		return 0, errors.Wrap(err, "build count unfinished games query")
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, classify(err, "count unfinished games")
	}
	return count, nil
}

// Apply locks the game row with SELECT ... FOR UPDATE, so concurrent
// transitions on one game run one after another and each sees every match
// committed before it.
func (r *GameRepository) Apply(ctx context.Context, gameID string, fn game.TransitionFunc) (game.Transition, error) {
	var result game.Transition
	err := inTx(ctx, r.db, "apply game transition", func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := qb.Select(gameColumns...).From("games").Where(qb.Eq("id", gameID)).ForUpdate().ToSQL()
		if err != nil {
			return errors.Wrap(err, "build lock game query")
		}
		var row gameRow
		if err := tx.GetContext(ctx, &row, lockQuery, lockArgs...); err != nil {
			if isNotFound(err) {
				return errors.Wrapf(entitystore.ErrNotFound, "game %s", gameID)
			}
			return classify(err, "lock game")
		}

		matches, err := listMatches(ctx, tx, gameID)
		if err != nil {
			return err
		}

		result, err = fn(row.toDomain(), matches)
		if err != nil {
			return err
		}
		if result.Game.ID != gameID {
			return errors.Newf("transition changed game id from %s to %s", gameID, result.Game.ID)
		}

		if m := result.Match; m != nil {
			insertQuery, insertArgs, err := qb.InsertModel("matches", matchRow{
				ID:           m.ID,
				GameID:       gameID,
				Player1Score: m.Player1Score,
				Player2Score: m.Player2Score,
				Notes:        m.Notes,
				CreatedAt:    m.CreatedAt,
			}, "")
			if err != nil {
				return errors.Wrap(err, "build insert match query")
			}
			if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
				return classify(err, "insert match")
			}
		}

		g := result.Game
		updateQuery, updateArgs, err := qb.Update("games").
			Set("player1_score", g.Player1Score).
			Set("player2_score", g.Player2Score).
			Set("status", string(g.Status)).
			Set("winner_id", g.WinnerID).
			Set("updated_at", g.UpdatedAt).
			Set("finished_at", g.FinishedAt).
			Where(qb.Eq("id", gameID)).
			ToSQL()
		if err != nil {
			return errors.Wrap(err, "build update game query")
		}
		if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
			return classify(err, "update game")
		}
		return nil
	})
	if err != nil {
		return game.Transition{}, err
	}
	return result, nil
}

func listMatches(ctx context.Context, q sqlx.QueryerContext, gameID string) ([]game.Match, error) {
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(qb.Eq("game_id", gameID)).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list matches query")
	}

	var rows []matchRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, classify(err, "list matches")
	}
	out := make([]game.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
