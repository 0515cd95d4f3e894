package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Create(ctx context.Context, t tournament.Tournament) error {
	query, args, err := qb.InsertModel("tournaments", tournamentRowFrom(t), "")
	if err != nil {
		return errors.Wrap(err, "build insert tournament query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert tournament")
	}
	return nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select(tournamentColumns...).From("tournaments").Where(qb.Eq("id", tournamentID)).ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, errors.Wrap(err, "build select tournament query")
	}

	var row tournamentRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, classify(err, "select tournament")
	}
	return row.toDomain(), true, nil
}

func (r *TournamentRepository) List(ctx context.Context, status tournament.Status) ([]tournament.Tournament, error) {
	b := qb.Select(tournamentColumns...).From("tournaments").OrderBy("start_date ASC", "id ASC")
	if status != "" {
		b = b.Where(qb.Eq("status", string(status)))
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list tournaments query")
	}

	var rows []tournamentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list tournaments")
	}
	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TournamentRepository) ListParticipants(ctx context.Context, tournamentID string) ([]tournament.Participant, error) {
	query, args, err := qb.Select(participantColumns...).
		From("tournament_participants").
		Where(qb.Eq("tournament_id", tournamentID)).
		OrderBy("joined_at ASC", "player_id ASC").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list participants query")
	}

	var rows []participantRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list participants")
	}
	out := make([]tournament.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournament.Participant{
			TournamentID: row.TournamentID,
			PlayerID:     row.PlayerID,
			JoinedAt:     row.JoinedAt.UTC(),
		})
	}
	return out, nil
}

func (r *TournamentRepository) Join(ctx context.Context, p tournament.Participant) (tournament.Tournament, error) {
	var joined tournament.Tournament
	err := inTx(ctx, r.db, "join tournament", func(tx *sqlx.Tx) error {
		lockQuery, lockArgs, err := qb.Select(tournamentColumns...).From("tournaments").Where(qb.Eq("id", p.TournamentID)).ForUpdate().ToSQL()
		if err != nil {
			return errors.Wrap(err, "build lock tournament query")
		}
		var row tournamentRow
		if err := tx.GetContext(ctx, &row, lockQuery, lockArgs...); err != nil {
			if isNotFound(err) {
				return errors.Wrapf(entitystore.ErrNotFound, "tournament %s", p.TournamentID)
			}
			return classify(err, "lock tournament")
		}

		existsQuery, existsArgs, err := qb.Select("COUNT(*)").
			From("tournament_participants").
			Where(qb.Eq("tournament_id", p.TournamentID), qb.Eq("player_id", p.PlayerID)).
			ToSQL()
		if err != nil {
			return errors.Wrap(err, "build select participant query")
		}
		var existing int
		if err := tx.GetContext(ctx, &existing, existsQuery, existsArgs...); err != nil {
			return classify(err, "select participant")
		}
		if existing > 0 {
			return errors.Wrapf(entitystore.ErrDuplicate, "participant %s::%s", p.TournamentID, p.PlayerID)
		}

		joined = row.toDomain()
		if err := joined.CanJoin(); err != nil {
			return err
		}

		insertQuery, insertArgs, err := qb.InsertModel("tournament_participants", participantRow{
			TournamentID: p.TournamentID,
			PlayerID:     p.PlayerID,
			JoinedAt:     p.JoinedAt,
		}, "")
		if err != nil {
			return errors.Wrap(err, "build insert participant query")
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return classify(err, "insert participant")
		}

		countQuery, countArgs, err := qb.Update("tournaments").
			SetExpr("current_participants", "current_participants + ?", 1).
			Where(qb.Eq("id", p.TournamentID)).
			ToSQL()
		if err != nil {
			return errors.Wrap(err, "build bump participants query")
		}
		if _, err := tx.ExecContext(ctx, countQuery, countArgs...); err != nil {
			return classify(err, "bump participants")
		}
		joined.CurrentParticipants++
		return nil
	})
	if err != nil {
		return tournament.Tournament{}, err
	}
	return joined, nil
}
