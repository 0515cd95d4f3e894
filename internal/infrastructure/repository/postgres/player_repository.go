package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/player"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Create(ctx context.Context, p player.Player) error {
	query, args, err := qb.InsertModel("players", playerRowFrom(p), "")
	if err != nil {
		return errors.Wrap(err, "build insert player query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert player")
	}
	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("id", playerID))
}

func (r *PlayerRepository) GetByPhone(ctx context.Context, phone string) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("phone", phone))
}

func (r *PlayerRepository) getOne(ctx context.Context, cond qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select(playerColumns...).From("players").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return player.Player{}, false, errors.Wrap(err, "build select player query")
	}

	var row playerRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, classify(err, "select player")
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) List(ctx context.Context, filter player.ListFilter) ([]player.Player, error) {
	b := qb.Select(playerColumns...).From("players").OrderBy("name ASC", "id ASC").Limit(filter.Limit).Offset(filter.Offset)
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		b = b.Where(qb.Expr("(name ILIKE ? OR nickname ILIKE ?)", pattern, pattern))
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list players query")
	}

	var rows []playerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list players")
	}
	return playerRowsToDomain(rows), nil
}

func (r *PlayerRepository) ListByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}
	query, args, err := qb.Select(playerColumns...).From("players").Where(qb.In("id", playerIDs)).OrderBy("id").ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build select players by ids query")
	}

	var rows []playerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "select players by ids")
	}
	return playerRowsToDomain(rows), nil
}

func (r *PlayerRepository) UpdateContact(ctx context.Context, playerID string, contact player.Contact, updatedAt time.Time) (player.Player, error) {
	query, args, err := qb.Update("players").
		Set("name", contact.Name).
		Set("nickname", contact.Nickname).
		Set("phone", contact.Phone).
		Set("updated_at", updatedAt).
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, errors.Wrap(err, "build update player query")
	}

	var row playerRow
	if err := r.db.GetContext(ctx, &row, query+" RETURNING "+strings.Join(playerColumns, ", "), args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, errors.Wrapf(entitystore.ErrNotFound, "player %s", playerID)
		}
		return player.Player{}, classify(err, "update player")
	}
	return row.toDomain(), nil
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID string) error {
	query, args, err := qb.DeleteFrom("players").Where(qb.Eq("id", playerID)).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build delete player query")
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	return expectAffected(res, err, "delete player", errors.Wrapf(entitystore.ErrNotFound, "player %s", playerID))
}

func playerRowsToDomain(rows []playerRow) []player.Player {
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
