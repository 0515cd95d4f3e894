package postgres

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) Create(ctx context.Context, c competition.Competition) error {
	query, args, err := qb.InsertModel("competitions", competitionRowFrom(c), "")
	if err != nil {
		return errors.Wrap(err, "build insert competition query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert competition")
	}
	return nil
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	query, args, err := qb.Select(competitionColumns...).From("competitions").Where(qb.Eq("id", competitionID)).ToSQL()
	if err != nil {
		return competition.Competition{}, false, errors.Wrap(err, "build select competition query")
	}

	var row competitionRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, classify(err, "select competition")
	}
	return row.toDomain(), true, nil
}

func (r *CompetitionRepository) List(ctx context.Context, filter competition.ListFilter) ([]competition.Competition, error) {
	b := qb.Select(competitionColumns...).From("competitions").OrderBy("start_date DESC", "id ASC")
	if filter.CommunityID != "" {
		b = b.Where(qb.Eq("community_id", filter.CommunityID))
	}
	if filter.Status != "" {
		b = b.Where(qb.Eq("status", string(filter.Status)))
	}
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list competitions query")
	}

	var rows []competitionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list competitions")
	}
	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateStatus is a compare-and-set on status; a lost race surfaces as ErrStale.
func (r *CompetitionRepository) UpdateStatus(ctx context.Context, expected competition.Status, next competition.Competition) (competition.Competition, error) {
	query, args, err := qb.Update("competitions").
		Set("status", string(next.Status)).
		Set("end_date", next.EndDate).
		Set("updated_at", next.UpdatedAt).
		Where(qb.Eq("id", next.ID), qb.Eq("status", string(expected))).
		ToSQL()
	if err != nil {
		return competition.Competition{}, errors.Wrap(err, "build update competition status query")
	}

	var row competitionRow
	err = r.db.GetContext(ctx, &row, query+" RETURNING "+strings.Join(competitionColumns, ", "), args...)
	if err == nil {
		return row.toDomain(), nil
	}
	if !isNotFound(err) {
		return competition.Competition{}, classify(err, "update competition status")
	}

	if _, exists, getErr := r.GetByID(ctx, next.ID); getErr != nil {
		return competition.Competition{}, getErr
	} else if !exists {
		return competition.Competition{}, errors.Wrapf(entitystore.ErrNotFound, "competition %s", next.ID)
	}
	return competition.Competition{}, errors.Wrapf(entitystore.ErrStale, "competition %s is no longer %s", next.ID, expected)
}
