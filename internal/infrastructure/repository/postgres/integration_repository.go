package postgres

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type IntegrationRepository struct {
	db *sqlx.DB
}

func NewIntegrationRepository(db *sqlx.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

func (r *IntegrationRepository) Enqueue(ctx context.Context, t integration.Task) error {
	query, args, err := qb.InsertModel("integration_tasks", taskRowFrom(t), "")
	if err != nil {
		return errors.Wrap(err, "build insert integration task query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert integration task")
	}
	return nil
}

// ClaimDue pushes next_attempt_at of the claimed rows to now+lease in the same
// statement that selects them. SKIP LOCKED keeps concurrent claimers apart.
func (r *IntegrationRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]integration.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := qb.Update("integration_tasks").
		Set("next_attempt_at", now.Add(lease)).
		Where(qb.Expr(
			"id IN (SELECT id FROM integration_tasks WHERE status = ? AND next_attempt_at <= ? ORDER BY next_attempt_at ASC, id ASC LIMIT ? FOR UPDATE SKIP LOCKED)",
			string(integration.StatusPending), now, limit,
		)).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build claim integration tasks query")
	}

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query+" RETURNING "+strings.Join(taskColumns, ", "), args...); err != nil {
		return nil, classify(err, "claim integration tasks")
	}
	return tasksToDomain(rows), nil
}

func (r *IntegrationRepository) Save(ctx context.Context, t integration.Task) error {
	query, args, err := qb.Update("integration_tasks").
		Set("status", string(t.Status)).
		Set("attempts", t.Attempts).
		Set("last_error", t.LastError).
		Set("next_attempt_at", t.NextAttemptAt).
		Set("updated_at", t.UpdatedAt).
		Set("group_ref", t.GroupRef).
		Where(qb.Eq("id", t.ID)).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build save integration task query")
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	return expectAffected(res, err, "save integration task", errors.Wrapf(entitystore.ErrNotFound, "integration task %s", t.ID))
}

func (r *IntegrationRepository) ListByCommunity(ctx context.Context, communityID string) ([]integration.Task, error) {
	query, args, err := qb.Select(taskColumns...).
		From("integration_tasks").
		Where(qb.Eq("community_id", communityID)).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list integration tasks query")
	}

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list integration tasks")
	}
	return tasksToDomain(rows), nil
}

func tasksToDomain(rows []taskRow) []integration.Task {
	out := make([]integration.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	// RETURNING does not keep the sub-select order.
	slices.SortFunc(out, func(a, b integration.Task) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
