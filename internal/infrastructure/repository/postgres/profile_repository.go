package postgres

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/profile"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type ProfileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, profileID string) (profile.Profile, bool, error) {
	query, args, err := qb.Select(profileColumns...).From("profiles").Where(qb.Eq("id", profileID)).ToSQL()
	if err != nil {
		return profile.Profile{}, false, errors.Wrap(err, "build select profile query")
	}

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, false, nil
		}
		return profile.Profile{}, false, classify(err, "select profile")
	}
	return row.toDomain(), true, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p profile.Profile) error {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	query, args, err := qb.InsertModel("profiles", profileRow{
		ID:        p.ID,
		Name:      p.Name,
		Nickname:  p.Nickname,
		Phone:     p.Phone,
		Roles:     pq.StringArray(roles),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, "")
	if err != nil {
		return errors.Wrap(err, "build insert profile query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert profile")
	}
	return nil
}

// Update writes the self-service fields; roles are managed out of band.
func (r *ProfileRepository) Update(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	query, args, err := qb.Update("profiles").
		Set("name", p.Name).
		Set("nickname", p.Nickname).
		Set("phone", p.Phone).
		Set("updated_at", p.UpdatedAt).
		Where(qb.Eq("id", p.ID)).
		ToSQL()
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "build update profile query")
	}

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query+" RETURNING "+strings.Join(profileColumns, ", "), args...); err != nil {
		if isNotFound(err) {
			return profile.Profile{}, errors.Wrapf(entitystore.ErrNotFound, "profile %s", p.ID)
		}
		return profile.Profile{}, classify(err, "update profile")
	}
	return row.toDomain(), nil
}
