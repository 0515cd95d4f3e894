package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type CommunityRepository struct {
	db *sqlx.DB
}

func NewCommunityRepository(db *sqlx.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

var memberSelectColumns = []string{
	"m.id",
	"m.community_id",
	"m.player_id",
	"m.role",
	"m.created_by",
	"m.created_at",
	"p.name AS player_name",
	"p.nickname AS player_nickname",
	"p.phone AS player_phone",
	"p.created_by AS player_created_by",
	"p.created_at AS player_created_at",
	"p.updated_at AS player_updated_at",
}

func (r *CommunityRepository) Create(ctx context.Context, c community.Community) error {
	query, args, err := qb.InsertModel("communities", communityRowFrom(c), "")
	if err != nil {
		return errors.Wrap(err, "build insert community query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert community")
	}
	return nil
}

func (r *CommunityRepository) GetByID(ctx context.Context, communityID string) (community.Community, bool, error) {
	query, args, err := qb.Select(communityColumns...).From("communities").Where(qb.Eq("id", communityID)).ToSQL()
	if err != nil {
		return community.Community{}, false, errors.Wrap(err, "build select community query")
	}

	var row communityRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return community.Community{}, false, nil
		}
		return community.Community{}, false, classify(err, "select community")
	}
	return row.toDomain(), true, nil
}

func (r *CommunityRepository) List(ctx context.Context) ([]community.Community, error) {
	query, args, err := qb.Select(communityColumns...).From("communities").OrderBy("name ASC", "id ASC").ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list communities query")
	}

	var rows []communityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list communities")
	}
	return communityRowsToDomain(rows), nil
}

func (r *CommunityRepository) Update(ctx context.Context, communityID string, details community.Details, updatedAt time.Time) (community.Community, error) {
	return r.updateReturning(ctx, communityID, "update community", qb.Update("communities").
		Set("name", details.Name).
		Set("description", details.Description).
		Set("location", details.Location).
		Set("updated_at", updatedAt))
}

func (r *CommunityRepository) AttachExternalGroup(ctx context.Context, communityID, groupRef string, updatedAt time.Time) (community.Community, error) {
	return r.updateReturning(ctx, communityID, "attach community group", qb.Update("communities").
		Set("whatsapp_group_id", groupRef).
		Set("updated_at", updatedAt))
}

func (r *CommunityRepository) updateReturning(ctx context.Context, communityID, op string, b *qb.UpdateBuilder) (community.Community, error) {
	query, args, err := b.Where(qb.Eq("id", communityID)).ToSQL()
	if err != nil {
		return community.Community{}, errors.Wrapf(err, "build %s query", op)
	}

	var row communityRow
	if err := r.db.GetContext(ctx, &row, query+" RETURNING "+strings.Join(communityColumns, ", "), args...); err != nil {
		if isNotFound(err) {
			return community.Community{}, errors.Wrapf(entitystore.ErrNotFound, "community %s", communityID)
		}
		return community.Community{}, classify(err, op)
	}
	return row.toDomain(), nil
}

// Delete relies on the schema: memberships and integration tasks cascade,
// competitions restrict.
func (r *CommunityRepository) Delete(ctx context.Context, communityID string) error {
	query, args, err := qb.DeleteFrom("communities").Where(qb.Eq("id", communityID)).ToSQL()
	if err != nil {
		return errors.Wrap(err, "build delete community query")
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	return expectAffected(res, err, "delete community", errors.Wrapf(entitystore.ErrNotFound, "community %s", communityID))
}

func (r *CommunityRepository) AddMember(ctx context.Context, m community.Membership) error {
	query, args, err := qb.InsertModel("community_members", membershipRow{
		ID:          m.ID,
		CommunityID: m.CommunityID,
		PlayerID:    m.PlayerID,
		Role:        string(m.Role),
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}, "")
	if err != nil {
		return errors.Wrap(err, "build insert community member query")
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "insert community member")
	}
	return nil
}

func (r *CommunityRepository) RemoveMember(ctx context.Context, communityID, playerID string) error {
	query, args, err := qb.DeleteFrom("community_members").
		Where(qb.Eq("community_id", communityID), qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return errors.Wrap(err, "build delete community member query")
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	return expectAffected(res, err, "delete community member",
		errors.Wrapf(entitystore.ErrNotFound, "membership %s::%s", communityID, playerID))
}

func (r *CommunityRepository) GetMember(ctx context.Context, communityID, playerID string) (community.Membership, bool, error) {
	query, args, err := qb.Select(membershipColumns...).
		From("community_members").
		Where(qb.Eq("community_id", communityID), qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return community.Membership{}, false, errors.Wrap(err, "build select community member query")
	}

	var row membershipRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return community.Membership{}, false, nil
		}
		return community.Membership{}, false, classify(err, "select community member")
	}
	return row.toDomain(), true, nil
}

func (r *CommunityRepository) ListMembers(ctx context.Context, communityID string) ([]community.Member, error) {
	query, args, err := qb.Select(memberSelectColumns...).
		From("community_members m JOIN players p ON p.id = m.player_id").
		Where(qb.Eq("m.community_id", communityID)).
		OrderBy("m.created_at ASC", "m.player_id ASC").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list community members query")
	}

	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list community members")
	}
	out := make([]community.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *CommunityRepository) ListCommunitiesOfPlayer(ctx context.Context, playerID string) ([]community.Community, error) {
	columns := make([]string, 0, len(communityColumns))
	for _, c := range communityColumns {
		columns = append(columns, "c."+c)
	}
	query, args, err := qb.Select(columns...).
		From("communities c JOIN community_members m ON m.community_id = c.id").
		Where(qb.Eq("m.player_id", playerID)).
		OrderBy("c.name ASC", "c.id ASC").
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list communities of player query")
	}

	var rows []communityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "list communities of player")
	}
	return communityRowsToDomain(rows), nil
}

func communityRowsToDomain(rows []communityRow) []community.Community {
	out := make([]community.Community, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
