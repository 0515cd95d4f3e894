// Package cache decorates read-heavy repositories with the process-local TTL
// store. Every write through a decorator evicts the keys it can affect.
package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/player"
	basecache "github.com/riskibarqy/domatch/internal/platform/cache"
)

// found is the cached outcome of a GetByID, misses included.
type found[T any] struct {
	value  T
	exists bool
}

func loadOne[T any](ctx context.Context, store *basecache.Store, key string, get func(context.Context) (T, bool, error)) (T, bool, error) {
	v, err := basecache.Load(ctx, store, key, func(ctx context.Context) (found[T], error) {
		item, exists, err := get(ctx)
		if err != nil {
			return found[T]{}, err
		}
		return found[T]{value: item, exists: exists}, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.value, v.exists, nil
}

func loadList[T any](ctx context.Context, store *basecache.Store, key string, list func(context.Context) ([]T, error)) ([]T, error) {
	items, err := basecache.Load(ctx, store, key, func(ctx context.Context) ([]T, error) {
		items, err := list(ctx)
		if err != nil {
			return nil, err
		}
		return append([]T(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]T(nil), items...), nil
}

const (
	communityListKey     = "community:list"
	communityKeyPrefix   = "community:id:"
	competitionKeyPrefix = "competition:id:"
	playerKeyPrefix      = "player:id:"
)

type CommunityRepository struct {
	community.Repository
	cache *basecache.Store
}

func NewCommunityRepository(next community.Repository, cache *basecache.Store) *CommunityRepository {
	return &CommunityRepository{Repository: next, cache: cache}
}

func (r *CommunityRepository) GetByID(ctx context.Context, communityID string) (community.Community, bool, error) {
	return loadOne(ctx, r.cache, communityKeyPrefix+communityID, func(ctx context.Context) (community.Community, bool, error) {
		return r.Repository.GetByID(ctx, communityID)
	})
}

func (r *CommunityRepository) List(ctx context.Context) ([]community.Community, error) {
	return loadList(ctx, r.cache, communityListKey, r.Repository.List)
}

func (r *CommunityRepository) Create(ctx context.Context, c community.Community) error {
	err := r.Repository.Create(ctx, c)
	r.evict(ctx, c.ID)
	return err
}

func (r *CommunityRepository) Update(ctx context.Context, communityID string, details community.Details, updatedAt time.Time) (community.Community, error) {
	c, err := r.Repository.Update(ctx, communityID, details, updatedAt)
	r.evict(ctx, communityID)
	return c, err
}

func (r *CommunityRepository) Delete(ctx context.Context, communityID string) error {
	err := r.Repository.Delete(ctx, communityID)
	r.evict(ctx, communityID)
	return err
}

func (r *CommunityRepository) AttachExternalGroup(ctx context.Context, communityID, groupRef string, updatedAt time.Time) (community.Community, error) {
	c, err := r.Repository.AttachExternalGroup(ctx, communityID, groupRef, updatedAt)
	r.evict(ctx, communityID)
	return c, err
}

func (r *CommunityRepository) evict(ctx context.Context, communityID string) {
	r.cache.Delete(ctx, communityListKey, communityKeyPrefix+communityID)
}

type CompetitionRepository struct {
	competition.Repository
	cache *basecache.Store
}

func NewCompetitionRepository(next competition.Repository, cache *basecache.Store) *CompetitionRepository {
	return &CompetitionRepository{Repository: next, cache: cache}
}

func (r *CompetitionRepository) GetByID(ctx context.Context, competitionID string) (competition.Competition, bool, error) {
	return loadOne(ctx, r.cache, competitionKeyPrefix+competitionID, func(ctx context.Context) (competition.Competition, bool, error) {
		return r.Repository.GetByID(ctx, competitionID)
	})
}

func (r *CompetitionRepository) Create(ctx context.Context, c competition.Competition) error {
	err := r.Repository.Create(ctx, c)
	r.cache.Delete(ctx, competitionKeyPrefix+c.ID)
	return err
}

func (r *CompetitionRepository) UpdateStatus(ctx context.Context, expected competition.Status, next competition.Competition) (competition.Competition, error) {
	c, err := r.Repository.UpdateStatus(ctx, expected, next)
	r.cache.Delete(ctx, competitionKeyPrefix+next.ID)
	return c, err
}

type PlayerRepository struct {
	player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{Repository: next, cache: cache}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	return loadOne(ctx, r.cache, playerKeyPrefix+playerID, func(ctx context.Context) (player.Player, bool, error) {
		return r.Repository.GetByID(ctx, playerID)
	})
}

func (r *PlayerRepository) Create(ctx context.Context, p player.Player) error {
	err := r.Repository.Create(ctx, p)
	r.cache.Delete(ctx, playerKeyPrefix+p.ID)
	return err
}

func (r *PlayerRepository) UpdateContact(ctx context.Context, playerID string, contact player.Contact, updatedAt time.Time) (player.Player, error) {
	p, err := r.Repository.UpdateContact(ctx, playerID, contact, updatedAt)
	r.cache.Delete(ctx, playerKeyPrefix+playerID)
	return p, err
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID string) error {
	err := r.Repository.Delete(ctx, playerID)
	r.cache.Delete(ctx, playerKeyPrefix+playerID)
	return err
}
