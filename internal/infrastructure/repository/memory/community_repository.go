package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
)

type CommunityRepository struct {
	store *Store
}

func NewCommunityRepository(store *Store) *CommunityRepository {
	return &CommunityRepository{store: store}
}

func (r *CommunityRepository) Create(_ context.Context, c community.Community) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.communities[c.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "community %s", c.ID)
	}
	s.communities[c.ID] = cloneCommunity(c)
	return nil
}

func (r *CommunityRepository) GetByID(_ context.Context, communityID string) (community.Community, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.communities[communityID]
	if !ok {
		return community.Community{}, false, nil
	}
	return cloneCommunity(c), true, nil
}

func (r *CommunityRepository) List(_ context.Context) ([]community.Community, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]community.Community, 0, len(s.communities))
	for _, c := range s.communities {
		out = append(out, cloneCommunity(c))
	}
	sortCommunities(out)
	return out, nil
}

func (r *CommunityRepository) Update(_ context.Context, communityID string, details community.Details, updatedAt time.Time) (community.Community, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.communities[communityID]
	if !ok {
		return community.Community{}, errors.Wrapf(entitystore.ErrNotFound, "community %s", communityID)
	}
	c.Name = details.Name
	c.Description = clonePtr(details.Description)
	c.Location = clonePtr(details.Location)
	c.UpdatedAt = updatedAt
	s.communities[communityID] = c
	return cloneCommunity(c), nil
}

func (r *CommunityRepository) Delete(_ context.Context, communityID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.communities[communityID]; !ok {
		return errors.Wrapf(entitystore.ErrNotFound, "community %s", communityID)
	}
	for _, c := range s.competitions {
		if c.CommunityID == communityID {
			return errors.Wrapf(entitystore.ErrConstraint, "community %s has competitions", communityID)
		}
	}

	for key, m := range s.members {
		if m.CommunityID == communityID {
			delete(s.members, key)
		}
	}
	for taskID, t := range s.tasks {
		if t.CommunityID == communityID {
			delete(s.tasks, taskID)
		}
	}
	delete(s.communities, communityID)
	return nil
}

func (r *CommunityRepository) AttachExternalGroup(_ context.Context, communityID, groupRef string, updatedAt time.Time) (community.Community, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.communities[communityID]
	if !ok {
		return community.Community{}, errors.Wrapf(entitystore.ErrNotFound, "community %s", communityID)
	}
	c.ExternalGroupRef = &groupRef
	c.UpdatedAt = updatedAt
	s.communities[communityID] = c
	return cloneCommunity(c), nil
}

func (r *CommunityRepository) AddMember(_ context.Context, m community.Membership) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.communities[m.CommunityID]; !ok {
		return errors.Wrapf(entitystore.ErrConstraint, "community %s does not exist", m.CommunityID)
	}
	if _, ok := s.players[m.PlayerID]; !ok {
		return errors.Wrapf(entitystore.ErrConstraint, "player %s does not exist", m.PlayerID)
	}
	key := pairKey(m.CommunityID, m.PlayerID)
	if _, ok := s.members[key]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "membership %s", key)
	}
	s.members[key] = m
	return nil
}

func (r *CommunityRepository) RemoveMember(_ context.Context, communityID, playerID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(communityID, playerID)
	if _, ok := s.members[key]; !ok {
		return errors.Wrapf(entitystore.ErrNotFound, "membership %s", key)
	}
	delete(s.members, key)
	return nil
}

func (r *CommunityRepository) GetMember(_ context.Context, communityID, playerID string) (community.Membership, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[pairKey(communityID, playerID)]
	return m, ok, nil
}

func (r *CommunityRepository) ListMembers(_ context.Context, communityID string) ([]community.Member, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]community.Member, 0)
	for _, m := range s.members {
		if m.CommunityID != communityID {
			continue
		}
		out = append(out, community.Member{
			Membership: m,
			Player:     clonePlayer(s.players[m.PlayerID]),
		})
	}
	slices.SortFunc(out, func(a, b community.Member) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.PlayerID, b.PlayerID)
	})
	return out, nil
}

func (r *CommunityRepository) ListCommunitiesOfPlayer(_ context.Context, playerID string) ([]community.Community, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]community.Community, 0)
	for _, m := range s.members {
		if m.PlayerID != playerID {
			continue
		}
		if c, ok := s.communities[m.CommunityID]; ok {
			out = append(out, cloneCommunity(c))
		}
	}
	sortCommunities(out)
	return out, nil
}

func sortCommunities(items []community.Community) {
	slices.SortFunc(items, func(a, b community.Community) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneCommunity(c community.Community) community.Community {
	c.Description = clonePtr(c.Description)
	c.Location = clonePtr(c.Location)
	c.ExternalGroupRef = clonePtr(c.ExternalGroupRef)
	return c
}
