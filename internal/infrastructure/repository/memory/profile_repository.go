package memory

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/profile"
)

type ProfileRepository struct {
	store *Store
}

func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

func (r *ProfileRepository) GetByID(_ context.Context, profileID string) (profile.Profile, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return profile.Profile{}, false, nil
	}
	return cloneProfile(p), true, nil
}

func (r *ProfileRepository) Create(_ context.Context, p profile.Profile) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "profile %s", p.ID)
	}
	s.profiles[p.ID] = cloneProfile(p)
	return nil
}

func (r *ProfileRepository) Update(_ context.Context, p profile.Profile) (profile.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[p.ID]
	if !ok {
		return profile.Profile{}, errors.Wrapf(entitystore.ErrNotFound, "profile %s", p.ID)
	}
	// Roles are managed out of band.
	current.Name = p.Name
	current.Nickname = clonePtr(p.Nickname)
	current.Phone = p.Phone
	current.UpdatedAt = p.UpdatedAt
	s.profiles[p.ID] = current
	return cloneProfile(current), nil
}

func cloneProfile(p profile.Profile) profile.Profile {
	p.Nickname = clonePtr(p.Nickname)
	p.Roles = slices.Clone(p.Roles)
	return p
}
