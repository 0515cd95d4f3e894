package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
)

type CompetitionRepository struct {
	store *Store
}

func NewCompetitionRepository(store *Store) *CompetitionRepository {
	return &CompetitionRepository{store: store}
}

func (r *CompetitionRepository) Create(_ context.Context, c competition.Competition) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.competitions[c.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "competition %s", c.ID)
	}
	if _, ok := s.communities[c.CommunityID]; !ok {
		return errors.Wrapf(entitystore.ErrConstraint, "community %s does not exist", c.CommunityID)
	}
	s.competitions[c.ID] = cloneCompetition(c)
	return nil
}

func (r *CompetitionRepository) GetByID(_ context.Context, competitionID string) (competition.Competition, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.competitions[competitionID]
	if !ok {
		return competition.Competition{}, false, nil
	}
	return cloneCompetition(c), true, nil
}

func (r *CompetitionRepository) List(_ context.Context, filter competition.ListFilter) ([]competition.Competition, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]competition.Competition, 0)
	for _, c := range s.competitions {
		if filter.CommunityID != "" && c.CommunityID != filter.CommunityID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, cloneCompetition(c))
	}
	// Newest first, like the listing screen.
	slices.SortFunc(out, func(a, b competition.Competition) int {
		if !a.StartDate.Equal(b.StartDate) {
			return b.StartDate.Compare(a.StartDate)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *CompetitionRepository) UpdateStatus(_ context.Context, expected competition.Status, next competition.Competition) (competition.Competition, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.competitions[next.ID]
	if !ok {
		return competition.Competition{}, errors.Wrapf(entitystore.ErrNotFound, "competition %s", next.ID)
	}
	if current.Status != expected {
		return competition.Competition{}, errors.Wrapf(entitystore.ErrStale, "competition %s is %s, expected %s", next.ID, current.Status, expected)
	}
	current.Status = next.Status
	current.EndDate = clonePtr(next.EndDate)
	current.UpdatedAt = next.UpdatedAt
	s.competitions[next.ID] = current
	return cloneCompetition(current), nil
}

func cloneCompetition(c competition.Competition) competition.Competition {
	c.Description = clonePtr(c.Description)
	c.EndDate = clonePtr(c.EndDate)
	return c
}
