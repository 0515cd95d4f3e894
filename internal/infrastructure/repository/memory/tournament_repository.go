package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
)

type TournamentRepository struct {
	store *Store
}

func NewTournamentRepository(store *Store) *TournamentRepository {
	return &TournamentRepository{store: store}
}

func (r *TournamentRepository) Create(_ context.Context, t tournament.Tournament) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[t.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "tournament %s", t.ID)
	}
	s.tournaments[t.ID] = cloneTournament(t)
	return nil
}

func (r *TournamentRepository) GetByID(_ context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tournaments[tournamentID]
	if !ok {
		return tournament.Tournament{}, false, nil
	}
	return cloneTournament(t), true, nil
}

func (r *TournamentRepository) List(_ context.Context, status tournament.Status) ([]tournament.Tournament, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tournament.Tournament, 0)
	for _, t := range s.tournaments {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, cloneTournament(t))
	}
	slices.SortFunc(out, func(a, b tournament.Tournament) int {
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Compare(b.StartDate)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *TournamentRepository) ListParticipants(_ context.Context, tournamentID string) ([]tournament.Participant, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tournament.Participant, 0)
	for _, p := range s.participants {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b tournament.Participant) int {
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Compare(b.JoinedAt)
		}
		return strings.Compare(a.PlayerID, b.PlayerID)
	})
	return out, nil
}

func (r *TournamentRepository) Join(_ context.Context, p tournament.Participant) (tournament.Tournament, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[p.TournamentID]
	if !ok {
		return tournament.Tournament{}, errors.Wrapf(entitystore.ErrNotFound, "tournament %s", p.TournamentID)
	}
	key := pairKey(p.TournamentID, p.PlayerID)
	if _, ok := s.participants[key]; ok {
		return tournament.Tournament{}, errors.Wrapf(entitystore.ErrDuplicate, "participant %s", key)
	}
	if err := t.CanJoin(); err != nil {
		return tournament.Tournament{}, err
	}

	s.participants[key] = p
	t.CurrentParticipants++
	s.tournaments[t.ID] = t
	return cloneTournament(t), nil
}

func cloneTournament(t tournament.Tournament) tournament.Tournament {
	t.EndDate = clonePtr(t.EndDate)
	t.Prize = clonePtr(t.Prize)
	return t
}
