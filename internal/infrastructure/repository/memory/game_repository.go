package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/game"
)

type GameRepository struct {
	store *Store
}

func NewGameRepository(store *Store) *GameRepository {
	return &GameRepository{store: store}
}

func (r *GameRepository) Create(_ context.Context, g game.Game) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "game %s", g.ID)
	}
	if _, ok := s.competitions[g.CompetitionID]; !ok {
		return errors.Wrapf(entitystore.ErrConstraint, "competition %s does not exist", g.CompetitionID)
	}
	for _, playerID := range []string{g.Player1ID, g.Player2ID} {
		if _, ok := s.players[playerID]; !ok {
			return errors.Wrapf(entitystore.ErrConstraint, "player %s does not exist", playerID)
		}
	}
	s.games[g.ID] = cloneGame(g)
	return nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return game.Game{}, false, nil
	}
	return cloneGame(g), true, nil
}

func (r *GameRepository) ListByCompetition(_ context.Context, competitionID string) ([]game.Game, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, g := range s.games {
		if g.CompetitionID == competitionID {
			out = append(out, cloneGame(g))
		}
	}
	slices.SortFunc(out, func(a, b game.Game) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *GameRepository) ListMatches(_ context.Context, gameID string) ([]game.Match, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneMatches(s.matches[gameID]), nil
}

func (r *GameRepository) CountUnfinished(_ context.Context, competitionID string) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, g := range s.games {
		if g.CompetitionID == competitionID && !g.IsFinished() {
			count++
		}
	}
	return count, nil
}

// Apply holds the store's write lock for the whole transition, which gives the
// same serialization as a row lock.
func (r *GameRepository) Apply(_ context.Context, gameID string, fn game.TransitionFunc) (game.Transition, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.games[gameID]
	if !ok {
		return game.Transition{}, errors.Wrapf(entitystore.ErrNotFound, "game %s", gameID)
	}

	result, err := fn(cloneGame(current), cloneMatches(s.matches[gameID]))
	if err != nil {
		return game.Transition{}, err
	}
	if result.Game.ID != gameID {
		return game.Transition{}, errors.Newf("transition changed game id from %s to %s", gameID, result.Game.ID)
	}

	if result.Match != nil {
		m := *result.Match
		for _, existing := range s.matches[gameID] {
			if existing.ID == m.ID {
				return game.Transition{}, errors.Wrapf(entitystore.ErrDuplicate, "match %s", m.ID)
			}
		}
		m.Notes = clonePtr(m.Notes)
		s.matches[gameID] = append(s.matches[gameID], m)
	}
	s.games[gameID] = cloneGame(result.Game)
	return result, nil
}

func cloneGame(g game.Game) game.Game {
	g.WinnerID = clonePtr(g.WinnerID)
	g.FinishedAt = clonePtr(g.FinishedAt)
	return g
}

func cloneMatches(items []game.Match) []game.Match {
	out := make([]game.Match, len(items))
	for i, m := range items {
		m.Notes = clonePtr(m.Notes)
		out[i] = m
	}
	return out
}
