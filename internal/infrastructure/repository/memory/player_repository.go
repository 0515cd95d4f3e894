package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/player"
)

type PlayerRepository struct {
	store *Store
}

func NewPlayerRepository(store *Store) *PlayerRepository {
	return &PlayerRepository{store: store}
}

func (r *PlayerRepository) Create(_ context.Context, p player.Player) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "player %s", p.ID)
	}
	for _, existing := range s.players {
		if existing.Phone == p.Phone {
			return errors.Wrapf(entitystore.ErrDuplicate, "player phone %s", p.Phone)
		}
	}
	s.players[p.ID] = clonePlayer(p)
	return nil
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return player.Player{}, false, nil
	}
	return clonePlayer(p), true, nil
}

func (r *PlayerRepository) GetByPhone(_ context.Context, phone string) (player.Player, bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.players {
		if p.Phone == phone {
			return clonePlayer(p), true, nil
		}
	}
	return player.Player{}, false, nil
}

func (r *PlayerRepository) List(_ context.Context, filter player.ListFilter) ([]player.Player, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	out := make([]player.Player, 0, len(s.players))
	for _, p := range s.players {
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, clonePlayer(p))
	}
	sortPlayers(out)

	if filter.Offset >= len(out) {
		return []player.Player{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *PlayerRepository) ListByIDs(_ context.Context, playerIDs []string) ([]player.Player, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if p, ok := s.players[id]; ok {
			out = append(out, clonePlayer(p))
		}
	}
	return out, nil
}

func (r *PlayerRepository) UpdateContact(_ context.Context, playerID string, contact player.Contact, updatedAt time.Time) (player.Player, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return player.Player{}, errors.Wrapf(entitystore.ErrNotFound, "player %s", playerID)
	}
	for id, other := range s.players {
		if id != playerID && other.Phone == contact.Phone {
			return player.Player{}, errors.Wrapf(entitystore.ErrDuplicate, "player phone %s", contact.Phone)
		}
	}
	p.Name = contact.Name
	p.Nickname = clonePtr(contact.Nickname)
	p.Phone = contact.Phone
	p.UpdatedAt = updatedAt
	s.players[playerID] = p
	return clonePlayer(p), nil
}

func (r *PlayerRepository) Delete(_ context.Context, playerID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return errors.Wrapf(entitystore.ErrNotFound, "player %s", playerID)
	}
	for _, m := range s.members {
		if m.PlayerID == playerID {
			return errors.Wrapf(entitystore.ErrConstraint, "player %s has memberships", playerID)
		}
	}
	for _, g := range s.games {
		if g.HasPlayer(playerID) {
			return errors.Wrapf(entitystore.ErrConstraint, "player %s has games", playerID)
		}
	}
	delete(s.players, playerID)
	return nil
}

func matchesSearch(p player.Player, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	return p.Nickname != nil && strings.Contains(strings.ToLower(*p.Nickname), search)
}

func sortPlayers(items []player.Player) {
	slices.SortFunc(items, func(a, b player.Player) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func clonePlayer(p player.Player) player.Player {
	p.Nickname = clonePtr(p.Nickname)
	return p
}
