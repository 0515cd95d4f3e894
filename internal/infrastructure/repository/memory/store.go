package memory

import (
	"sync"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/profile"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
)

// Store holds every table behind one lock so cross-table rules (foreign keys,
// unique pairs, the game row lock) behave like the relational store.
type Store struct {
	mu sync.RWMutex

	players      map[string]player.Player
	profiles     map[string]profile.Profile
	communities  map[string]community.Community
	members      map[string]community.Membership
	competitions map[string]competition.Competition
	games        map[string]game.Game
	matches      map[string][]game.Match
	tournaments  map[string]tournament.Tournament
	participants map[string]tournament.Participant
	tasks        map[string]integration.Task
}

func NewStore() *Store {
	return &Store{
		players:      make(map[string]player.Player),
		profiles:     make(map[string]profile.Profile),
		communities:  make(map[string]community.Community),
		members:      make(map[string]community.Membership),
		competitions: make(map[string]competition.Competition),
		games:        make(map[string]game.Game),
		matches:      make(map[string][]game.Match),
		tournaments:  make(map[string]tournament.Tournament),
		participants: make(map[string]tournament.Participant),
		tasks:        make(map[string]integration.Task),
	}
}

func pairKey(a, b string) string {
	return a + "::" + b
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
