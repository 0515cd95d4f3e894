package game

import "context"

// Transition is the outcome of a state change computed under the game lock.
// Match is inserted when non-nil; Game is written back as is.
type Transition struct {
	Game  Game
	Match *Match
}

// TransitionFunc computes the next state from the locked game and its
// persisted matches. Returning an error aborts without writing anything.
type TransitionFunc func(current Game, matches []Match) (Transition, error)

// Repository describes game persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, g Game) error
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Game, error)
	ListMatches(ctx context.Context, gameID string) ([]Match, error)
	CountUnfinished(ctx context.Context, competitionID string) (int, error)

	// Apply locks the game, loads its matches, runs fn and persists the
	// result in one atomic step. Concurrent Apply calls on the same game
	// are serialized. Returns entitystore.ErrNotFound for an unknown game.
	Apply(ctx context.Context, gameID string, fn TransitionFunc) (Transition, error)
}
