package game

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Game is a head-to-head contest inside a competition. Once a match exists the
// scores are always the per-side sums over its matches.
type Game struct {
	ID            string
	CompetitionID string
	Player1ID     string
	Player2ID     string
	Player1Score  int
	Player2Score  int
	Status        Status
	WinnerID      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinishedAt    *time.Time
}

// Match is one scored round of a game. Matches are append-only.
type Match struct {
	ID           string
	GameID       string
	Player1Score int
	Player2Score int
	Notes        *string
	CreatedAt    time.Time
}

func (g Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("game id is required")
	}
	if strings.TrimSpace(g.CompetitionID) == "" {
		return errors.New("game competition id is required")
	}
	if strings.TrimSpace(g.Player1ID) == "" || strings.TrimSpace(g.Player2ID) == "" {
		return errors.New("game players are required")
	}
	if g.Player1ID == g.Player2ID {
		return ErrSamePlayer
	}
	return nil
}

func (g Game) IsFinished() bool {
	return g.Status == StatusFinished
}

// IsDraw reports a finished game without a winner, possible only under TiePolicyDraw.
func (g Game) IsDraw() bool {
	return g.IsFinished() && g.WinnerID == nil
}

// HasPlayer reports whether playerID is one of the two sides.
func (g Game) HasPlayer(playerID string) bool {
	return playerID != "" && (g.Player1ID == playerID || g.Player2ID == playerID)
}

func (m Match) Validate() error {
	if m.Player1Score < 0 || m.Player2Score < 0 {
		return errors.Wrapf(ErrNegativeScore, "got %d-%d", m.Player1Score, m.Player2Score)
	}
	if m.Player1Score > MaxMatchScore || m.Player2Score > MaxMatchScore {
		return errors.Wrapf(ErrScoreTooLarge, "got %d-%d, max %d", m.Player1Score, m.Player2Score, MaxMatchScore)
	}
	return nil
}
