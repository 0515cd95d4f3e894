package game

import (
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrNoMatches     = errors.New("game has no recorded matches")
	ErrTiedScore     = errors.New("game is tied")
	ErrNegativeScore = errors.New("match scores must be non-negative")
	ErrScoreTooLarge = errors.New("match score is too large")
	ErrSamePlayer    = errors.New("a game needs two distinct players")
	ErrMatchMismatch = errors.New("match does not belong to game")
)

const (
	// MaxMatchScore bounds a single side of one match.
	MaxMatchScore = 1000
	// MaxAggregateScore bounds a game's per-side total; it fits the INTEGER score columns.
	MaxAggregateScore = math.MaxInt32
)

// TiePolicy decides how FinishGame treats equal aggregate scores.
type TiePolicy string

const (
	// TiePolicyReject refuses to finish a tied game.
	TiePolicyReject TiePolicy = "reject"
	// TiePolicyDraw finishes the game without a winner.
	TiePolicyDraw TiePolicy = "draw"
	// TiePolicyPlayer1 credits a tie to player 1.
	TiePolicyPlayer1 TiePolicy = "player1"
)

func ParseTiePolicy(raw string) (TiePolicy, error) {
	switch p := TiePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return TiePolicyReject, nil
	case TiePolicyReject, TiePolicyDraw, TiePolicyPlayer1:
		return p, nil
	default:
		return "", errors.Newf("unknown tie policy %q", raw)
	}
}

// ComputeAggregateScores sums each side over matches. The result does not
// depend on the order of matches.
func ComputeAggregateScores(matches []Match) (int, int) {
	var p1, p2 int
	for _, m := range matches {
		p1 += m.Player1Score
		p2 += m.Player2Score
	}
	return p1, p2
}

// ApplyMatch returns g after appending next to the persisted matches: scores
// are recomputed from the full set and a scheduled game becomes in_progress.
func ApplyMatch(g Game, persisted []Match, next Match) (Game, error) {
	if g.IsFinished() {
		return g, errors.Wrapf(ErrGameFinished, "game %s", g.ID)
	}
	if err := next.Validate(); err != nil {
		return g, err
	}
	if next.GameID != "" && next.GameID != g.ID {
		return g, errors.Wrapf(ErrMatchMismatch, "match for %s applied to %s", next.GameID, g.ID)
	}

	all := make([]Match, 0, len(persisted)+1)
	all = append(all, persisted...)
	all = append(all, next)

	p1, p2 := ComputeAggregateScores(all)
	if p1 > MaxAggregateScore || p2 > MaxAggregateScore {
		return g, errors.Wrapf(ErrScoreTooLarge, "game %s would total %d-%d", g.ID, p1, p2)
	}
	g.Player1Score, g.Player2Score = p1, p2
	g.Status = StatusInProgress
	g.UpdatedAt = next.CreatedAt
	return g, nil
}

// Finish closes g. It needs at least one match; the winner is the side with
// the strictly higher aggregate, and ties follow policy.
func Finish(g Game, matches []Match, policy TiePolicy, now time.Time) (Game, error) {
	if g.IsFinished() {
		return g, errors.Wrapf(ErrGameFinished, "game %s", g.ID)
	}
	if len(matches) == 0 {
		return g, errors.Wrapf(ErrNoMatches, "game %s", g.ID)
	}

	p1, p2 := ComputeAggregateScores(matches)

	var winner *string
	switch {
	case p1 > p2:
		winner = ptr(g.Player1ID)
	case p2 > p1:
		winner = ptr(g.Player2ID)
	default:
		switch policy {
		case TiePolicyDraw:
		case TiePolicyPlayer1:
			winner = ptr(g.Player1ID)
		default:
			return g, errors.Wrapf(ErrTiedScore, "game %s at %d-%d", g.ID, p1, p2)
		}
	}

	g.Player1Score, g.Player2Score = p1, p2
	g.Status = StatusFinished
	g.WinnerID = winner
	g.UpdatedAt = now
	g.FinishedAt = &now
	return g, nil
}

func ptr(s string) *string {
	return &s
}
