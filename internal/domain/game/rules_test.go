package game

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

var base = time.Date(2026, 4, 12, 20, 0, 0, 0, time.UTC)

func newScheduled() Game {
	return Game{ID: "g1", CompetitionID: "c1", Player1ID: "p1", Player2ID: "p2", Status: StatusScheduled}
}

func match(id string, p1, p2 int) Match {
	return Match{ID: id, GameID: "g1", Player1Score: p1, Player2Score: p2, CreatedAt: base}
}

func TestScoringScenario(t *testing.T) {
	g := newScheduled()
	var matches []Match

	m1 := match("m1", 6, 4)
	g, err := ApplyMatch(g, matches, m1)
	if err != nil {
		t.Fatalf("first match: %v", err)
	}
	matches = append(matches, m1)
	if g.Status != StatusInProgress || g.Player1Score != 6 || g.Player2Score != 4 {
		t.Fatalf("after first match got %s %d-%d", g.Status, g.Player1Score, g.Player2Score)
	}

	m2 := match("m2", 2, 8)
	g, err = ApplyMatch(g, matches, m2)
	if err != nil {
		t.Fatalf("second match: %v", err)
	}
	matches = append(matches, m2)
	if g.Player1Score != 8 || g.Player2Score != 12 {
		t.Fatalf("after second match got %d-%d", g.Player1Score, g.Player2Score)
	}

	g, err = Finish(g, matches, TiePolicyReject, base)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if g.Status != StatusFinished || g.WinnerID == nil || *g.WinnerID != "p2" {
		t.Fatalf("expected p2 to win, got %+v", g)
	}

	before := g
	after, err := ApplyMatch(g, matches, match("m3", 1, 1))
	if !errors.Is(err, ErrGameFinished) {
		t.Fatalf("expected ErrGameFinished, got %v", err)
	}
	if after.Player1Score != before.Player1Score || after.Player2Score != before.Player2Score || after.Status != before.Status {
		t.Fatalf("finished game changed: %+v", after)
	}
}

func TestApplyMatch_RecomputesFromPersistedSet(t *testing.T) {
	g := newScheduled()
	g.Status = StatusInProgress
	g.Player1Score = 999 // stale value from a lost update

	persisted := []Match{match("m1", 3, 2), match("m2", 1, 5)}
	got, err := ApplyMatch(g, persisted, match("m3", 4, 0))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Player1Score != 8 || got.Player2Score != 7 {
		t.Fatalf("expected 8-7, got %d-%d", got.Player1Score, got.Player2Score)
	}
}

func TestApplyMatch_StatusNeverRegresses(t *testing.T) {
	g := newScheduled()
	var matches []Match
	for i := range 20 {
		m := match("m", i%7, (i*3)%5)
		var err error
		g, err = ApplyMatch(g, matches, m)
		if err != nil {
			t.Fatalf("match %d: %v", i, err)
		}
		matches = append(matches, m)
		if g.Status != StatusInProgress {
			t.Fatalf("match %d left status %s", i, g.Status)
		}
	}
}

func TestApplyMatch_Rejects(t *testing.T) {
	g := newScheduled()

	if _, err := ApplyMatch(g, nil, match("m1", -1, 3)); !errors.Is(err, ErrNegativeScore) {
		t.Fatalf("expected ErrNegativeScore, got %v", err)
	}

	foreign := match("m1", 1, 1)
	foreign.GameID = "other"
	if _, err := ApplyMatch(g, nil, foreign); !errors.Is(err, ErrMatchMismatch) {
		t.Fatalf("expected ErrMatchMismatch, got %v", err)
	}
}

func TestApplyMatch_RejectsScoresAboveLimits(t *testing.T) {
	g := newScheduled()

	if _, err := ApplyMatch(g, nil, match("m1", MaxMatchScore+1, 0)); !errors.Is(err, ErrScoreTooLarge) {
		t.Fatalf("per-match cap: expected ErrScoreTooLarge, got %v", err)
	}
	if _, err := ApplyMatch(g, nil, match("m1", 0, MaxMatchScore)); err != nil {
		t.Fatalf("score at the cap should be accepted: %v", err)
	}

	persisted := []Match{match("m1", MaxAggregateScore, 0)}
	g.Status = StatusInProgress
	g.Player1Score = MaxAggregateScore
	if _, err := ApplyMatch(g, persisted, match("m2", 1, 0)); !errors.Is(err, ErrScoreTooLarge) {
		t.Fatalf("aggregate cap: expected ErrScoreTooLarge, got %v", err)
	}
}

func TestComputeAggregateScores_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	matches := make([]Match, 50)
	for i := range matches {
		matches[i] = match("m", rng.IntN(20), rng.IntN(20))
	}
	want1, want2 := ComputeAggregateScores(matches)

	for range 10 {
		shuffled := append([]Match(nil), matches...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got1, got2 := ComputeAggregateScores(shuffled)
		if got1 != want1 || got2 != want2 {
			t.Fatalf("order changed the aggregate: %d-%d vs %d-%d", got1, got2, want1, want2)
		}
	}

	if p1, p2 := ComputeAggregateScores(nil); p1 != 0 || p2 != 0 {
		t.Fatalf("empty set should be 0-0, got %d-%d", p1, p2)
	}
}

func TestFinish(t *testing.T) {
	inProgress := newScheduled()
	inProgress.Status = StatusInProgress
	tied := []Match{match("m1", 5, 3), match("m2", 0, 2)}

	tests := []struct {
		name       string
		game       Game
		matches    []Match
		policy     TiePolicy
		wantErr    error
		wantWinner string
		wantDraw   bool
	}{
		{name: "no matches", game: newScheduled(), policy: TiePolicyReject, wantErr: ErrNoMatches},
		{name: "player1 ahead", game: inProgress, matches: []Match{match("m1", 7, 2)}, policy: TiePolicyReject, wantWinner: "p1"},
		{name: "player2 ahead", game: inProgress, matches: []Match{match("m1", 1, 2)}, policy: TiePolicyDraw, wantWinner: "p2"},
		{name: "tie rejected", game: inProgress, matches: tied, policy: TiePolicyReject, wantErr: ErrTiedScore},
		{name: "tie as draw", game: inProgress, matches: tied, policy: TiePolicyDraw, wantDraw: true},
		{name: "tie to player1", game: inProgress, matches: tied, policy: TiePolicyPlayer1, wantWinner: "p1"},
		{name: "unknown policy behaves as reject", game: inProgress, matches: tied, policy: "coin-flip", wantErr: ErrTiedScore},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Finish(tc.game, tc.matches, tc.policy, base)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if got.Status == StatusFinished {
					t.Fatalf("failed finish must not change status")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != StatusFinished || got.FinishedAt == nil {
				t.Fatalf("expected finished game, got %+v", got)
			}
			if tc.wantDraw {
				if !got.IsDraw() {
					t.Fatalf("expected a draw, winner=%v", *got.WinnerID)
				}
				return
			}
			if got.WinnerID == nil || *got.WinnerID != tc.wantWinner {
				t.Fatalf("expected winner %s, got %v", tc.wantWinner, got.WinnerID)
			}
		})
	}
}

func TestFinish_AlreadyFinished(t *testing.T) {
	g := newScheduled()
	g.Status = StatusFinished
	winner := "p1"
	g.WinnerID = &winner

	got, err := Finish(g, []Match{match("m1", 0, 9)}, TiePolicyReject, base)
	if !errors.Is(err, ErrGameFinished) {
		t.Fatalf("expected ErrGameFinished, got %v", err)
	}
	if *got.WinnerID != "p1" {
		t.Fatalf("finished game must stay unchanged")
	}
}

func TestParseTiePolicy(t *testing.T) {
	for raw, want := range map[string]TiePolicy{"": TiePolicyReject, "DRAW": TiePolicyDraw, "player1": TiePolicyPlayer1} {
		got, err := ParseTiePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseTiePolicy(%q) = %s, %v", raw, got, err)
		}
	}
	if _, err := ParseTiePolicy("coin"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestGameValidate(t *testing.T) {
	g := newScheduled()
	g.Player2ID = g.Player1ID
	if err := g.Validate(); !errors.Is(err, ErrSamePlayer) {
		t.Fatalf("expected ErrSamePlayer, got %v", err)
	}
}
