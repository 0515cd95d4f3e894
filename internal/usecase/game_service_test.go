package usecase

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/infrastructure/repository/memory"
	gamemock "github.com/riskibarqy/domatch/internal/mocks/domain/game"
	"github.com/riskibarqy/domatch/internal/platform/id"
)

func TestGameService_ScoringLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, _, p2 := env.mustGame(t)
	ctx := t.Context()

	if g.Status != game.StatusScheduled {
		t.Fatalf("new game status: got=%s want=%s", g.Status, game.StatusScheduled)
	}

	if _, err := env.games.RecordMatch(ctx, RecordMatchInput{GameID: g.ID, Player1Score: 6, Player2Score: 4}); err != nil {
		t.Fatalf("record first match: %v", err)
	}
	g, err := env.games.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if g.Status != game.StatusInProgress || g.Player1Score != 6 || g.Player2Score != 4 {
		t.Fatalf("after first match: status=%s score=%d-%d", g.Status, g.Player1Score, g.Player2Score)
	}

	if _, err := env.games.RecordMatch(ctx, RecordMatchInput{GameID: g.ID, Player1Score: 2, Player2Score: 8}); err != nil {
		t.Fatalf("record second match: %v", err)
	}
	g, _ = env.games.Get(ctx, g.ID)
	if g.Player1Score != 8 || g.Player2Score != 12 {
		t.Fatalf("after second match: score=%d-%d want=8-12", g.Player1Score, g.Player2Score)
	}

	finished, err := env.games.FinishGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("finish game: %v", err)
	}
	if finished.Status != game.StatusFinished {
		t.Fatalf("finished status: got=%s", finished.Status)
	}
	if finished.WinnerID == nil || *finished.WinnerID != p2.ID {
		t.Fatalf("winner: got=%v want=%s", finished.WinnerID, p2.ID)
	}

	_, err = env.games.RecordMatch(ctx, RecordMatchInput{GameID: g.ID, Player1Score: 1, Player2Score: 1})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("record on finished game: expected ErrInvalidState, got %v", err)
	}
	after, _ := env.games.Get(ctx, g.ID)
	if after.Player1Score != 8 || after.Player2Score != 12 || after.Status != game.StatusFinished {
		t.Fatalf("finished game changed: %+v", after)
	}
	matches, _ := env.games.ListMatches(ctx, g.ID)
	if len(matches) != 2 {
		t.Fatalf("match count: got=%d want=2", len(matches))
	}

	if _, err := env.games.FinishGame(ctx, g.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("finish twice: expected ErrInvalidState, got %v", err)
	}
}

func TestGameService_FinishWithoutMatches(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, _, _ := env.mustGame(t)

	if _, err := env.games.FinishGame(t.Context(), g.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	got, _ := env.games.Get(t.Context(), g.ID)
	if got.Status != game.StatusScheduled {
		t.Fatalf("status changed to %s", got.Status)
	}
}

func TestGameService_TiePolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		policy     game.TiePolicy
		wantErr    error
		wantWinner bool
	}{
		{name: "reject", policy: game.TiePolicyReject, wantErr: ErrInvalidState},
		{name: "draw", policy: game.TiePolicyDraw},
		{name: "player1", policy: game.TiePolicyPlayer1, wantWinner: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, nil, tc.policy)
			g, p1, _ := env.mustGame(t)
			if _, err := env.games.RecordMatch(t.Context(), RecordMatchInput{GameID: g.ID, Player1Score: 5, Player2Score: 5}); err != nil {
				t.Fatalf("record match: %v", err)
			}

			finished, err := env.games.FinishGame(t.Context(), g.ID)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("finish game: %v", err)
			}
			if tc.wantWinner {
				if finished.WinnerID == nil || *finished.WinnerID != p1.ID {
					t.Fatalf("winner: got=%v want=%s", finished.WinnerID, p1.ID)
				}
				return
			}
			if !finished.IsDraw() {
				t.Fatalf("expected draw, got winner %v", finished.WinnerID)
			}
		})
	}
}

func TestGameService_ConcurrentRecordMatchKeepsEveryMatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, _, _ := env.mustGame(t)

	const writers = 25
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.games.RecordMatch(context.Background(), RecordMatchInput{GameID: g.ID, Player1Score: 2, Player2Score: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("record match: %v", err)
		}
	}

	p1, p2, err := env.games.ComputeAggregateScores(t.Context(), g.ID)
	if err != nil {
		t.Fatalf("compute scores: %v", err)
	}
	if p1 != 2*writers || p2 != writers {
		t.Fatalf("aggregate: got=%d-%d want=%d-%d", p1, p2, 2*writers, writers)
	}
	stored, _ := env.games.Get(t.Context(), g.ID)
	if stored.Player1Score != p1 || stored.Player2Score != p2 {
		t.Fatalf("stored scores drifted from matches: %d-%d vs %d-%d", stored.Player1Score, stored.Player2Score, p1, p2)
	}
}

func TestGameService_CreateGameValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, p1, _ := env.mustGame(t)
	outsider := env.mustPlayer(t, "Carla", "+5511999990003")
	ctx := t.Context()

	_, err := env.games.CreateGame(ctx, CreateGameInput{CompetitionID: g.CompetitionID, Player1ID: p1.ID, Player2ID: p1.ID})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("same player: expected ErrInvalidInput, got %v", err)
	}

	_, err = env.games.CreateGame(ctx, CreateGameInput{CompetitionID: g.CompetitionID, Player1ID: p1.ID, Player2ID: outsider.ID})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("non-member: expected ErrInvalidInput, got %v", err)
	}

	_, err = env.games.CreateGame(ctx, CreateGameInput{CompetitionID: "missing", Player1ID: p1.ID, Player2ID: outsider.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing competition: expected ErrNotFound, got %v", err)
	}
}

func TestGameService_RecordMatchRejectsNegativeScores(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, _, _ := env.mustGame(t)

	_, err := env.games.RecordMatch(t.Context(), RecordMatchInput{GameID: g.ID, Player1Score: -1, Player2Score: 3})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGameService_RecordMatchRejectsOversizedScores(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, _, _ := env.mustGame(t)

	for _, in := range []RecordMatchInput{
		{GameID: g.ID, Player1Score: math.MaxInt, Player2Score: 0},
		{GameID: g.ID, Player1Score: 0, Player2Score: game.MaxMatchScore + 1},
	} {
		_, err := env.games.RecordMatch(t.Context(), in)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("score %d-%d: expected ErrInvalidInput, got %v", in.Player1Score, in.Player2Score, err)
		}
	}

	after, err := env.games.Get(t.Context(), g.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if after.Player1Score != 0 || after.Player2Score != 0 || after.Status != game.StatusScheduled {
		t.Fatalf("rejected matches changed the game: %+v", after)
	}
}

func TestGameService_GetDetail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	g, p1, p2 := env.mustGame(t)
	if _, err := env.games.RecordMatch(t.Context(), RecordMatchInput{GameID: g.ID, Player1Score: 3, Player2Score: 0}); err != nil {
		t.Fatalf("record match: %v", err)
	}

	detail, err := env.games.GetDetail(t.Context(), g.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.Player1.ID != p1.ID || detail.Player2.ID != p2.ID {
		t.Fatalf("unexpected players: %s vs %s", detail.Player1.ID, detail.Player2.ID)
	}
	if detail.Competition.ID != g.CompetitionID {
		t.Fatalf("unexpected competition: %s", detail.Competition.ID)
	}
	if len(detail.Matches) != 1 {
		t.Fatalf("match count: got=%d want=1", len(detail.Matches))
	}
}

func TestGameService_StoreFailuresUsingMockery(t *testing.T) {
	t.Parallel()

	gameRepo := gamemock.NewRepository(t)
	store := memory.NewStore()
	svc := NewGameService(
		gameRepo,
		memory.NewCompetitionRepository(store),
		memory.NewCommunityRepository(store),
		memory.NewPlayerRepository(store),
		&id.SequenceGenerator{Prefix: "m-"},
		game.TiePolicyReject,
		nil,
	)

	gameRepo.
		On("Apply", mock.Anything, "game-missing", mock.Anything).
		Return(game.Transition{}, errors.Wrap(entitystore.ErrNotFound, "game game-missing")).
		Once()
	gameRepo.
		On("Apply", mock.Anything, "game-down", mock.Anything).
		Return(game.Transition{}, errors.New("connection refused")).
		Once()

	_, err := svc.RecordMatch(t.Context(), RecordMatchInput{GameID: "game-missing", Player1Score: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = svc.FinishGame(t.Context(), "game-down")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}
