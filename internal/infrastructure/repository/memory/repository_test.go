package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedGame(t *testing.T, store *Store) game.Game {
	t.Helper()
	ctx := t.Context()

	players := NewPlayerRepository(store)
	for _, p := range []player.Player{
		{ID: "p1", Name: "Ana", Phone: "+5511999990001", CreatedAt: now},
		{ID: "p2", Name: "Bruno", Phone: "+5511999990002", CreatedAt: now},
	} {
		if err := players.Create(ctx, p); err != nil {
			t.Fatalf("create player: %v", err)
		}
	}
	if err := NewCommunityRepository(store).Create(ctx, community.Community{ID: "c1", Name: "Sunday", CreatedAt: now}); err != nil {
		t.Fatalf("create community: %v", err)
	}
	if err := NewCompetitionRepository(store).Create(ctx, competition.Competition{ID: "k1", CommunityID: "c1", Name: "Cup", Status: competition.StatusInProgress, StartDate: now}); err != nil {
		t.Fatalf("create competition: %v", err)
	}
	g := game.Game{ID: "g1", CompetitionID: "k1", Player1ID: "p1", Player2ID: "p2", Status: game.StatusScheduled, CreatedAt: now}
	if err := NewGameRepository(store).Create(ctx, g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func TestGameRepository_ApplySerializesWriters(t *testing.T) {
	store := NewStore()
	seedGame(t, store)
	repo := NewGameRepository(store)

	const writers = 40
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Apply(t.Context(), "g1", func(current game.Game, matches []game.Match) (game.Transition, error) {
				m := game.Match{ID: string(rune('A' + i)), GameID: current.ID, Player1Score: 1, Player2Score: 2, CreatedAt: now}
				next, err := game.ApplyMatch(current, matches, m)
				return game.Transition{Game: next, Match: &m}, err
			})
			if err != nil {
				t.Errorf("apply: %v", err)
			}
		}(i)
	}
	wg.Wait()

	g, _, _ := repo.GetByID(t.Context(), "g1")
	if g.Player1Score != writers || g.Player2Score != 2*writers {
		t.Fatalf("unexpected score %d-%d", g.Player1Score, g.Player2Score)
	}
	matches, _ := repo.ListMatches(t.Context(), "g1")
	if len(matches) != writers {
		t.Fatalf("unexpected match count %d", len(matches))
	}
}

func TestGameRepository_ApplyErrorWritesNothing(t *testing.T) {
	store := NewStore()
	seedGame(t, store)
	repo := NewGameRepository(store)
	boom := errors.New("boom")

	_, err := repo.Apply(t.Context(), "g1", func(current game.Game, _ []game.Match) (game.Transition, error) {
		current.Player1Score = 99
		return game.Transition{Game: current}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	g, _, _ := repo.GetByID(t.Context(), "g1")
	if g.Player1Score != 0 {
		t.Fatalf("game was written: %+v", g)
	}

	_, err = repo.Apply(t.Context(), "missing", func(current game.Game, _ []game.Match) (game.Transition, error) {
		return game.Transition{Game: current}, nil
	})
	if !errors.Is(err, entitystore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommunityRepository_UniqueMembershipAndConstraints(t *testing.T) {
	store := NewStore()
	seedGame(t, store)
	repo := NewCommunityRepository(store)
	ctx := t.Context()

	m := community.Membership{ID: "m1", CommunityID: "c1", PlayerID: "p1", Role: community.RoleMember, CreatedAt: now}
	if err := repo.AddMember(ctx, m); err != nil {
		t.Fatalf("add member: %v", err)
	}
	m.ID = "m2"
	if err := repo.AddMember(ctx, m); !errors.Is(err, entitystore.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := repo.AddMember(ctx, community.Membership{ID: "m3", CommunityID: "c1", PlayerID: "ghost"}); !errors.Is(err, entitystore.ErrConstraint) {
		t.Fatalf("expected ErrConstraint, got %v", err)
	}

	members, _ := repo.ListMembers(ctx, "c1")
	if len(members) != 1 || members[0].ID != "m1" || members[0].Player.Name != "Ana" {
		t.Fatalf("unexpected members: %+v", members)
	}

	if err := NewPlayerRepository(store).Delete(ctx, "p1"); !errors.Is(err, entitystore.ErrConstraint) {
		t.Fatalf("expected ErrConstraint deleting a member, got %v", err)
	}
	if err := repo.Delete(ctx, "c1"); !errors.Is(err, entitystore.ErrConstraint) {
		t.Fatalf("expected ErrConstraint deleting a community with competitions, got %v", err)
	}
}

func TestCompetitionRepository_UpdateStatusIsConditional(t *testing.T) {
	store := NewStore()
	seedGame(t, store)
	repo := NewCompetitionRepository(store)

	next := competition.Competition{ID: "k1", Status: competition.StatusFinished, EndDate: &now, UpdatedAt: now}
	if _, err := repo.UpdateStatus(t.Context(), competition.StatusDraft, next); !errors.Is(err, entitystore.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	saved, err := repo.UpdateStatus(t.Context(), competition.StatusInProgress, next)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if saved.Status != competition.StatusFinished || saved.Name != "Cup" {
		t.Fatalf("unexpected competition: %+v", saved)
	}
}

func TestIntegrationRepository_ClaimDueLeasesTasks(t *testing.T) {
	store := NewStore()
	repo := NewIntegrationRepository(store)
	ctx := t.Context()

	for i, due := range []time.Time{now.Add(-time.Minute), now, now.Add(time.Minute)} {
		task := integration.Task{
			ID:            string(rune('a' + i)),
			Kind:          integration.KindCreateGroup,
			CommunityID:   "c1",
			Status:        integration.StatusPending,
			NextAttemptAt: due,
			CreatedAt:     now.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Enqueue(ctx, task); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	claimed, err := repo.ClaimDue(ctx, now, time.Minute, 10)
	if err != nil {
		t.Fatalf("claim due: %v", err)
	}
	if len(claimed) != 2 || claimed[0].ID != "a" || claimed[1].ID != "b" {
		t.Fatalf("unexpected claim: %+v", claimed)
	}

	again, _ := repo.ClaimDue(ctx, now, time.Minute, 10)
	if len(again) != 0 {
		t.Fatalf("leased tasks were claimed twice: %+v", again)
	}

	if err := repo.Save(ctx, claimed[0].Done(now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	later, _ := repo.ClaimDue(ctx, now.Add(2*time.Minute), time.Minute, 10)
	if len(later) != 2 {
		t.Fatalf("expected the expired lease and the future task, got %+v", later)
	}
}
