package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/domatch/internal/platform/id"
	"github.com/riskibarqy/domatch/internal/platform/logging"
)

var testNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// testEnv wires every service over one in-memory store.
type testEnv struct {
	store        *memory.Store
	players      *PlayerService
	communities  *CommunityService
	competitions *CompetitionService
	games        *GameService
	tournaments  *TournamentService
	integrations *IntegrationService
	owner        Actor
}

func newTestEnv(t *testing.T, gateway MessagingGateway, tiePolicy game.TiePolicy) *testEnv {
	t.Helper()

	store := memory.NewStore()
	idGen := &id.SequenceGenerator{Prefix: "id-"}
	logger := logging.NewNop()

	playerRepo := memory.NewPlayerRepository(store)
	communityRepo := memory.NewCommunityRepository(store)
	competitionRepo := memory.NewCompetitionRepository(store)
	gameRepo := memory.NewGameRepository(store)
	taskRepo := memory.NewIntegrationRepository(store)

	players := NewPlayerService(playerRepo, idGen)
	communities := NewCommunityService(communityRepo, players, taskRepo, gateway, idGen, nil, logger)
	env := &testEnv{
		store:        store,
		players:      players,
		communities:  communities,
		competitions: NewCompetitionService(competitionRepo, communityRepo, gameRepo, idGen),
		games:        NewGameService(gameRepo, competitionRepo, communityRepo, playerRepo, idGen, tiePolicy, nil),
		tournaments:  NewTournamentService(memory.NewTournamentRepository(store), playerRepo, idGen, nil),
		integrations: NewIntegrationService(taskRepo, communities, IntegrationConfig{Workers: 2}, nil, logger),
		owner:        Actor{UserID: "user-owner"},
	}

	clock := func() time.Time { return testNow }
	env.players.now = clock
	env.communities.now = clock
	env.communities.groups.now = clock
	env.competitions.now = clock
	env.games.now = clock
	env.tournaments.now = clock
	env.integrations.now = clock
	return env
}

func (e *testEnv) mustPlayer(t *testing.T, name, phone string) player.Player {
	t.Helper()
	p, err := e.players.Create(t.Context(), CreatePlayerInput{Actor: e.owner, Name: name, Phone: phone})
	if err != nil {
		t.Fatalf("create player %s: %v", name, err)
	}
	return p
}

func (e *testEnv) mustCommunity(t *testing.T, name string) community.Community {
	t.Helper()
	result, err := e.communities.CreateCommunity(t.Context(), CreateCommunityInput{Actor: e.owner, Name: name})
	if err != nil {
		t.Fatalf("create community %s: %v", name, err)
	}
	return result.Community
}

func (e *testEnv) mustJoin(t *testing.T, c community.Community, p player.Player) {
	t.Helper()
	if _, err := e.communities.JoinCommunity(t.Context(), JoinCommunityInput{
		Actor:       e.owner,
		CommunityID: c.ID,
		PlayerID:    p.ID,
	}); err != nil {
		t.Fatalf("join community: %v", err)
	}
}

func (e *testEnv) mustStartedCompetition(t *testing.T, c community.Community) competition.Competition {
	t.Helper()
	comp, err := e.competitions.Create(t.Context(), CreateCompetitionInput{Actor: e.owner, CommunityID: c.ID, Name: "Friday Night"})
	if err != nil {
		t.Fatalf("create competition: %v", err)
	}
	comp, err = e.competitions.Start(t.Context(), e.owner, comp.ID)
	if err != nil {
		t.Fatalf("start competition: %v", err)
	}
	return comp
}

// mustGame creates a community with two members, a started competition and a
// scheduled game between them.
func (e *testEnv) mustGame(t *testing.T) (game.Game, player.Player, player.Player) {
	t.Helper()
	c := e.mustCommunity(t, "Sunday League")
	p1 := e.mustPlayer(t, "Ana", "+5511999990001")
	p2 := e.mustPlayer(t, "Bruno", "+5511999990002")
	e.mustJoin(t, c, p1)
	e.mustJoin(t, c, p2)
	comp := e.mustStartedCompetition(t, c)

	g, err := e.games.CreateGame(t.Context(), CreateGameInput{CompetitionID: comp.ID, Player1ID: p1.ID, Player2ID: p2.ID})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g, p1, p2
}
