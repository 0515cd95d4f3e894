package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/platform/id"
)

type CreateGameInput struct {
	CompetitionID string
	Player1ID     string
	Player2ID     string
}

type RecordMatchInput struct {
	GameID       string
	Player1Score int
	Player2Score int
	Notes        *string
}

// GameDetail is a game with everything a scoreboard needs.
type GameDetail struct {
	Game        game.Game
	Competition competition.Competition
	Player1     player.Player
	Player2     player.Player
	Matches     []game.Match
}

type GameService struct {
	gameRepo        game.Repository
	competitionRepo competition.Repository
	communityRepo   community.Repository
	playerRepo      player.Repository
	idGen           id.Generator
	tiePolicy       game.TiePolicy
	metrics         MetricsRecorder
	now             func() time.Time
}

func NewGameService(
	gameRepo game.Repository,
	competitionRepo competition.Repository,
	communityRepo community.Repository,
	playerRepo player.Repository,
	idGen id.Generator,
	tiePolicy game.TiePolicy,
	metrics MetricsRecorder,
) *GameService {
	if tiePolicy == "" {
		tiePolicy = game.TiePolicyReject
	}
	return &GameService{
		gameRepo:        gameRepo,
		competitionRepo: competitionRepo,
		communityRepo:   communityRepo,
		playerRepo:      playerRepo,
		idGen:           idGen,
		tiePolicy:       tiePolicy,
		metrics:         metricsOrNoop(metrics),
		now:             time.Now,
	}
}

func (s *GameService) TiePolicy() game.TiePolicy {
	return s.tiePolicy
}

// CreateGame schedules a game between two members of the competition's community.
func (s *GameService) CreateGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.CreateGame", attribute.String("competition_id", input.CompetitionID))
	g, err := s.createGame(ctx, input)
	endSpan(span, err)
	return g, err
}

func (s *GameService) createGame(ctx context.Context, input CreateGameInput) (game.Game, error) {
	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	input.Player1ID = strings.TrimSpace(input.Player1ID)
	input.Player2ID = strings.TrimSpace(input.Player2ID)
	if input.CompetitionID == "" {
		return game.Game{}, invalidInput("competition id is required")
	}
	if input.Player1ID == "" || input.Player2ID == "" {
		return game.Game{}, invalidInput("both player ids are required")
	}
	if input.Player1ID == input.Player2ID {
		return game.Game{}, domainError(game.ErrSamePlayer, "create game")
	}

	comp, exists, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		return game.Game{}, storeError(err, "get competition")
	}
	if !exists {
		return game.Game{}, notFound("competition=%s", input.CompetitionID)
	}
	if comp.IsFinished() {
		return game.Game{}, errors.Mark(errors.Newf("competition %s is finished", comp.ID), ErrInvalidState)
	}

	for _, playerID := range []string{input.Player1ID, input.Player2ID} {
		if _, exists, err := s.communityRepo.GetMember(ctx, comp.CommunityID, playerID); err != nil {
			return game.Game{}, storeError(err, "get community member")
		} else if !exists {
			return game.Game{}, invalidInput("player %s is not a member of the competition's community", playerID)
		}
	}

	gameID, err := s.idGen.NewID()
	if err != nil {
		return game.Game{}, errors.Wrap(err, "generate game id")
	}
	now := s.now().UTC()
	g := game.Game{
		ID:            gameID,
		CompetitionID: comp.ID,
		Player1ID:     input.Player1ID,
		Player2ID:     input.Player2ID,
		Status:        game.StatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := g.Validate(); err != nil {
		return game.Game{}, domainError(err, "validate game")
	}
	if err := s.gameRepo.Create(ctx, g); err != nil {
		return game.Game{}, storeError(err, "create game")
	}
	return g, nil
}

// RecordMatch appends a match and recomputes the game's scores from the
// persisted match set, all under the game's lock.
func (s *GameService) RecordMatch(ctx context.Context, input RecordMatchInput) (game.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.RecordMatch", attribute.String("game_id", input.GameID))
	m, err := s.recordMatch(ctx, input)
	endSpan(span, err)
	return m, err
}

func (s *GameService) recordMatch(ctx context.Context, input RecordMatchInput) (game.Match, error) {
	input.GameID = strings.TrimSpace(input.GameID)
	if input.GameID == "" {
		return game.Match{}, invalidInput("game id is required")
	}

	matchID, err := s.idGen.NewID()
	if err != nil {
		return game.Match{}, errors.Wrap(err, "generate match id")
	}
	notes := trimOptional(input.Notes)

	result, err := s.gameRepo.Apply(ctx, input.GameID, func(current game.Game, matches []game.Match) (game.Transition, error) {
		m := game.Match{
			ID:           matchID,
			GameID:       current.ID,
			Player1Score: input.Player1Score,
			Player2Score: input.Player2Score,
			Notes:        notes,
			CreatedAt:    s.now().UTC(),
		}
		next, err := game.ApplyMatch(current, matches, m)
		if err != nil {
			return game.Transition{}, err
		}
		return game.Transition{Game: next, Match: &m}, nil
	})
	if err != nil {
		return game.Match{}, domainError(err, "record match")
	}

	s.metrics.MatchRecorded()
	return *result.Match, nil
}

// FinishGame closes the game and sets the winner from the persisted matches.
func (s *GameService) FinishGame(ctx context.Context, gameID string) (game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.FinishGame", attribute.String("game_id", gameID))
	g, err := s.finishGame(ctx, gameID)
	endSpan(span, err)
	return g, err
}

func (s *GameService) finishGame(ctx context.Context, gameID string) (game.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Game{}, invalidInput("game id is required")
	}

	result, err := s.gameRepo.Apply(ctx, gameID, func(current game.Game, matches []game.Match) (game.Transition, error) {
		next, err := game.Finish(current, matches, s.tiePolicy, s.now().UTC())
		if err != nil {
			return game.Transition{}, err
		}
		return game.Transition{Game: next}, nil
	})
	if err != nil {
		return game.Game{}, domainError(err, "finish game")
	}

	outcome := "winner"
	if result.Game.IsDraw() {
		outcome = "draw"
	}
	s.metrics.GameFinished(outcome)
	return result.Game, nil
}

// ComputeAggregateScores sums the persisted matches of a game.
func (s *GameService) ComputeAggregateScores(ctx context.Context, gameID string) (int, int, error) {
	g, err := s.Get(ctx, gameID)
	if err != nil {
		return 0, 0, err
	}
	matches, err := s.gameRepo.ListMatches(ctx, g.ID)
	if err != nil {
		return 0, 0, storeError(err, "list matches")
	}
	p1, p2 := game.ComputeAggregateScores(matches)
	return p1, p2, nil
}

func (s *GameService) Get(ctx context.Context, gameID string) (game.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return game.Game{}, invalidInput("game id is required")
	}

	g, exists, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return game.Game{}, storeError(err, "get game")
	}
	if !exists {
		return game.Game{}, notFound("game=%s", gameID)
	}
	return g, nil
}

// GetDetail loads a game together with its competition, players and matches.
func (s *GameService) GetDetail(ctx context.Context, gameID string) (GameDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.GetDetail", attribute.String("game_id", gameID))
	defer span.End()

	g, err := s.Get(ctx, gameID)
	if err != nil {
		return GameDetail{}, err
	}

	detail := GameDetail{Game: g}
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		c, exists, err := s.competitionRepo.GetByID(ctx, g.CompetitionID)
		if err != nil {
			return storeError(err, "get competition")
		}
		if !exists {
			return notFound("competition=%s", g.CompetitionID)
		}
		detail.Competition = c
		return nil
	})
	p.Go(func(ctx context.Context) error {
		players, err := s.playerRepo.ListByIDs(ctx, []string{g.Player1ID, g.Player2ID})
		if err != nil {
			return storeError(err, "list game players")
		}
		for _, pl := range players {
			switch pl.ID {
			case g.Player1ID:
				detail.Player1 = pl
			case g.Player2ID:
				detail.Player2 = pl
			}
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		matches, err := s.gameRepo.ListMatches(ctx, g.ID)
		if err != nil {
			return storeError(err, "list matches")
		}
		detail.Matches = matches
		return nil
	})
	if err := p.Wait(); err != nil {
		return GameDetail{}, err
	}
	return detail, nil
}

func (s *GameService) ListByCompetition(ctx context.Context, competitionID string) ([]game.Game, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, invalidInput("competition id is required")
	}
	if _, exists, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		return nil, storeError(err, "get competition")
	} else if !exists {
		return nil, notFound("competition=%s", competitionID)
	}

	games, err := s.gameRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, storeError(err, "list games")
	}
	return games, nil
}

func (s *GameService) ListMatches(ctx context.Context, gameID string) ([]game.Match, error) {
	g, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	matches, err := s.gameRepo.ListMatches(ctx, g.ID)
	if err != nil {
		return nil, storeError(err, "list matches")
	}
	return matches, nil
}
