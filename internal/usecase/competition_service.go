package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/platform/id"
)

type CreateCompetitionInput struct {
	Actor       Actor
	CommunityID string
	Name        string
	Description *string
	StartDate   time.Time
	EndDate     *time.Time
}

type ListCompetitionsInput struct {
	CommunityID string
	Status      string
}

type CompetitionService struct {
	competitionRepo competition.Repository
	communityRepo   community.Repository
	gameRepo        game.Repository
	idGen           id.Generator
	now             func() time.Time
}

func NewCompetitionService(
	competitionRepo competition.Repository,
	communityRepo community.Repository,
	gameRepo game.Repository,
	idGen id.Generator,
) *CompetitionService {
	return &CompetitionService{
		competitionRepo: competitionRepo,
		communityRepo:   communityRepo,
		gameRepo:        gameRepo,
		idGen:           idGen,
		now:             time.Now,
	}
}

func (s *CompetitionService) Create(ctx context.Context, input CreateCompetitionInput) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Create", attribute.String("community_id", input.CommunityID))
	c, err := s.create(ctx, input)
	endSpan(span, err)
	return c, err
}

func (s *CompetitionService) create(ctx context.Context, input CreateCompetitionInput) (competition.Competition, error) {
	input.CommunityID = strings.TrimSpace(input.CommunityID)
	input.Name = strings.TrimSpace(input.Name)
	if input.CommunityID == "" {
		return competition.Competition{}, invalidInput("community id is required")
	}
	if input.Name == "" {
		return competition.Competition{}, invalidInput("competition name is required")
	}

	if _, exists, err := s.communityRepo.GetByID(ctx, input.CommunityID); err != nil {
		return competition.Competition{}, storeError(err, "get community")
	} else if !exists {
		return competition.Competition{}, notFound("community=%s", input.CommunityID)
	}

	competitionID, err := s.idGen.NewID()
	if err != nil {
		return competition.Competition{}, errors.Wrap(err, "generate competition id")
	}

	now := s.now().UTC()
	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	c := competition.Competition{
		ID:          competitionID,
		CommunityID: input.CommunityID,
		Name:        input.Name,
		Description: trimOptional(input.Description),
		Status:      competition.StatusDraft,
		StartDate:   startDate.UTC(),
		EndDate:     input.EndDate,
		CreatedBy:   input.Actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Validate(); err != nil {
		return competition.Competition{}, errors.Mark(err, ErrInvalidInput)
	}
	if err := s.competitionRepo.Create(ctx, c); err != nil {
		return competition.Competition{}, storeError(err, "create competition")
	}
	return c, nil
}

func (s *CompetitionService) Get(ctx context.Context, competitionID string) (competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return competition.Competition{}, invalidInput("competition id is required")
	}

	c, exists, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, storeError(err, "get competition")
	}
	if !exists {
		return competition.Competition{}, notFound("competition=%s", competitionID)
	}
	return c, nil
}

func (s *CompetitionService) List(ctx context.Context, input ListCompetitionsInput) ([]competition.Competition, error) {
	filter := competition.ListFilter{CommunityID: strings.TrimSpace(input.CommunityID)}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := competition.ParseStatus(raw)
		if err != nil {
			return nil, domainError(err, "parse status")
		}
		filter.Status = status
	}

	items, err := s.competitionRepo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "list competitions")
	}
	return items, nil
}

func (s *CompetitionService) Start(ctx context.Context, actor Actor, competitionID string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Start", attribute.String("competition_id", competitionID))
	c, err := s.transition(ctx, actor, competitionID, func(current competition.Competition, now time.Time) (competition.Competition, error) {
		return current.Start(now)
	})
	endSpan(span, err)
	return c, err
}

// Finish closes the competition; it is refused while any of its games is open.
func (s *CompetitionService) Finish(ctx context.Context, actor Actor, competitionID string) (competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionService.Finish", attribute.String("competition_id", competitionID))
	c, err := s.transition(ctx, actor, competitionID, func(current competition.Competition, now time.Time) (competition.Competition, error) {
		if current.Status != competition.StatusInProgress {
			return current.Finish(now, 0)
		}
		unfinished, err := s.gameRepo.CountUnfinished(ctx, current.ID)
		if err != nil {
			return current, storeError(err, "count unfinished games")
		}
		return current.Finish(now, unfinished)
	})
	endSpan(span, err)
	return c, err
}

func (s *CompetitionService) transition(
	ctx context.Context,
	actor Actor,
	competitionID string,
	next func(competition.Competition, time.Time) (competition.Competition, error),
) (competition.Competition, error) {
	current, err := s.Get(ctx, competitionID)
	if err != nil {
		return competition.Competition{}, err
	}
	if err := s.authorizeCommunityOwner(ctx, actor, current.CommunityID); err != nil {
		return competition.Competition{}, err
	}

	updated, err := next(current, s.now().UTC())
	if err != nil {
		return competition.Competition{}, domainError(err, "competition transition")
	}
	saved, err := s.competitionRepo.UpdateStatus(ctx, current.Status, updated)
	if err != nil {
		return competition.Competition{}, storeError(err, "update competition status")
	}
	return saved, nil
}

func (s *CompetitionService) authorizeCommunityOwner(ctx context.Context, actor Actor, communityID string) error {
	if actor.Admin {
		return nil
	}
	c, exists, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return storeError(err, "get community")
	}
	if !exists {
		return nil
	}
	return authorizeOwner(actor, c.CreatedBy, "competition")
}
