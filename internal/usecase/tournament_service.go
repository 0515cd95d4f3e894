package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
	"github.com/riskibarqy/domatch/internal/platform/id"
)

type CreateTournamentInput struct {
	Actor           Actor
	Name            string
	Description     string
	StartDate       time.Time
	EndDate         *time.Time
	MaxParticipants int
	Prize           *string
}

type JoinTournamentInput struct {
	TournamentID string
	PlayerID     string
}

type TournamentService struct {
	tournamentRepo tournament.Repository
	playerRepo     player.Repository
	idGen          id.Generator
	metrics        MetricsRecorder
	now            func() time.Time
}

func NewTournamentService(tournamentRepo tournament.Repository, playerRepo player.Repository, idGen id.Generator, metrics MetricsRecorder) *TournamentService {
	return &TournamentService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		idGen:          idGen,
		metrics:        metricsOrNoop(metrics),
		now:            time.Now,
	}
}

func (s *TournamentService) Create(ctx context.Context, input CreateTournamentInput) (tournament.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return tournament.Tournament{}, invalidInput("tournament name is required")
	}
	if input.StartDate.IsZero() {
		return tournament.Tournament{}, invalidInput("tournament start date is required")
	}

	tournamentID, err := s.idGen.NewID()
	if err != nil {
		return tournament.Tournament{}, errors.Wrap(err, "generate tournament id")
	}
	t := tournament.Tournament{
		ID:              tournamentID,
		Name:            input.Name,
		Description:     strings.TrimSpace(input.Description),
		StartDate:       input.StartDate.UTC(),
		EndDate:         input.EndDate,
		MaxParticipants: input.MaxParticipants,
		Prize:           trimOptional(input.Prize),
		Status:          tournament.StatusOpen,
		CreatedBy:       input.Actor.UserID,
		CreatedAt:       s.now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return tournament.Tournament{}, errors.Mark(err, ErrInvalidInput)
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return tournament.Tournament{}, storeError(err, "create tournament")
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context, status string) ([]tournament.Tournament, error) {
	st := tournament.Status(strings.TrimSpace(status))
	switch st {
	case "", tournament.StatusOpen, tournament.StatusInProgress, tournament.StatusFinished:
	default:
		return nil, invalidInput("unknown tournament status %q", status)
	}

	items, err := s.tournamentRepo.List(ctx, st)
	if err != nil {
		return nil, storeError(err, "list tournaments")
	}
	return items, nil
}

// JoinTournament registers a player. A repeated join fails with
// ErrDuplicateMembership; a closed or full tournament with ErrInvalidState.
func (s *TournamentService) JoinTournament(ctx context.Context, input JoinTournamentInput) (tournament.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.JoinTournament", attribute.String("tournament_id", input.TournamentID))
	p, err := s.join(ctx, input)
	endSpan(span, err)
	return p, err
}

func (s *TournamentService) join(ctx context.Context, input JoinTournamentInput) (tournament.Participant, error) {
	input.TournamentID = strings.TrimSpace(input.TournamentID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.TournamentID == "" || input.PlayerID == "" {
		return tournament.Participant{}, invalidInput("tournament id and player id are required")
	}

	if _, exists, err := s.playerRepo.GetByID(ctx, input.PlayerID); err != nil {
		return tournament.Participant{}, storeError(err, "get player")
	} else if !exists {
		return tournament.Participant{}, notFound("player=%s", input.PlayerID)
	}

	participant := tournament.Participant{
		TournamentID: input.TournamentID,
		PlayerID:     input.PlayerID,
		JoinedAt:     s.now().UTC(),
	}
	if _, err := s.tournamentRepo.Join(ctx, participant); err != nil {
		if errors.Is(err, entitystore.ErrDuplicate) {
			s.metrics.DuplicateJoinRejected("tournament")
			return tournament.Participant{}, errors.Mark(
				errors.WithHint(errors.Wrap(err, "join tournament"), "this player is already registered for the tournament"),
				ErrDuplicateMembership,
			)
		}
		return tournament.Participant{}, domainError(err, "join tournament")
	}
	return participant, nil
}

func (s *TournamentService) ListParticipants(ctx context.Context, tournamentID string) ([]tournament.Participant, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if _, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, storeError(err, "get tournament")
	} else if !exists {
		return nil, notFound("tournament=%s", tournamentID)
	}
	items, err := s.tournamentRepo.ListParticipants(ctx, tournamentID)
	if err != nil {
		return nil, storeError(err, "list tournament participants")
	}
	return items, nil
}
