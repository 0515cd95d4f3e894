package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/platform/id"
)

type CreatePlayerInput struct {
	Actor    Actor
	Name     string
	Nickname *string
	Phone    string
}

type UpdatePlayerContactInput struct {
	Actor    Actor
	PlayerID string
	Name     string
	Nickname *string
	Phone    string
}

type ListPlayersInput struct {
	Search string
	Limit  int
	Offset int
}

type PlayerService struct {
	playerRepo player.Repository
	idGen      id.Generator
	now        func() time.Time
}

func NewPlayerService(playerRepo player.Repository, idGen id.Generator) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		idGen:      idGen,
		now:        time.Now,
	}
}

func (s *PlayerService) Create(ctx context.Context, input CreatePlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.Create")
	p, err := s.create(ctx, input)
	endSpan(span, err)
	return p, err
}

func (s *PlayerService) create(ctx context.Context, input CreatePlayerInput) (player.Player, error) {
	contact, err := normalizeContact(input.Name, input.Nickname, input.Phone)
	if err != nil {
		return player.Player{}, err
	}

	if _, exists, err := s.playerRepo.GetByPhone(ctx, contact.Phone); err != nil {
		return player.Player{}, storeError(err, "get player by phone")
	} else if exists {
		return player.Player{}, errors.Mark(errors.Newf("a player with phone %s already exists", contact.Phone), ErrInvalidState)
	}

	playerID, err := s.idGen.NewID()
	if err != nil {
		return player.Player{}, errors.Wrap(err, "generate player id")
	}

	now := s.now().UTC()
	p := player.Player{
		ID:        playerID,
		Name:      contact.Name,
		Nickname:  contact.Nickname,
		Phone:     contact.Phone,
		CreatedBy: input.Actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.playerRepo.Create(ctx, p); err != nil {
		return player.Player{}, storeError(err, "create player")
	}
	return p, nil
}

// findOrCreateByPhone returns the player registered under phone, creating it
// with name when missing. created reports whether a row was inserted.
func (s *PlayerService) findOrCreateByPhone(ctx context.Context, actor Actor, name, phone string) (player.Player, bool, error) {
	normalized, err := player.NormalizePhone(phone)
	if err != nil {
		return player.Player{}, false, domainError(err, "normalize phone")
	}

	existing, exists, err := s.playerRepo.GetByPhone(ctx, normalized)
	if err != nil {
		return player.Player{}, false, storeError(err, "get player by phone")
	}
	if exists {
		return existing, false, nil
	}

	p, err := s.create(ctx, CreatePlayerInput{Actor: actor, Name: name, Phone: normalized})
	if errors.Is(err, ErrInvalidState) {
		// Lost a race against a concurrent insert of the same phone.
		if again, ok, getErr := s.playerRepo.GetByPhone(ctx, normalized); getErr == nil && ok {
			return again, false, nil
		}
	}
	if err != nil {
		return player.Player{}, false, err
	}
	return p, true, nil
}

func (s *PlayerService) Get(ctx context.Context, playerID string) (player.Player, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, invalidInput("player id is required")
	}

	p, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, storeError(err, "get player")
	}
	if !exists {
		return player.Player{}, notFound("player=%s", playerID)
	}
	return p, nil
}

func (s *PlayerService) List(ctx context.Context, input ListPlayersInput) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.List")
	defer span.End()

	if input.Limit <= 0 || input.Limit > 200 {
		input.Limit = 50
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	players, err := s.playerRepo.List(ctx, player.ListFilter{
		Search: strings.TrimSpace(input.Search),
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, storeError(err, "list players")
	}
	return players, nil
}

func (s *PlayerService) UpdateContact(ctx context.Context, input UpdatePlayerContactInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.UpdateContact", attribute.String("player_id", input.PlayerID))
	p, err := s.updateContact(ctx, input)
	endSpan(span, err)
	return p, err
}

func (s *PlayerService) updateContact(ctx context.Context, input UpdatePlayerContactInput) (player.Player, error) {
	current, err := s.Get(ctx, input.PlayerID)
	if err != nil {
		return player.Player{}, err
	}
	if err := authorizeOwner(input.Actor, current.CreatedBy, "player"); err != nil {
		return player.Player{}, err
	}

	contact, err := normalizeContact(input.Name, input.Nickname, input.Phone)
	if err != nil {
		return player.Player{}, err
	}
	if contact.Phone != current.Phone {
		if other, exists, err := s.playerRepo.GetByPhone(ctx, contact.Phone); err != nil {
			return player.Player{}, storeError(err, "get player by phone")
		} else if exists && other.ID != current.ID {
			return player.Player{}, errors.Mark(errors.Newf("phone %s belongs to another player", contact.Phone), ErrInvalidState)
		}
	}

	updated, err := s.playerRepo.UpdateContact(ctx, current.ID, contact, s.now().UTC())
	if err != nil {
		return player.Player{}, storeError(err, "update player contact")
	}
	return updated, nil
}

func (s *PlayerService) Delete(ctx context.Context, actor Actor, playerID string) error {
	current, err := s.Get(ctx, playerID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(actor, current.CreatedBy, "player"); err != nil {
		return err
	}
	if err := s.playerRepo.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, entitystore.ErrConstraint) {
			return errors.Mark(errors.Wrap(err, "player still has games or memberships"), ErrInvalidState)
		}
		return storeError(err, "delete player")
	}
	return nil
}

func normalizeContact(name string, nickname *string, phone string) (player.Contact, error) {
	contact := player.Contact{Name: strings.TrimSpace(name), Nickname: trimOptional(nickname)}
	if contact.Name == "" {
		return player.Contact{}, invalidInput("player name is required")
	}
	normalized, err := player.NormalizePhone(phone)
	if err != nil {
		return player.Contact{}, domainError(err, "normalize phone")
	}
	contact.Phone = normalized
	return contact, nil
}

// authorizeOwner lets admins and the creator of a row change it. Rows without
// a recorded creator are editable by any signed-in user.
func authorizeOwner(actor Actor, createdBy, resource string) error {
	if actor.Admin || createdBy == "" || actor.UserID == createdBy {
		return nil
	}
	return forbidden("only the creator of this %s can change it", resource)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
