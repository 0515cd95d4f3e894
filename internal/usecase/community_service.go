package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/platform/id"
	"github.com/riskibarqy/domatch/internal/platform/logging"
)

type CreateCommunityInput struct {
	Actor       Actor
	Name        string
	Description *string
	Location    *string
}

type UpdateCommunityInput struct {
	Actor       Actor
	CommunityID string
	Name        string
	Description *string
	Location    *string
}

type JoinCommunityInput struct {
	Actor       Actor
	CommunityID string
	PlayerID    string
	Role        string
}

type AddPlayerByPhoneInput struct {
	Actor       Actor
	CommunityID string
	Name        string
	Phone       string
}

// CommunityResult is a community plus any non-fatal messaging failures.
type CommunityResult struct {
	Community community.Community
	Warnings  []Warning
}

type AddPlayerResult struct {
	Player        player.Player
	Membership    community.Membership
	PlayerCreated bool
	Warnings      []Warning
}

type CommunityService struct {
	communityRepo community.Repository
	players       *PlayerService
	groups        *groupLinker
	metrics       MetricsRecorder
	idGen         id.Generator
	logger        *logging.Logger
	now           func() time.Time
}

// NewCommunityService wires the community use cases. gateway may be nil, in
// which case no messaging group is ever created.
func NewCommunityService(
	communityRepo community.Repository,
	players *PlayerService,
	taskRepo integration.Repository,
	gateway MessagingGateway,
	idGen id.Generator,
	metrics MetricsRecorder,
	logger *logging.Logger,
) *CommunityService {
	if logger == nil {
		logger = logging.Default()
	}
	metrics = metricsOrNoop(metrics)
	logger = logger.Named("community")

	return &CommunityService{
		communityRepo: communityRepo,
		players:       players,
		groups: &groupLinker{
			communityRepo: communityRepo,
			taskRepo:      taskRepo,
			gateway:       gateway,
			idGen:         idGen,
			metrics:       metrics,
			logger:        logger,
			now:           time.Now,
		},
		metrics: metrics,
		idGen:   idGen,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateCommunity stores the community, then tries to create its chat group.
// A messaging failure never fails the call: the community comes back without
// a group reference, with a warning and a pending retry task.
func (s *CommunityService) CreateCommunity(ctx context.Context, input CreateCommunityInput) (CommunityResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommunityService.CreateCommunity")
	result, err := s.createCommunity(ctx, input)
	endSpan(span, err)
	return result, err
}

func (s *CommunityService) createCommunity(ctx context.Context, input CreateCommunityInput) (CommunityResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CommunityResult{}, invalidInput("community name is required")
	}

	communityID, err := s.idGen.NewID()
	if err != nil {
		return CommunityResult{}, errors.Wrap(err, "generate community id")
	}
	now := s.now().UTC()
	c := community.Community{
		ID:          communityID,
		Name:        input.Name,
		Description: trimOptional(input.Description),
		Location:    trimOptional(input.Location),
		CreatedBy:   input.Actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.communityRepo.Create(ctx, c); err != nil {
		return CommunityResult{}, storeError(err, "create community")
	}

	result := CommunityResult{Community: c}
	if !s.groups.enabled() {
		return result, nil
	}

	attached, err := s.groups.createAndAttach(ctx, c)
	if err != nil {
		result.Warnings = append(result.Warnings, s.groups.deferStep(ctx, "create messaging group", err, integration.Task{
			Kind:        integration.KindCreateGroup,
			CommunityID: c.ID,
			GroupRef:    createdGroupRef(err),
		}))
		return result, nil
	}
	result.Community = attached
	return result, nil
}

func (s *CommunityService) Get(ctx context.Context, communityID string) (community.Community, error) {
	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return community.Community{}, invalidInput("community id is required")
	}

	c, exists, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return community.Community{}, storeError(err, "get community")
	}
	if !exists {
		return community.Community{}, notFound("community=%s", communityID)
	}
	return c, nil
}

func (s *CommunityService) List(ctx context.Context) ([]community.Community, error) {
	items, err := s.communityRepo.List(ctx)
	if err != nil {
		return nil, storeError(err, "list communities")
	}
	return items, nil
}

func (s *CommunityService) Update(ctx context.Context, input UpdateCommunityInput) (community.Community, error) {
	current, err := s.Get(ctx, input.CommunityID)
	if err != nil {
		return community.Community{}, err
	}
	if err := authorizeOwner(input.Actor, current.CreatedBy, "community"); err != nil {
		return community.Community{}, err
	}

	details := community.Details{
		Name:        strings.TrimSpace(input.Name),
		Description: trimOptional(input.Description),
		Location:    trimOptional(input.Location),
	}
	if details.Name == "" {
		return community.Community{}, invalidInput("community name is required")
	}

	updated, err := s.communityRepo.Update(ctx, current.ID, details, s.now().UTC())
	if err != nil {
		return community.Community{}, storeError(err, "update community")
	}
	return updated, nil
}

func (s *CommunityService) Delete(ctx context.Context, actor Actor, communityID string) error {
	current, err := s.Get(ctx, communityID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(actor, current.CreatedBy, "community"); err != nil {
		return err
	}
	if err := s.communityRepo.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, entitystore.ErrConstraint) {
			return errors.Mark(errors.Wrap(err, "community still has competitions"), ErrInvalidState)
		}
		return storeError(err, "delete community")
	}
	return nil
}

// JoinCommunity adds a membership. A second join for the same pair fails with
// ErrDuplicateMembership and leaves the existing row untouched.
func (s *CommunityService) JoinCommunity(ctx context.Context, input JoinCommunityInput) (community.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommunityService.JoinCommunity",
		attribute.String("community_id", input.CommunityID),
		attribute.String("player_id", input.PlayerID),
	)
	m, err := s.joinCommunity(ctx, input)
	endSpan(span, err)
	return m, err
}

func (s *CommunityService) joinCommunity(ctx context.Context, input JoinCommunityInput) (community.Membership, error) {
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.PlayerID == "" {
		return community.Membership{}, invalidInput("player id is required")
	}
	role, err := community.ParseRole(input.Role)
	if err != nil {
		return community.Membership{}, domainError(err, "parse role")
	}

	c, err := s.Get(ctx, input.CommunityID)
	if err != nil {
		return community.Membership{}, err
	}
	if role == community.RoleAdmin {
		if err := authorizeOwner(input.Actor, c.CreatedBy, "community"); err != nil {
			return community.Membership{}, err
		}
	}
	p, err := s.players.Get(ctx, input.PlayerID)
	if err != nil {
		return community.Membership{}, err
	}

	return s.addMember(ctx, input.Actor, c, p, role)
}

func (s *CommunityService) addMember(ctx context.Context, actor Actor, c community.Community, p player.Player, role community.Role) (community.Membership, error) {
	membershipID, err := s.idGen.NewID()
	if err != nil {
		return community.Membership{}, errors.Wrap(err, "generate membership id")
	}
	m := community.Membership{
		ID:          membershipID,
		CommunityID: c.ID,
		PlayerID:    p.ID,
		Role:        role,
		CreatedBy:   actor.UserID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.communityRepo.AddMember(ctx, m); err != nil {
		if errors.Is(err, entitystore.ErrDuplicate) {
			s.metrics.DuplicateJoinRejected("community")
			return community.Membership{}, errors.Mark(
				errors.WithHint(errors.Wrapf(err, "player %s is already in community %s", p.ID, c.ID), "this player is already a member of the community"),
				ErrDuplicateMembership,
			)
		}
		return community.Membership{}, storeError(err, "add community member")
	}
	return m, nil
}

// AddPlayerByPhone finds or registers the player behind phone, makes them a
// member and then, best-effort, adds them to the chat group and greets them.
func (s *CommunityService) AddPlayerByPhone(ctx context.Context, input AddPlayerByPhoneInput) (AddPlayerResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommunityService.AddPlayerByPhone", attribute.String("community_id", input.CommunityID))
	result, err := s.addPlayerByPhone(ctx, input)
	endSpan(span, err)
	return result, err
}

func (s *CommunityService) addPlayerByPhone(ctx context.Context, input AddPlayerByPhoneInput) (AddPlayerResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return AddPlayerResult{}, invalidInput("player name is required")
	}

	c, err := s.Get(ctx, input.CommunityID)
	if err != nil {
		return AddPlayerResult{}, err
	}
	p, created, err := s.players.findOrCreateByPhone(ctx, input.Actor, input.Name, input.Phone)
	if err != nil {
		return AddPlayerResult{}, err
	}
	m, err := s.addMember(ctx, input.Actor, c, p, community.RoleMember)
	if err != nil {
		return AddPlayerResult{}, err
	}

	result := AddPlayerResult{Player: p, Membership: m, PlayerCreated: created}
	if !s.groups.enabled() {
		return result, nil
	}

	// Without a group yet, the member is included when the group gets created.
	if c.HasExternalGroup() {
		if err := s.groups.addParticipant(ctx, c, p.Phone); err != nil {
			result.Warnings = append(result.Warnings, s.groups.deferStep(ctx, "add player to messaging group", err, integration.Task{
				Kind:        integration.KindAddParticipant,
				CommunityID: c.ID,
				Phone:       &p.Phone,
			}))
		}
	}

	text := welcomeMessage(c, p)
	if err := s.groups.sendMessage(ctx, p.Phone, text); err != nil {
		result.Warnings = append(result.Warnings, s.groups.deferStep(ctx, "send welcome message", err, integration.Task{
			Kind:        integration.KindSendMessage,
			CommunityID: c.ID,
			Phone:       &p.Phone,
			Message:     &text,
		}))
	}
	return result, nil
}

// RemoveMember deletes a membership. Removing the player from the chat group
// is best-effort and reported as a warning on failure.
func (s *CommunityService) RemoveMember(ctx context.Context, actor Actor, communityID, playerID string) ([]Warning, error) {
	c, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, c.CreatedBy, "community"); err != nil {
		return nil, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, invalidInput("player id is required")
	}

	if err := s.communityRepo.RemoveMember(ctx, c.ID, playerID); err != nil {
		return nil, storeError(err, "remove community member")
	}

	if !s.groups.enabled() || !c.HasExternalGroup() {
		return nil, nil
	}
	p, exists, err := s.players.playerRepo.GetByID(ctx, playerID)
	if err == nil && !exists {
		err = errors.Wrapf(ErrNotFound, "player %s", playerID)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "remove group participant skipped, player lookup failed",
			"community_id", c.ID,
			"player_id", playerID,
			"error", err,
		)
		return []Warning{secondaryIntegrationWarning("remove player from messaging group", err, "")}, nil
	}
	if err := s.groups.gateway.RemoveParticipant(ctx, *c.ExternalGroupRef, player.Digits(p.Phone)); err != nil {
		s.metrics.GatewayCallFailed("remove_participant")
		s.logger.WarnContext(ctx, "remove group participant failed",
			"community_id", c.ID,
			"player_id", playerID,
			"error", err,
		)
		return []Warning{secondaryIntegrationWarning("remove player from messaging group", err, "")}, nil
	}
	return nil, nil
}

func (s *CommunityService) ListMembers(ctx context.Context, communityID string) ([]community.Member, error) {
	c, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	members, err := s.communityRepo.ListMembers(ctx, c.ID)
	if err != nil {
		return nil, storeError(err, "list community members")
	}
	return members, nil
}

// RetryGroupAttachment is the manual path for a community whose group was
// never created. It is a no-op when the group is already attached.
func (s *CommunityService) RetryGroupAttachment(ctx context.Context, actor Actor, communityID string) (CommunityResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommunityService.RetryGroupAttachment", attribute.String("community_id", communityID))
	defer span.End()

	c, err := s.Get(ctx, communityID)
	if err != nil {
		return CommunityResult{}, err
	}
	if err := authorizeOwner(actor, c.CreatedBy, "community"); err != nil {
		return CommunityResult{}, err
	}
	if c.HasExternalGroup() {
		return CommunityResult{Community: c}, nil
	}
	if !s.groups.enabled() {
		return CommunityResult{}, errors.Mark(errors.New("messaging is not configured"), ErrRemoteUnavailable)
	}

	attached, err := s.groups.createAndAttach(ctx, c)
	if ref := createdGroupRef(err); ref != nil {
		// The group exists now; only the reference is still owed.
		return CommunityResult{
			Community: c,
			Warnings: []Warning{s.groups.deferStep(ctx, "attach messaging group", err, integration.Task{
				Kind:        integration.KindCreateGroup,
				CommunityID: c.ID,
				GroupRef:    ref,
			})},
		}, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "manual group attachment failed", "community_id", c.ID, "error", err)
		return CommunityResult{
			Community: c,
			Warnings:  []Warning{secondaryIntegrationWarning("create messaging group", err, "")},
		}, nil
	}
	return CommunityResult{Community: attached}, nil
}
