package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/platform/id"
	"github.com/riskibarqy/domatch/internal/platform/logging"
)

var errGroupNotAttached = errors.New("community has no messaging group yet")

// attachError is returned when the gateway created a group but its reference
// could not be stored. A retry must attach groupRef instead of creating another.
type attachError struct {
	groupRef string
	cause    error
}

func (e *attachError) Error() string { return "attach messaging group: " + e.cause.Error() }
func (e *attachError) Unwrap() error { return e.cause }

// createdGroupRef returns the reference carried by an attachError, or nil.
func createdGroupRef(err error) *string {
	var ae *attachError
	if !errors.As(err, &ae) {
		return nil
	}
	ref := ae.groupRef
	return &ref
}

// groupLinker owns the messaging side effects of communities. It is shared by
// the community use cases and the integration retry worker.
type groupLinker struct {
	communityRepo community.Repository
	taskRepo      integration.Repository
	gateway       MessagingGateway
	idGen         id.Generator
	metrics       MetricsRecorder
	logger        *logging.Logger
	now           func() time.Time
}

func (l *groupLinker) enabled() bool {
	return l.gateway != nil
}

// createAndAttach creates the chat group with every current member and stores
// its reference. A community that already has a group is returned unchanged.
func (l *groupLinker) createAndAttach(ctx context.Context, c community.Community) (community.Community, error) {
	if c.HasExternalGroup() {
		return c, nil
	}

	members, err := l.communityRepo.ListMembers(ctx, c.ID)
	if err != nil {
		return c, errors.Wrap(err, "list members for group")
	}
	participants := make([]string, 0, len(members))
	for _, m := range members {
		participants = append(participants, player.Digits(m.Player.Phone))
	}

	description := ""
	if c.Description != nil {
		description = *c.Description
	}
	groupRef, err := l.gateway.CreateGroup(ctx, c.Name, description, participants)
	if err != nil {
		l.metrics.GatewayCallFailed("create_group")
		return c, errors.Wrap(err, "create messaging group")
	}
	return l.attach(ctx, c, groupRef)
}

// attach stores a group reference the gateway already handed out.
func (l *groupLinker) attach(ctx context.Context, c community.Community, groupRef string) (community.Community, error) {
	if c.HasExternalGroup() {
		return c, nil
	}
	updated, err := l.communityRepo.AttachExternalGroup(ctx, c.ID, groupRef, l.now().UTC())
	if err != nil {
		l.logger.ErrorContext(ctx, "messaging group created but reference not stored",
			"community_id", c.ID,
			"group_ref", groupRef,
			"error", err,
		)
		return c, &attachError{groupRef: groupRef, cause: err}
	}
	return updated, nil
}

func (l *groupLinker) addParticipant(ctx context.Context, c community.Community, phone string) error {
	if !c.HasExternalGroup() {
		return errGroupNotAttached
	}
	if err := l.gateway.AddParticipant(ctx, *c.ExternalGroupRef, player.Digits(phone)); err != nil {
		l.metrics.GatewayCallFailed("add_participant")
		return errors.Wrap(err, "add group participant")
	}
	return nil
}

func (l *groupLinker) sendMessage(ctx context.Context, phone, text string) error {
	if err := l.gateway.SendMessage(ctx, player.Digits(phone), text); err != nil {
		l.metrics.GatewayCallFailed("send_message")
		return errors.Wrap(err, "send message")
	}
	return nil
}

// deferStep records a pending task for a failed step and turns the failure into a
// warning. The warning is returned even when the task cannot be stored.
func (l *groupLinker) deferStep(ctx context.Context, step string, cause error, task integration.Task) Warning {
	l.logger.WarnContext(ctx, "messaging step failed, scheduling retry",
		"step", step,
		"community_id", task.CommunityID,
		"error", cause,
	)

	taskID, err := l.idGen.NewID()
	if err != nil {
		return secondaryIntegrationWarning(step, cause, "")
	}
	now := l.now().UTC()
	task.ID = taskID
	task.Status = integration.StatusPending
	task.LastError = cause.Error()
	task.NextAttemptAt = now
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := task.Validate(); err != nil {
		l.logger.ErrorContext(ctx, "invalid integration task", "error", err)
		return secondaryIntegrationWarning(step, cause, "")
	}
	if err := l.taskRepo.Enqueue(ctx, task); err != nil {
		l.logger.ErrorContext(ctx, "store integration task failed",
			"community_id", task.CommunityID,
			"kind", string(task.Kind),
			"error", err,
		)
		return secondaryIntegrationWarning(step, cause, "")
	}
	return secondaryIntegrationWarning(step, cause, taskID)
}

func welcomeMessage(c community.Community, p player.Player) string {
	return fmt.Sprintf("Hi %s! You were added to the %s domino community.", p.DisplayName(), c.Name)
}
