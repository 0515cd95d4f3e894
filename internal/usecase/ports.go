package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
)

// MessagingGateway is the chat-group service. Every call is best-effort from
// the use cases' point of view.
type MessagingGateway interface {
	CreateGroup(ctx context.Context, name, description string, participants []string) (string, error)
	AddParticipant(ctx context.Context, groupRef, phone string) error
	RemoveParticipant(ctx context.Context, groupRef, phone string) error
	SendMessage(ctx context.Context, phone, text string) error
}

// MetricsRecorder receives domain counters.
type MetricsRecorder interface {
	MatchRecorded()
	GameFinished(outcome string)
	DuplicateJoinRejected(target string)
	GatewayCallFailed(op string)
	IntegrationTaskProcessed(kind, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) MatchRecorded() {}
func (noopMetrics) GameFinished(string) {}
func (noopMetrics) DuplicateJoinRejected(string) {}
func (noopMetrics) GatewayCallFailed(string) {}
func (noopMetrics) IntegrationTaskProcessed(string, string) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Admin  bool
}

const WarningSecondaryIntegration = "SECONDARY_INTEGRATION"

// Warning reports a non-fatal failure next to a successful result.
type Warning struct {
	Code    string
	Message string
	// RetryTaskID names the pending integration task that will retry the step.
	RetryTaskID string
	Err         error
}

func secondaryIntegrationWarning(step string, cause error, taskID string) Warning {
	message := step + " failed"
	if taskID != "" {
		message += "; it will be retried"
	}
	return Warning{
		Code:        WarningSecondaryIntegration,
		Message:     message,
		RetryTaskID: taskID,
		Err:         errors.Mark(errors.Wrap(cause, step), ErrSecondaryIntegration),
	}
}
