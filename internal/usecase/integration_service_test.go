package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	usecasemock "github.com/riskibarqy/domatch/internal/mocks/usecase"
)

func TestIntegrationService_ProcessDue_RetriesGroupCreation(t *testing.T) {
	t.Parallel()

	gateway := usecasemock.NewMessagingGateway(t)
	gateway.
		On("CreateGroup", mock.Anything, "Sunday League", mock.Anything, mock.Anything).
		Return("", errors.New("gateway unreachable")).
		Once()
	gateway.
		On("CreateGroup", mock.Anything, "Sunday League", mock.Anything, mock.Anything).
		Return("group-42", nil).
		Once()

	env := newTestEnv(t, gateway, game.TiePolicyReject)
	c := env.mustCommunity(t, "Sunday League")
	require.Nil(t, c.ExternalGroupRef)

	report, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Claimed)
	assert.Equal(t, 1, report.Done)
	require.Len(t, report.Tasks, 1)
	assert.Equal(t, integration.StatusDone, report.Tasks[0].Status)

	stored, err := env.communities.Get(t.Context(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalGroupRef)
	assert.Equal(t, "group-42", *stored.ExternalGroupRef)

	again, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Zero(t, again.Claimed)
}

// flakyAttach fails the first AttachExternalGroup calls.
type flakyAttach struct {
	community.Repository
	failures int
}

func (r *flakyAttach) AttachExternalGroup(ctx context.Context, communityID, groupRef string, updatedAt time.Time) (community.Community, error) {
	if r.failures > 0 {
		r.failures--
		return community.Community{}, errors.New("connection reset")
	}
	return r.Repository.AttachExternalGroup(ctx, communityID, groupRef, updatedAt)
}

func TestIntegrationService_ProcessDue_AttachesCreatedGroupWithoutRecreating(t *testing.T) {
	t.Parallel()

	gateway := usecasemock.NewMessagingGateway(t)
	gateway.
		On("CreateGroup", mock.Anything, "Sunday League", mock.Anything, mock.Anything).
		Return("group-42", nil).
		Once()

	env := newTestEnv(t, gateway, game.TiePolicyReject)
	env.communities.groups.communityRepo = &flakyAttach{Repository: env.communities.groups.communityRepo, failures: 1}

	result, err := env.communities.CreateCommunity(t.Context(), CreateCommunityInput{Actor: env.owner, Name: "Sunday League"})
	require.NoError(t, err)
	require.Nil(t, result.Community.ExternalGroupRef)
	require.Len(t, result.Warnings, 1)
	assert.NotEmpty(t, result.Warnings[0].RetryTaskID)

	tasks, err := env.integrations.ListByCommunity(t.Context(), result.Community.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].GroupRef)
	assert.Equal(t, "group-42", *tasks[0].GroupRef)

	report, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Done)

	stored, err := env.communities.Get(t.Context(), result.Community.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalGroupRef)
	assert.Equal(t, "group-42", *stored.ExternalGroupRef)
	gateway.AssertNumberOfCalls(t, "CreateGroup", 1)
}

func TestIntegrationService_ProcessDue_KeepsGroupCreatedByRetry(t *testing.T) {
	t.Parallel()

	gateway := usecasemock.NewMessagingGateway(t)
	gateway.
		On("CreateGroup", mock.Anything, "Sunday League", mock.Anything, mock.Anything).
		Return("", errors.New("gateway unreachable")).
		Once()
	gateway.
		On("CreateGroup", mock.Anything, "Sunday League", mock.Anything, mock.Anything).
		Return("group-42", nil).
		Once()

	env := newTestEnv(t, gateway, game.TiePolicyReject)
	c := env.mustCommunity(t, "Sunday League")
	env.communities.groups.communityRepo = &flakyAttach{Repository: env.communities.groups.communityRepo, failures: 1}

	report, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retrying)

	tasks, err := env.integrations.ListByCommunity(t.Context(), c.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].GroupRef)
	assert.Equal(t, "group-42", *tasks[0].GroupRef)

	env.integrations.now = func() time.Time { return testNow.Add(time.Hour) }
	report, err = env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Done)

	stored, err := env.communities.Get(t.Context(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalGroupRef)
	assert.Equal(t, "group-42", *stored.ExternalGroupRef)
	gateway.AssertNumberOfCalls(t, "CreateGroup", 2)
}

func TestIntegrationService_ProcessDue_ReschedulesFailures(t *testing.T) {
	t.Parallel()

	gateway := usecasemock.NewMessagingGateway(t)
	gateway.
		On("CreateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("status 503")).
		Times(3)

	env := newTestEnv(t, gateway, game.TiePolicyReject)
	c := env.mustCommunity(t, "Sunday League")

	report, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retrying)
	require.Len(t, report.Tasks, 1)
	assert.Equal(t, integration.StatusPending, report.Tasks[0].Status)
	assert.Equal(t, 1, report.Tasks[0].Attempts)
	assert.Contains(t, report.Tasks[0].Message, "status 503")

	tasks, err := env.integrations.ListByCommunity(t.Context(), c.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, testNow.Add(integration.DefaultBackoff().Base), tasks[0].NextAttemptAt)

	// Not due yet.
	report, err = env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Zero(t, report.Claimed)

	env.integrations.now = func() time.Time { return testNow.Add(time.Hour) }
	_, err = env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
}

func TestIntegrationService_ProcessDue_DropsTasksOfDeletedCommunities(t *testing.T) {
	t.Parallel()

	gateway := usecasemock.NewMessagingGateway(t)
	gateway.
		On("CreateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("timeout")).
		Once()

	env := newTestEnv(t, gateway, game.TiePolicyReject)
	c := env.mustCommunity(t, "Sunday League")
	require.NoError(t, env.communities.Delete(t.Context(), env.owner, c.ID))

	report, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.Zero(t, report.Claimed)
}

func TestIntegrationService_ProcessDue_SkipsWithoutGateway(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, game.TiePolicyReject)
	report, err := env.integrations.ProcessDue(t.Context())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
}
