package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/integration"
)

type IntegrationRepository struct {
	store *Store
}

func NewIntegrationRepository(store *Store) *IntegrationRepository {
	return &IntegrationRepository{store: store}
}

func (r *IntegrationRepository) Enqueue(_ context.Context, t integration.Task) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; ok {
		return errors.Wrapf(entitystore.ErrDuplicate, "integration task %s", t.ID)
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *IntegrationRepository) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]integration.Task, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]integration.Task, 0)
	for _, t := range s.tasks {
		if t.Status == integration.StatusPending && !t.NextAttemptAt.After(now) {
			due = append(due, t)
		}
	}
	sortTasks(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]integration.Task, 0, len(due))
	for _, t := range due {
		claimed := t
		claimed.NextAttemptAt = now.Add(lease)
		s.tasks[t.ID] = claimed
		out = append(out, cloneTask(t))
	}
	return out, nil
}

func (r *IntegrationRepository) Save(_ context.Context, t integration.Task) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return errors.Wrapf(entitystore.ErrNotFound, "integration task %s", t.ID)
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *IntegrationRepository) ListByCommunity(_ context.Context, communityID string) ([]integration.Task, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]integration.Task, 0)
	for _, t := range s.tasks {
		if t.CommunityID == communityID {
			out = append(out, cloneTask(t))
		}
	}
	sortTasks(out)
	return out, nil
}

func sortTasks(items []integration.Task) {
	slices.SortFunc(items, func(a, b integration.Task) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneTask(t integration.Task) integration.Task {
	t.Phone = clonePtr(t.Phone)
	t.Message = clonePtr(t.Message)
	t.GroupRef = clonePtr(t.GroupRef)
	return t
}
