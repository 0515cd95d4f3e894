package integration

import (
	"context"
	"time"
)

// Repository describes integration task persistence needs from use cases.
type Repository interface {
	Enqueue(ctx context.Context, t Task) error
	// ClaimDue returns up to limit pending tasks due at now and hides them from
	// other claimers until now+lease.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Task, error)
	// Save writes the outcome of an attempt.
	Save(ctx context.Context, t Task) error
	ListByCommunity(ctx context.Context, communityID string) ([]Task, error)
}
