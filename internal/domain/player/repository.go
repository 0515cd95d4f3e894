package player

import (
	"context"
	"time"
)

type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository describes player persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, p Player) error
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByPhone(ctx context.Context, phone string) (Player, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Player, error)
	ListByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	UpdateContact(ctx context.Context, playerID string, contact Contact, updatedAt time.Time) (Player, error)
	Delete(ctx context.Context, playerID string) error
}
