package competition

import "context"

type ListFilter struct {
	CommunityID string
	Status      Status
}

// Repository describes competition persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, c Competition) error
	GetByID(ctx context.Context, competitionID string) (Competition, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Competition, error)
	// UpdateStatus writes next only while the stored status still equals
	// expected; otherwise it returns entitystore.ErrStale.
	UpdateStatus(ctx context.Context, expected Status, next Competition) (Competition, error)
}
