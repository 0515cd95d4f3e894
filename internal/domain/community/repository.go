package community

import (
	"context"
	"time"
)

// Repository describes community and membership persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, c Community) error
	GetByID(ctx context.Context, communityID string) (Community, bool, error)
	List(ctx context.Context) ([]Community, error)
	Update(ctx context.Context, communityID string, details Details, updatedAt time.Time) (Community, error)
	Delete(ctx context.Context, communityID string) error
	AttachExternalGroup(ctx context.Context, communityID, groupRef string, updatedAt time.Time) (Community, error)

	// AddMember fails with entitystore.ErrDuplicate when the pair already exists.
	AddMember(ctx context.Context, m Membership) error
	RemoveMember(ctx context.Context, communityID, playerID string) error
	GetMember(ctx context.Context, communityID, playerID string) (Membership, bool, error)
	ListMembers(ctx context.Context, communityID string) ([]Member, error)
	ListCommunitiesOfPlayer(ctx context.Context, playerID string) ([]Community, error)
}
