package tournament

import "context"

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, t Tournament) error
	GetByID(ctx context.Context, tournamentID string) (Tournament, bool, error)
	List(ctx context.Context, status Status) ([]Tournament, error)
	ListParticipants(ctx context.Context, tournamentID string) ([]Participant, error)

	// Join locks the tournament, checks Tournament.CanJoin, inserts p and
	// bumps the participant count atomically. A repeated pair fails with
	// entitystore.ErrDuplicate.
	Join(ctx context.Context, p Participant) (Tournament, error)
}
