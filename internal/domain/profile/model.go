package profile

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const RoleAdmin = "admin"

// Profile is the application-side record of an authenticated user.
type Profile struct {
	ID        string
	Name      string
	Nickname  *string
	Phone     string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("profile id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	return nil
}

func (p Profile) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Repository describes profile persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, profileID string) (Profile, bool, error)
	Create(ctx context.Context, p Profile) error
	Update(ctx context.Context, p Profile) (Profile, error)
}
