package community

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/player"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

var ErrInvalidRole = errors.New("invalid membership role")

// ParseRole defaults an empty role to member.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleMember:
		return RoleMember, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", errors.Wrapf(ErrInvalidRole, "%q", raw)
	}
}

// Community is a named group of players sharing competitions.
// ExternalGroupRef is attached after creation, best-effort.
type Community struct {
	ID               string
	Name             string
	Description      *string
	Location         *string
	ExternalGroupRef *string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c Community) HasExternalGroup() bool {
	return c.ExternalGroupRef != nil && *c.ExternalGroupRef != ""
}

func (c Community) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("community id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("community name is required")
	}
	return nil
}

// Details is the editable part of a Community.
type Details struct {
	Name        string
	Description *string
	Location    *string
}

// Membership links a player to a community; unique per (CommunityID, PlayerID).
type Membership struct {
	ID          string
	CommunityID string
	PlayerID    string
	Role        Role
	CreatedBy   string
	CreatedAt   time.Time
}

func (m Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// Member is a membership joined with its player row.
type Member struct {
	Membership
	Player player.Player
}
