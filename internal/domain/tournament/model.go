package tournament

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

var (
	ErrNotOpen = errors.New("tournament is not open for registration")
	ErrFull    = errors.New("tournament is full")
)

// Tournament is an open-registration event with a participant cap.
type Tournament struct {
	ID                  string
	Name                string
	Description         string
	StartDate           time.Time
	EndDate             *time.Time
	MaxParticipants     int
	CurrentParticipants int
	Prize               *string
	Status              Status
	CreatedBy           string
	CreatedAt           time.Time
}

// Participant is unique per (TournamentID, PlayerID).
type Participant struct {
	TournamentID string
	PlayerID     string
	JoinedAt     time.Time
}

func (t Tournament) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("tournament id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("tournament name is required")
	}
	if t.StartDate.IsZero() {
		return errors.New("tournament start date is required")
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return errors.New("tournament end date is before start date")
	}
	if t.MaxParticipants < 2 {
		return errors.New("tournament needs room for at least two participants")
	}
	return nil
}

// CanJoin checks registration is open and a seat is left.
func (t Tournament) CanJoin() error {
	if t.Status != StatusOpen {
		return errors.Wrapf(ErrNotOpen, "status %s", t.Status)
	}
	if t.CurrentParticipants >= t.MaxParticipants {
		return errors.Wrapf(ErrFull, "%d/%d", t.CurrentParticipants, t.MaxParticipants)
	}
	return nil
}

func (t Tournament) SeatsLeft() int {
	return max(t.MaxParticipants-t.CurrentParticipants, 0)
}
