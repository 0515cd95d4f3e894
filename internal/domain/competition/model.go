package competition

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

var (
	ErrInvalidTransition = errors.New("invalid competition transition")
	ErrUnfinishedGames   = errors.New("competition has unfinished games")
	ErrInvalidStatus     = errors.New("invalid competition status")
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.TrimSpace(raw)); s {
	case StatusDraft, StatusInProgress, StatusFinished:
		return s, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "%q", raw)
	}
}

// Competition is a named event inside one community. It moves
// draft -> in_progress -> finished and never back.
type Competition struct {
	ID          string
	CommunityID string
	Name        string
	Description *string
	Status      Status
	StartDate   time.Time
	EndDate     *time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c Competition) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("competition id is required")
	}
	if strings.TrimSpace(c.CommunityID) == "" {
		return errors.New("competition community id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("competition name is required")
	}
	if c.StartDate.IsZero() {
		return errors.New("competition start date is required")
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return errors.New("competition end date is before start date")
	}
	return nil
}

func (c Competition) IsFinished() bool {
	return c.Status == StatusFinished
}

// Start moves a draft competition to in_progress.
func (c Competition) Start(now time.Time) (Competition, error) {
	if c.Status != StatusDraft {
		return c, errors.Wrapf(ErrInvalidTransition, "cannot start a %s competition", c.Status)
	}
	c.Status = StatusInProgress
	c.UpdatedAt = now
	return c, nil
}

// Finish closes an in-progress competition. unfinishedGames is the number of
// its games not yet finished; any positive count refuses the transition.
func (c Competition) Finish(now time.Time, unfinishedGames int) (Competition, error) {
	if c.Status != StatusInProgress {
		return c, errors.Wrapf(ErrInvalidTransition, "cannot finish a %s competition", c.Status)
	}
	if unfinishedGames > 0 {
		return c, errors.Wrapf(ErrUnfinishedGames, "%d game(s) still open", unfinishedGames)
	}
	c.Status = StatusFinished
	if c.EndDate == nil {
		end := now
		c.EndDate = &end
	}
	c.UpdatedAt = now
	return c, nil
}
