// Package integration models messaging side effects that failed and are
// waiting for a retry.
package integration

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Kind string

const (
	KindCreateGroup    Kind = "create_group"
	KindAddParticipant Kind = "add_participant"
	KindSendMessage    Kind = "send_message"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDone      Status = "done"
	StatusAbandoned Status = "abandoned"
)

// Task is a durable record of one messaging call still owed to a community.
type Task struct {
	ID            string
	Kind          Kind
	CommunityID   string
	Phone         *string
	Message       *string
	// GroupRef is set on a create_group task whose group already exists on the
	// gateway; the retry only stores the reference.
	GroupRef      *string
	Status        Status
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(t.CommunityID) == "" {
		return errors.New("task community id is required")
	}
	switch t.Kind {
	case KindCreateGroup:
		if t.GroupRef != nil && strings.TrimSpace(*t.GroupRef) == "" {
			return errors.New("create_group task has an empty group reference")
		}
	case KindAddParticipant:
		if t.Phone == nil || *t.Phone == "" {
			return errors.New("add_participant task needs a phone")
		}
	case KindSendMessage:
		if t.Phone == nil || *t.Phone == "" || t.Message == nil {
			return errors.New("send_message task needs a phone and a message")
		}
	default:
		return errors.Newf("unknown task kind %q", t.Kind)
	}
	return nil
}

// Backoff spaces out retries exponentially: Base, 2*Base, 4*Base... capped at Max.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

func DefaultBackoff() Backoff {
	return Backoff{Base: 30 * time.Second, Max: 30 * time.Minute, MaxAttempts: 8}
}

// Delay returns the wait after the given number of failed attempts (>= 1).
func (b Backoff) Delay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := b.Base
	for i := 1; i < attempts; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Failed records a failed attempt. The task is abandoned once it has used
// MaxAttempts; otherwise it is rescheduled.
func (t Task) Failed(cause string, now time.Time, b Backoff) Task {
	t.Attempts++
	t.LastError = cause
	t.UpdatedAt = now
	if b.MaxAttempts > 0 && t.Attempts >= b.MaxAttempts {
		t.Status = StatusAbandoned
		return t
	}
	t.NextAttemptAt = now.Add(b.Delay(t.Attempts))
	return t
}

func (t Task) Done(now time.Time) Task {
	t.Attempts++
	t.Status = StatusDone
	t.LastError = ""
	t.UpdatedAt = now
	return t
}
