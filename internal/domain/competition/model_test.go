package competition

import (
	"errors"
	"testing"
	"time"
)

func TestCompetitionLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 3, 18, 0, 0, 0, time.UTC)
	c := Competition{ID: "c1", CommunityID: "cm1", Name: "Liga de Domingo", Status: StatusDraft, StartDate: now}

	if _, err := c.Finish(now, 0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("finishing a draft must fail, got %v", err)
	}

	started, err := c.Start(now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}
	if _, err := started.Start(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double start must fail, got %v", err)
	}

	if _, err := started.Finish(now, 2); !errors.Is(err, ErrUnfinishedGames) {
		t.Fatalf("expected ErrUnfinishedGames, got %v", err)
	}

	finished, err := started.Finish(now.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !finished.IsFinished() || finished.EndDate == nil || !finished.EndDate.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected finished competition %+v", finished)
	}
	if _, err := finished.Start(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("finished is terminal, got %v", err)
	}
}

func TestCompetitionValidate(t *testing.T) {
	start := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	c := Competition{ID: "c1", CommunityID: "cm1", Name: "x", StartDate: start, EndDate: &before}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected end-before-start to fail")
	}
	c.EndDate = nil
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("in_progress"); err != nil || s != StatusInProgress {
		t.Fatalf("unexpected %s %v", s, err)
	}
	if _, err := ParseStatus("cancelled"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
