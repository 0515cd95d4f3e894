package tournament

import (
	"errors"
	"testing"
	"time"
)

func TestCanJoin(t *testing.T) {
	tr := Tournament{ID: "t1", Name: "Copa", StartDate: time.Now(), MaxParticipants: 2, Status: StatusOpen}
	if err := tr.CanJoin(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr.CurrentParticipants = 2
	if err := tr.CanJoin(); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if tr.SeatsLeft() != 0 {
		t.Fatalf("expected no seats left")
	}

	tr.CurrentParticipants = 0
	tr.Status = StatusInProgress
	if err := tr.CanJoin(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tr := Tournament{ID: "t1", Name: "Copa", StartDate: time.Now(), MaxParticipants: 1}
	if err := tr.Validate(); err == nil {
		t.Fatalf("expected capacity validation error")
	}
	tr.MaxParticipants = 16
	if err := tr.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
