package id

import "testing"

func TestUUIDGenerator(t *testing.T) {
	g := NewUUIDGenerator()
	a, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	b, _ := g.NewID()
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if !Valid(a) {
		t.Fatalf("expected %q to be a valid uuid", a)
	}
	if Valid("not-a-uuid") {
		t.Fatalf("expected invalid uuid to be rejected")
	}
}

func TestSequenceGenerator(t *testing.T) {
	g := &SequenceGenerator{Prefix: "game-"}
	first, _ := g.NewID()
	second, _ := g.NewID()
	if first != "game-1" || second != "game-2" {
		t.Fatalf("unexpected sequence %s, %s", first, second)
	}
}
