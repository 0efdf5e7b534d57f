package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGeneratorIssuesSortableIDs(t *testing.T) {
	t.Parallel()

	g := NewUUIDGenerator()
	first, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	second, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	parsed, err := uuid.Parse(first)
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected v7 uuid, got v%d", parsed.Version())
	}
	if first == second {
		t.Fatalf("expected distinct ids")
	}
	if first > second {
		t.Fatalf("expected ids to sort by issue order: %s > %s", first, second)
	}
}
