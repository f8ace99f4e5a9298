package catalog

import (
	"context"
	"testing"
)

// A cold Redis has no cat:ver key; readers must resolve a prefix below the
// one the first BumpVersion produces (INCR on a missing key returns 1), or
// the first mutation after startup would not invalidate anything.
func TestVersionPrefix_MissingCounterSortsBelowFirstBump(t *testing.T) {
	cold := versionPrefix(0)
	afterFirstBump := versionPrefix(1)

	if cold != "cat:v0:" {
		t.Fatalf("cold prefix = %q, want cat:v0:", cold)
	}
	if afterFirstBump != "cat:v1:" {
		t.Fatalf("post-bump prefix = %q, want cat:v1:", afterFirstBump)
	}
	if cold == afterFirstBump {
		t.Fatal("first bump must change the prefix")
	}
}

func TestCache_DisabledIsInert(t *testing.T) {
	c := New(nil)

	var out []string
	if c.Get(t.Context(), "books:p1", &out) {
		t.Fatal("disabled cache reported a hit")
	}
	c.Set(t.Context(), "books:p1", []string{"x"}) // must not panic
}

func TestBumpVersion_NilClientIsNoop(t *testing.T) {
	if err := BumpVersion(context.Background(), nil); err != nil {
		t.Fatalf("nil client: %v", err)
	}
}
