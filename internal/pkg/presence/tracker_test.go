package presence

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTypingExcludesRequesterAndStaleEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(5*time.Second, clock.Now)

	tr.Set("event:1", "a", "Alice", true)
	clock.Advance(3 * time.Second)
	tr.Set("event:1", "b", "Bob", true)

	got := tr.Typing("event:1", "b")
	if len(got) != 1 || got[0].UserID != "a" {
		t.Fatalf("Typing as b = %+v, want only a", got)
	}

	clock.Advance(2500 * time.Millisecond) // a is 5.5s old, b is 2.5s old
	got = tr.Typing("event:1", "c")
	if len(got) != 1 || got[0].UserID != "b" {
		t.Fatalf("Typing as c = %+v, want only b", got)
	}

	if got := tr.Typing("event:1", "b"); len(got) != 0 {
		t.Fatalf("requester saw itself: %+v", got)
	}
}

func TestTypingBoundaryAndClear(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	tr := NewTracker(0, clock.Now)
	if tr.TTL() != DefaultTTL {
		t.Fatalf("TTL = %v, want default", tr.TTL())
	}

	tr.Set("global", "a", "Alice", true)
	clock.Advance(DefaultTTL)
	if got := tr.Typing("global", "x"); len(got) != 1 {
		t.Fatalf("entry exactly at TTL should still be fresh, got %+v", got)
	}

	tr.Set("global", "a", "Alice", false)
	if got := tr.Typing("global", "x"); len(got) != 0 {
		t.Fatalf("cleared entry still reported: %+v", got)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	tr := NewTracker(time.Minute, nil)
	tr.Set("event:1", "a", "Alice", true)
	tr.Set("event:2", "b", "Bob", true)
	tr.Drop("event:1")

	if got := tr.Typing("event:1", ""); len(got) != 0 {
		t.Fatalf("dropped scope still reports %+v", got)
	}
	if got := tr.Typing("event:2", ""); len(got) != 1 {
		t.Fatalf("event:2 = %+v", got)
	}
}
