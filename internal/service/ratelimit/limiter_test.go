package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("expected burst of 2")
	}
	if l.Allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if d := l.RetryAfter("a"); d <= 0 || d > time.Second {
		t.Fatalf("unexpected retry-after %v", d)
	}
	if !l.Allow("b") {
		t.Fatalf("keys must be independent")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("expected a token after refill")
	}
	if l.Allow("a") {
		t.Fatalf("expected only one refilled token")
	}
}

func TestLimiterSweepsIdleKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", l.Len())
	}

	now = now.Add(2 * time.Hour)
	l.Allow("c")
	if l.Len() != 1 {
		t.Fatalf("expected idle keys swept, got %d", l.Len())
	}
}
