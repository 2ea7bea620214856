package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewAllowsBurst(t *testing.T) {
	l := New("test", 5)

	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if l.Allow() {
		t.Fatal("request beyond burst should be denied")
	}
}

func TestNewEverySpacesRequests(t *testing.T) {
	l := NewEvery("test", 50*time.Millisecond)

	if !l.Allow() {
		t.Fatal("first request should be allowed")
	}
	if l.Allow() {
		t.Fatal("second immediate request should be denied")
	}
}

func TestWaitHonorsCancelledContext(t *testing.T) {
	l := NewEvery("test", time.Hour)
	// Drain the single token so Wait would block.
	l.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); err == nil {
		t.Fatal("Wait should fail when the context is cancelled")
	}
}

func TestName(t *testing.T) {
	if got := New("scryfall", 1).Name(); got != "scryfall" {
		t.Fatalf("Name() = %q, want %q", got, "scryfall")
	}
}
