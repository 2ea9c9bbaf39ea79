package ratelimit

import (
	"testing"
	"time"
)

const hour = time.Hour

func TestAllowsCallsWithinLimit(t *testing.T) {
	l := New(3, hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("call %d: expected allowed", i)
		}
	}
}

func TestBlocksCallsOverLimit(t *testing.T) {
	l := New(2, hour)
	if !l.Allow("user-42") {
		t.Fatal("call 1: expected allowed")
	}
	if !l.Allow("user-42") {
		t.Fatal("call 2: expected allowed")
	}
	if l.Allow("user-42") {
		t.Fatal("call 3: expected blocked")
	}
	if l.Allow("user-42") {
		t.Fatal("call 4: expected blocked")
	}
}

func TestDifferentKeysAreIndependent(t *testing.T) {
	l := New(1, hour)
	if !l.Allow("user-1") {
		t.Fatal("expected allowed")
	}
	if l.Allow("user-1") {
		t.Fatal("expected blocked")
	}
	if !l.Allow("user-2") {
		t.Fatal("user-2 should have a fresh quota")
	}
}
