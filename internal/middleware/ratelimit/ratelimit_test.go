package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth request should be rejected")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer l.Stop()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client has its own window")
	}
	if l.ActiveClients() != 2 {
		t.Errorf("active clients = %d, want 2", l.ActiveClients())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}
