package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_WithinLimit(t *testing.T) {
	limiter := New(3, 300*time.Second)
	now := time.Now()

	for i := 0; i < 3; i++ {
		admitted, _ := limiter.Allow("user-1", now.Add(time.Duration(i)*time.Second), false)
		if !admitted {
			t.Fatalf("Request %d should be admitted", i+1)
		}
	}
}

func TestAllow_FourthCallRejected(t *testing.T) {
	limiter := New(3, 300*time.Second)
	now := time.Now()

	// 4 submissions within 10 seconds; the 4th must be rejected with a
	// positive retry-after.
	for i := 0; i < 3; i++ {
		limiter.Allow("user-1", now.Add(time.Duration(i*3)*time.Second), false)
	}

	admitted, retryAfter := limiter.Allow("user-1", now.Add(9*time.Second), false)
	if admitted {
		t.Fatal("Fourth request should be rejected")
	}
	if retryAfter <= 0 {
		t.Errorf("Expected positive retry-after, got %v", retryAfter)
	}

	// Oldest entry at t=0 expires at t=300, so from t=9 that's 291s away.
	if retryAfter != 291*time.Second {
		t.Errorf("Expected retry-after 291s, got %v", retryAfter)
	}
}

func TestAllow_RejectionDoesNotMutate(t *testing.T) {
	limiter := New(1, time.Minute)
	now := time.Now()

	limiter.Allow("user-1", now, false)

	// Repeated rejections must not extend the window.
	for i := 0; i < 5; i++ {
		limiter.Allow("user-1", now.Add(time.Duration(i)*time.Second), false)
	}

	admitted, _ := limiter.Allow("user-1", now.Add(61*time.Second), false)
	if !admitted {
		t.Error("Request after window expiry should be admitted")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	limiter := New(2, time.Minute)
	now := time.Now()

	limiter.Allow("user-1", now, false)
	limiter.Allow("user-1", now.Add(30*time.Second), false)

	if admitted, _ := limiter.Allow("user-1", now.Add(59*time.Second), false); admitted {
		t.Error("Third request inside window should be rejected")
	}

	// First entry has expired, one slot free.
	if admitted, _ := limiter.Allow("user-1", now.Add(61*time.Second), false); !admitted {
		t.Error("Request after oldest entry expired should be admitted")
	}
	if admitted, _ := limiter.Allow("user-1", now.Add(62*time.Second), false); admitted {
		t.Error("Window should be full again")
	}
}

func TestAllow_AdminBypass(t *testing.T) {
	limiter := New(1, time.Hour)
	now := time.Now()

	for i := 0; i < 10; i++ {
		admitted, _ := limiter.Allow("admin-1", now, true)
		if !admitted {
			t.Fatal("Admin must always be admitted")
		}
	}

	// Admin calls must not consume the owner's window either.
	if remaining := limiter.Remaining("admin-1", now); remaining != 1 {
		t.Errorf("Expected 1 remaining after admin bypasses, got %d", remaining)
	}
}

func TestAllow_OwnersIsolated(t *testing.T) {
	limiter := New(1, time.Hour)
	now := time.Now()

	limiter.Allow("user-1", now, false)

	admitted, _ := limiter.Allow("user-2", now, false)
	if !admitted {
		t.Error("Owners must have independent windows")
	}
}

func TestRemaining(t *testing.T) {
	limiter := New(3, time.Minute)
	now := time.Now()

	if remaining := limiter.Remaining("user-1", now); remaining != 3 {
		t.Errorf("Expected 3 remaining for fresh owner, got %d", remaining)
	}

	limiter.Allow("user-1", now, false)
	limiter.Allow("user-1", now.Add(time.Second), false)

	if remaining := limiter.Remaining("user-1", now.Add(2*time.Second)); remaining != 1 {
		t.Errorf("Expected 1 remaining, got %d", remaining)
	}

	if remaining := limiter.Remaining("user-1", now.Add(2*time.Minute)); remaining != 3 {
		t.Errorf("Expected 3 remaining after expiry, got %d", remaining)
	}
}
