package webhooks

import (
	"testing"
	"time"
)

func TestRetryPolicy_NextDelay(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		attempts int
		expected time.Duration
	}{
		{0, 30 * time.Second},
		{1, 60 * time.Second},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{10, time.Hour}, // capped
	}

	for _, tt := range tests {
		if got := policy.NextDelay(tt.attempts); got != tt.expected {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempts, got, tt.expected)
		}
	}
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Factor: 2, MaxDelay: time.Minute}

	if policy.Exhausted(4) {
		t.Error("Expected 4 of 5 attempts to not be exhausted")
	}
	if !policy.Exhausted(5) {
		t.Error("Expected 5 of 5 attempts to be exhausted")
	}
	if !policy.Exhausted(6) {
		t.Error("Expected attempts past the ceiling to be exhausted")
	}
}
