package timing

import (
	"testing"
	"time"
)

func timeAt(min int) time.Time {
	return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
}

func TestRemainingSeconds(t *testing.T) {
	started := timeAt(0)

	tests := []struct {
		name         string
		startedAt    *time.Time
		limitMinutes int
		now          time.Time
		want         int
		wantErr      bool
	}{
		{name: "not started returns full budget", startedAt: nil, limitMinutes: 60, now: timeAt(0), want: 3600},
		{name: "at start full budget remains", startedAt: &started, limitMinutes: 60, now: timeAt(0), want: 3600},
		{name: "halfway through", startedAt: &started, limitMinutes: 60, now: timeAt(30), want: 1800},
		{name: "exactly at limit", startedAt: &started, limitMinutes: 60, now: timeAt(60), want: 0},
		{name: "past limit floored at zero", startedAt: &started, limitMinutes: 60, now: timeAt(70), want: 0},
		{name: "sub-minute elapsed floors toward zero", startedAt: &started, limitMinutes: 1, now: started.Add(30*time.Second + 500*time.Millisecond), want: 29},
		{name: "fractional second just after start", startedAt: &started, limitMinutes: 1, now: started.Add(time.Millisecond), want: 59},
		{name: "zero limit rejected", startedAt: &started, limitMinutes: 0, now: timeAt(0), wantErr: true},
		{name: "negative limit rejected", startedAt: nil, limitMinutes: -5, now: timeAt(0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RemainingSeconds(tt.startedAt, tt.limitMinutes, tt.now)
			if tt.wantErr {
				if err != ErrInvalidTimeLimit {
					t.Fatalf("expected ErrInvalidTimeLimit, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RemainingSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	started := timeAt(0)

	tests := []struct {
		name         string
		startedAt    *time.Time
		limitMinutes int
		now          time.Time
		want         bool
		wantErr      bool
	}{
		{name: "not started never expires", startedAt: nil, limitMinutes: 60, now: timeAt(120), want: false},
		{name: "in progress not expired", startedAt: &started, limitMinutes: 60, now: timeAt(30), want: false},
		{name: "one second before limit", startedAt: &started, limitMinutes: 60, now: timeAt(60).Add(-time.Second), want: false},
		{name: "exactly at limit is expired", startedAt: &started, limitMinutes: 60, now: timeAt(60), want: true},
		{name: "past limit is expired", startedAt: &started, limitMinutes: 60, now: timeAt(70), want: true},
		{name: "zero limit rejected", startedAt: &started, limitMinutes: 0, now: timeAt(0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsExpired(tt.startedAt, tt.limitMinutes, tt.now)
			if tt.wantErr {
				if err != ErrInvalidTimeLimit {
					t.Fatalf("expected ErrInvalidTimeLimit, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpirationInstant(t *testing.T) {
	started := timeAt(0)

	t.Run("not started has no expiration", func(t *testing.T) {
		got, err := ExpirationInstant(nil, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("ExpirationInstant() = %v, want nil", got)
		}
	})

	t.Run("started expires at startedAt plus limit", func(t *testing.T) {
		got, err := ExpirationInstant(&started, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || !got.Equal(timeAt(60)) {
			t.Errorf("ExpirationInstant() = %v, want %v", got, timeAt(60))
		}
	})

	t.Run("invalid limit rejected", func(t *testing.T) {
		if _, err := ExpirationInstant(&started, -1); err != ErrInvalidTimeLimit {
			t.Fatalf("expected ErrInvalidTimeLimit, got %v", err)
		}
	})
}

// Remaining time never increases as the clock advances.
func TestRemainingSecondsMonotonic(t *testing.T) {
	started := timeAt(0)
	prev := int(^uint(0) >> 1)

	for step := 0; step <= 90; step += 5 {
		now := timeAt(step)
		got, err := RemainingSeconds(&started, 60, now)
		if err != nil {
			t.Fatalf("unexpected error at +%dm: %v", step, err)
		}
		if got > prev {
			t.Fatalf("remaining increased from %d to %d at +%dm", prev, got, step)
		}
		if got < 0 {
			t.Fatalf("remaining went negative at +%dm", step)
		}
		prev = got
	}
}

// Expiry and the zero floor agree at the boundary.
func TestExpiryConsistentWithRemaining(t *testing.T) {
	started := timeAt(0)

	for step := 0; step <= 120; step += 10 {
		now := timeAt(step)
		remaining, err := RemainingSeconds(&started, 60, now)
		if err != nil {
			t.Fatal(err)
		}
		expired, err := IsExpired(&started, 60, now)
		if err != nil {
			t.Fatal(err)
		}
		if expired && remaining != 0 {
			t.Errorf("expired at +%dm but %d seconds remain", step, remaining)
		}
		if !expired && remaining == 0 && step >= 60 {
			t.Errorf("zero seconds remain at +%dm but not expired", step)
		}
	}
}
