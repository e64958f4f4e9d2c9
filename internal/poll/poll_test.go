package poll

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNew_DefaultInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{"zero", 0, DefaultInterval},
		{"negative", -time.Second, DefaultInterval},
		{"explicit", 5 * time.Millisecond, 5 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.interval).Interval; got != tt.want {
				t.Errorf("Interval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPoller_Until(t *testing.T) {
	t.Run("stops when done", func(t *testing.T) {
		p := New(time.Microsecond)
		calls := 0

		err := p.Until(context.Background(), func() (bool, error) {
			calls++
			return calls == 3, nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("returns fn error", func(t *testing.T) {
		p := New(time.Microsecond)
		want := errors.New("boom")

		err := p.Until(context.Background(), func() (bool, error) {
			return false, want
		})

		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("honours cancellation", func(t *testing.T) {
		p := New(time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := p.Until(ctx, func() (bool, error) { return false, nil })

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestPoller_SleepCancelled(t *testing.T) {
	p := New(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Sleep(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
