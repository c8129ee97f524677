package quota

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func newTestLimiter(t *testing.T, limits Limits) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(limits, zaptest.NewLogger(t))
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestDailyQuotaExhaustion(t *testing.T) {
	l, _ := newTestLimiter(t, Limits{
		Daily:     map[Tier]int{TierFree: 2},
		PerMinute: 100,
		Window:    time.Minute,
	})

	if err := l.CheckAndConsume("u1", TierFree); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := l.CheckAndConsume("u1", TierFree); err != nil {
		t.Fatalf("second call: %v", err)
	}

	err := l.CheckAndConsume("u1", TierFree)
	if !errors.Is(err, ErrDailyQuota) {
		t.Fatalf("third call: got %v, want daily quota rejection", err)
	}

	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %T", err)
	}
	if rej.Limit != 2 || rej.RetryAfter <= 0 {
		t.Fatalf("bad rejection payload: %+v", rej)
	}
}

func TestDailyQuotaResetsAtRollover(t *testing.T) {
	l, now := newTestLimiter(t, Limits{
		Daily:     map[Tier]int{TierFree: 2},
		PerMinute: 100,
		Window:    time.Minute,
	})

	for i := 0; i < 2; i++ {
		if err := l.CheckAndConsume("u1", TierFree); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := l.CheckAndConsume("u1", TierFree); !errors.Is(err, ErrDailyQuota) {
		t.Fatalf("expected quota rejection, got %v", err)
	}

	// Same user, next calendar day: counter resets before evaluation.
	*now = now.Add(24 * time.Hour)
	if err := l.CheckAndConsume("u1", TierFree); err != nil {
		t.Fatalf("first call of new day: %v", err)
	}
	if got := l.DailyCount("u1"); got != 1 {
		t.Fatalf("daily count after reset = %d, want 1", got)
	}
}

func TestProTierUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, DefaultLimits())

	for i := 0; i < 5; i++ {
		if err := l.CheckAndConsume("pro-user", TierPro); err != nil {
			t.Fatalf("call %d rejected: %v", i, err)
		}
	}
}

func TestMinuteWindow(t *testing.T) {
	l, now := newTestLimiter(t, Limits{
		Daily:     map[Tier]int{TierFree: 1000},
		PerMinute: 3,
		Window:    time.Minute,
	})

	for i := 0; i < 3; i++ {
		if err := l.CheckAndConsume("u1", TierFree); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	err := l.CheckAndConsume("u1", TierFree)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v, want rate limit rejection", err)
	}
	var rej *RejectionError
	if !errors.As(err, &rej) || rej.RetryAfter <= 0 || rej.RetryAfter > time.Minute {
		t.Fatalf("bad retry-after: %+v", rej)
	}

	// Window expires, resets on next call.
	*now = now.Add(61 * time.Second)
	if err := l.CheckAndConsume("u1", TierFree); err != nil {
		t.Fatalf("call after window reset: %v", err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	l, _ := newTestLimiter(t, Limits{
		Daily:     map[Tier]int{TierFree: 1},
		PerMinute: 100,
		Window:    time.Minute,
	})

	if err := l.CheckAndConsume("a", TierFree); err != nil {
		t.Fatalf("user a: %v", err)
	}
	if err := l.CheckAndConsume("b", TierFree); err != nil {
		t.Fatalf("user b should not share user a's quota: %v", err)
	}
}

func TestConcurrentConsumeNeverOverAdmits(t *testing.T) {
	l := NewLimiter(Limits{
		Daily:     map[Tier]int{TierFree: 50},
		PerMinute: 50,
		Window:    time.Minute,
	}, zaptest.NewLogger(t))

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.CheckAndConsume("u1", TierFree); err == nil {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Fatalf("admitted %d concurrent calls, want exactly 50", admitted)
	}
}
