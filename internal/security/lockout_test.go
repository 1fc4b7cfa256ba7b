package security

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"filogate.org/internal/auth"
)

func newLockout(t *testing.T, opts ...Option) (*Lockout, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLockout(client, opts...), mr
}

func fail(email string) auth.LoginAttempt {
	return auth.LoginAttempt{Email: email, Success: false, Reason: "bad_password"}
}

func TestLockAfterThreshold(t *testing.T) {
	l, _ := newLockout(t, WithMaxFailures(3))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.TrackLoginAttempt(ctx, fail("user@example.com")); err != nil {
			t.Fatalf("TrackLoginAttempt: %v", err)
		}
		locked, err := l.IsAccountLocked(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("IsAccountLocked: %v", err)
		}
		if locked {
			t.Fatalf("locked too early after %d failures", i+1)
		}
	}

	if err := l.TrackLoginAttempt(ctx, fail("user@example.com")); err != nil {
		t.Fatalf("TrackLoginAttempt: %v", err)
	}
	locked, err := l.IsAccountLocked(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsAccountLocked: %v", err)
	}
	if !locked {
		t.Fatalf("expected account locked after threshold")
	}
}

func TestSuccessResetsCounter(t *testing.T) {
	l, _ := newLockout(t, WithMaxFailures(3))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.TrackLoginAttempt(ctx, fail("user@example.com")); err != nil {
			t.Fatalf("TrackLoginAttempt: %v", err)
		}
	}
	if err := l.TrackLoginAttempt(ctx, auth.LoginAttempt{Email: "user@example.com", Success: true}); err != nil {
		t.Fatalf("TrackLoginAttempt success: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := l.TrackLoginAttempt(ctx, fail("user@example.com")); err != nil {
			t.Fatalf("TrackLoginAttempt: %v", err)
		}
	}

	locked, err := l.IsAccountLocked(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsAccountLocked: %v", err)
	}
	if locked {
		t.Fatalf("counter must reset on success")
	}
}

func TestLockExpires(t *testing.T) {
	l, mr := newLockout(t, WithMaxFailures(1), WithLockDuration(time.Minute))
	ctx := context.Background()

	if err := l.TrackLoginAttempt(ctx, fail("user@example.com")); err != nil {
		t.Fatalf("TrackLoginAttempt: %v", err)
	}
	locked, _ := l.IsAccountLocked(ctx, "user@example.com")
	if !locked {
		t.Fatalf("expected lock")
	}

	mr.FastForward(2 * time.Minute)

	locked, err := l.IsAccountLocked(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsAccountLocked: %v", err)
	}
	if locked {
		t.Fatalf("lock must expire with its TTL")
	}
}

func TestCountersAreScopedPerAccount(t *testing.T) {
	l, _ := newLockout(t, WithMaxFailures(1))
	ctx := context.Background()

	if err := l.TrackLoginAttempt(ctx, fail("a@example.com")); err != nil {
		t.Fatalf("TrackLoginAttempt: %v", err)
	}
	locked, _ := l.IsAccountLocked(ctx, "b@example.com")
	if locked {
		t.Fatalf("lock must not leak across accounts")
	}
}
