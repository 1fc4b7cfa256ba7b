// Package security implements the account-lockout collaborator on a
// shared redis key space, so counters survive restarts and are shared
// by every server instance behind the load balancer.
package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"filogate.org/internal/auth"
	"filogate.org/internal/obs"
)

const (
	defaultMaxFailures  = 5
	defaultWindow       = 15 * time.Minute
	defaultLockDuration = 30 * time.Minute

	failKeyFormat = "filogate:lockout:fail:%s"
	lockKeyFormat = "filogate:lockout:lock:%s"
)

// Lockout counts failed login attempts per account inside a sliding
// TTL window and locks the account once the threshold is crossed.
type Lockout struct {
	client       redis.UniversalClient
	maxFailures  int64
	window       time.Duration
	lockDuration time.Duration
}

// Option configures Lockout behavior.
type Option func(*Lockout)

// WithMaxFailures sets how many failures inside the window lock the
// account.
func WithMaxFailures(n int) Option {
	return func(l *Lockout) {
		if n > 0 {
			l.maxFailures = int64(n)
		}
	}
}

// WithWindow sets the counting window.
func WithWindow(d time.Duration) Option {
	return func(l *Lockout) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithLockDuration sets how long a locked account stays locked.
func WithLockDuration(d time.Duration) Option {
	return func(l *Lockout) {
		if d > 0 {
			l.lockDuration = d
		}
	}
}

// NewLockout constructs a Lockout over the given redis client.
func NewLockout(client redis.UniversalClient, opts ...Option) *Lockout {
	l := &Lockout{
		client:       client,
		maxFailures:  defaultMaxFailures,
		window:       defaultWindow,
		lockDuration: defaultLockDuration,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ auth.Security = (*Lockout)(nil)

// IsAccountLocked reports whether the account currently holds a lock.
func (l *Lockout) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Exists(ctx, lockKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("lockout: check lock: %w", err)
	}
	return n > 0, nil
}

// TrackLoginAttempt records one attempt. A success clears the failure
// counter; a failure increments it and, at the threshold, writes a
// lock key with the configured TTL.
func (l *Lockout) TrackLoginAttempt(ctx context.Context, attempt auth.LoginAttempt) error {
	email := strings.TrimSpace(strings.ToLower(attempt.Email))
	if email == "" {
		return nil
	}

	obs.LogRequest(map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"type":    "login_attempt",
		"email":   email,
		"success": attempt.Success,
		"ip":      attempt.IP,
		"agent":   attempt.UserAgent,
		"reason":  attempt.Reason,
	})

	if attempt.Success {
		if err := l.client.Del(ctx, failKey(email)).Err(); err != nil {
			return fmt.Errorf("lockout: reset counter: %w", err)
		}
		return nil
	}

	count, err := l.client.Incr(ctx, failKey(email)).Result()
	if err != nil {
		return fmt.Errorf("lockout: count failure: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, failKey(email), l.window).Err(); err != nil {
			return fmt.Errorf("lockout: set window: %w", err)
		}
	}
	if count >= l.maxFailures {
		pipe := l.client.TxPipeline()
		pipe.Set(ctx, lockKey(email), "1", l.lockDuration)
		pipe.Del(ctx, failKey(email))
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("lockout: lock account: %w", err)
		}
	}
	return nil
}

func failKey(email string) string { return fmt.Sprintf(failKeyFormat, email) }
func lockKey(email string) string { return fmt.Sprintf(lockKeyFormat, email) }
