package lockout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

// DefaultCooldown applies when no cooldown is configured.
const DefaultCooldown = 15 * time.Minute

type entry struct {
	failures    int
	lockedUntil time.Time
}

// MemoryStore is an in-memory LoginLockoutStore suitable for single-instance
// deployment. For multi-instance, use RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]*entry
	max      int
	cooldown time.Duration
	clock    clock.Clock
}

// NewMemoryStore returns a lockout store with given max attempts and cooldown.
// maxAttempts 0 = disabled.
func NewMemoryStore(maxAttempts, cooldownSeconds int, clk clock.Clock) *MemoryStore {
	cd := time.Duration(cooldownSeconds) * time.Second
	if cd <= 0 {
		cd = DefaultCooldown
	}
	return &MemoryStore{
		data:     make(map[string]*entry),
		max:      maxAttempts,
		cooldown: cd,
		clock:    clk,
	}
}

func key(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *MemoryStore) IsLocked(_ context.Context, email string) (locked bool, retryAfterSeconds int) {
	if s.max <= 0 {
		return false, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key(email)]
	if !ok {
		return false, 0
	}
	now := s.clock.Now()
	if now.Before(e.lockedUntil) {
		return true, retryAfter(e.lockedUntil.Sub(now))
	}
	return false, 0
}

func (s *MemoryStore) RecordFailure(_ context.Context, email string) {
	if s.max <= 0 {
		return
	}
	k := key(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.data[k]
	if e == nil {
		e = &entry{}
		s.data[k] = e
	}
	now := s.clock.Now()
	// A served lock starts a fresh count.
	if !e.lockedUntil.IsZero() && !now.Before(e.lockedUntil) {
		e.failures = 0
		e.lockedUntil = time.Time{}
	}
	e.failures++
	if e.failures >= s.max {
		e.lockedUntil = now.Add(s.cooldown)
	}
}

func (s *MemoryStore) RecordSuccess(_ context.Context, email string) {
	if s.max <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key(email))
}

// retryAfter rounds a remaining cooldown up to whole seconds, at least 1.
func retryAfter(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

var _ ports.LoginLockoutStore = (*MemoryStore)(nil)
