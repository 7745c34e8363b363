package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

func TestMemoryStoreLocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	clk := clock.Fake(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	s := NewMemoryStore(3, 60, clk)

	for i := 0; i < 2; i++ {
		s.RecordFailure(ctx, "Ann@Example.com")
		if locked, _ := s.IsLocked(ctx, "ann@example.com"); locked {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	s.RecordFailure(ctx, "ann@example.com")
	locked, retry := s.IsLocked(ctx, "ann@example.com")
	if !locked || retry != 60 {
		t.Fatalf("locked=%v retry=%d, want locked for 60s", locked, retry)
	}

	clk.Advance(59*time.Second + 500*time.Millisecond)
	if locked, retry := s.IsLocked(ctx, "ann@example.com"); !locked || retry != 1 {
		t.Fatalf("near the end: locked=%v retry=%d", locked, retry)
	}

	clk.Advance(time.Second)
	if locked, _ := s.IsLocked(ctx, "ann@example.com"); locked {
		t.Fatal("still locked after cooldown")
	}

	// The count starts over once the lock has been served.
	s.RecordFailure(ctx, "ann@example.com")
	if locked, _ := s.IsLocked(ctx, "ann@example.com"); locked {
		t.Fatal("relocked on first failure after cooldown")
	}
}

func TestMemoryStoreSuccessResets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, 60, clock.Fake(time.Now()))
	s.RecordFailure(ctx, "bob@example.com")
	s.RecordSuccess(ctx, "bob@example.com")
	s.RecordFailure(ctx, "bob@example.com")
	if locked, _ := s.IsLocked(ctx, "bob@example.com"); locked {
		t.Fatal("success did not reset the count")
	}
}

func TestMemoryStoreDisabled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 60, clock.Fake(time.Now()))
	for i := 0; i < 10; i++ {
		s.RecordFailure(ctx, "c@example.com")
	}
	if locked, _ := s.IsLocked(ctx, "c@example.com"); locked {
		t.Fatal("disabled store locked")
	}
}
