package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	for _, err := range []*Error{ErrInvalidCredentials, ErrInvalidToken, ErrPeriodOverlap, ErrNoReportData} {
		if err == nil {
			t.Fatal("sentinel should not be nil")
		}
		if err.Message == "" {
			t.Errorf("sentinel of kind %s has empty message", err.Kind)
		}
	}
}

func TestWithDetailsStillMatchesSentinel(t *testing.T) {
	err := ErrDailyHoursExceeded.WithDetails(Details{"hours": 5.0})
	if !errors.Is(err, ErrDailyHoursExceeded) {
		t.Fatal("detailed copy should match its sentinel")
	}
	if ErrDailyHoursExceeded.Details != nil {
		t.Fatal("WithDetails must not mutate the sentinel")
	}
	if errors.Is(err, ErrInvalidHours) {
		t.Fatal("different messages of the same kind must not match")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrPeriodOverlap, KindConflict},
		{fmt.Errorf("wrap: %w", ErrNotOwner), KindForbidden},
		{Validation(Details{"from": "required"}, "invalid query"), KindValidation},
		{ErrAccountLocked, KindLocked},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	err := Conflict(nil, "account_id %q already exists", "ACME")
	if err.Error() != `account_id "ACME" already exists` {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err := NotFound("project not found"); err.Kind != KindNotFound || err.Details != nil {
		t.Fatalf("unexpected error %+v", err)
	}
}
