package domain

import (
	"math"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPeriodOverlaps(t *testing.T) {
	base := NewPeriod(day("2024-01-01"), day("2024-01-07"))
	tests := []struct {
		name  string
		other Period
		want  bool
	}{
		{"identical", base, true},
		{"tail overlap", NewPeriod(day("2024-01-05"), day("2024-01-10")), true},
		{"head overlap", NewPeriod(day("2023-12-28"), day("2024-01-01")), true},
		{"touching end day", NewPeriod(day("2024-01-07"), day("2024-01-07")), true},
		{"contained", NewPeriod(day("2024-01-03"), day("2024-01-04")), true},
		{"adjacent after", NewPeriod(day("2024-01-08"), day("2024-01-14")), false},
		{"adjacent before", NewPeriod(day("2023-12-25"), day("2023-12-31")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("reverse Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriodValidAndContains(t *testing.T) {
	p := NewPeriod(day("2024-01-01"), day("2024-01-07"))
	if !p.Valid() {
		t.Fatal("expected valid period")
	}
	if NewPeriod(day("2024-01-08"), day("2024-01-07")).Valid() {
		t.Fatal("start after end should be invalid")
	}
	if !p.Contains(day("2024-01-01")) || !p.Contains(day("2024-01-07")) {
		t.Error("period bounds should be inclusive")
	}
	if !p.Contains(day("2024-01-03").Add(15 * time.Hour)) {
		t.Error("time of day should be ignored")
	}
	if p.Contains(day("2024-01-08")) {
		t.Error("2024-01-08 is outside the period")
	}
}

func TestStatusTransitions(t *testing.T) {
	all := []TimesheetStatus{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}
	transitions := []Transition{TransitionSubmit, TransitionApprove, TransitionReject}
	allowed := map[TimesheetStatus]map[Transition]TimesheetStatus{
		StatusDraft:     {TransitionSubmit: StatusSubmitted},
		StatusSubmitted: {TransitionApprove: StatusApproved, TransitionReject: StatusRejected},
	}
	for _, from := range all {
		for _, tr := range transitions {
			got, ok := from.Apply(tr)
			want, wantOK := allowed[from][tr]
			if ok != wantOK {
				t.Errorf("%s --%s--> ok = %v, want %v", from, tr, ok, wantOK)
				continue
			}
			if ok && got != want {
				t.Errorf("%s --%s--> %s, want %s", from, tr, got, want)
			}
			if !ok && got != from {
				t.Errorf("rejected transition changed status to %s", got)
			}
		}
	}
	for _, s := range []TimesheetStatus{StatusApproved, StatusRejected} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
		if s.Editable() {
			t.Errorf("%s should not be editable", s)
		}
	}
	if !StatusDraft.Editable() || StatusSubmitted.Editable() {
		t.Error("only Draft is editable")
	}
}

func TestHoursRules(t *testing.T) {
	for _, h := range []float64{0.25, 8, 24} {
		if !ValidHours(h) {
			t.Errorf("ValidHours(%v) = false", h)
		}
	}
	for _, h := range []float64{0, -1, 24.01, 0.004, 1e17, 1e300, math.Inf(1), math.NaN()} {
		if ValidHours(h) {
			t.Errorf("ValidHours(%v) = true", h)
		}
	}
	if !ExceedsDailyCap(20, 5) {
		t.Error("20+5 should exceed the daily cap")
	}
	if ExceedsDailyCap(8.1+8.1, 7.8) {
		t.Error("8.1+8.1+7.8 is exactly 24 and should not exceed the cap")
	}
	if !ExceedsDailyCap(20, 1e17) {
		t.Error("20+1e17 should exceed the daily cap")
	}
}

func TestQuantizeHours(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{4.004, 4},
		{4.006, 4.01},
		{0.004, 0},
		{7.5, 7.5},
		{1e17, 1e17},
		{-3, -3},
	}
	for _, tt := range tests {
		if got := QuantizeHours(tt.in); got != tt.want {
			t.Errorf("QuantizeHours(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseProjectOrdering(t *testing.T) {
	tests := []struct {
		in       string
		wantCol  ProjectOrder
		wantDesc bool
	}{
		{"", ProjectOrderCreatedAt, true},
		{"name", ProjectOrderName, false},
		{"-code", ProjectOrderCode, true},
		{"updated_at", ProjectOrderUpdatedAt, false},
		{"-password", ProjectOrderCreatedAt, true},
		{"id; drop table", ProjectOrderCreatedAt, false},
	}
	for _, tt := range tests {
		col, desc := ParseProjectOrdering(tt.in)
		if col != tt.wantCol || desc != tt.wantDesc {
			t.Errorf("ParseProjectOrdering(%q) = %s,%v want %s,%v", tt.in, col, desc, tt.wantCol, tt.wantDesc)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("admin"); !ok || !r.IsAdmin() {
		t.Error("admin should parse and be admin")
	}
	if r, ok := ParseRole("user"); !ok || r.IsAdmin() {
		t.Error("user should parse and not be admin")
	}
	if _, ok := ParseRole("Admin"); ok {
		t.Error("roles are case sensitive")
	}
}
