package timesheet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/testutil"
)

func TestItemRules(t *testing.T) {
	f := newFixture(t)
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")

	cases := []struct {
		name  string
		date  string
		hours float64
		want  error
	}{
		{"zero hours", "2024-01-02", 0, domerrors.ErrInvalidHours},
		{"negative hours", "2024-01-02", -1, domerrors.ErrInvalidHours},
		{"over a day", "2024-01-02", 24.5, domerrors.ErrInvalidHours},
		{"below a hundredth", "2024-01-02", 0.004, domerrors.ErrInvalidHours},
		{"huge", "2024-01-02", 1e17, domerrors.ErrInvalidHours},
		{"before period", "2023-12-31", 1, domerrors.ErrDateOutsidePeriod},
		{"after period", "2024-01-08", 1, domerrors.ErrDateOutsidePeriod},
		{"first day", "2024-01-01", 1, nil},
		{"last day", "2024-01-07", 1, nil},
		{"full day", "2024-01-03", 24, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.item(t, ts, tc.date, tc.hours)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if domerrors.KindOf(err) != domerrors.KindBusinessRule {
				t.Errorf("kind = %s", domerrors.KindOf(err))
			}
		})
	}
}

func TestDailyCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")

	var last *domain.TimesheetItem
	for _, h := range []float64{8.1, 8.1, 7.8} {
		it, err := f.item(t, ts, "2024-01-02", h)
		if err != nil {
			t.Fatalf("add %v hours: %v", h, err)
		}
		last = it
	}
	_, err := f.item(t, ts, "2024-01-02", 0.25)
	if !errors.Is(err, domerrors.ErrDailyHoursExceeded) {
		t.Fatalf("over the cap: %v", err)
	}
	e, _ := domerrors.As(err)
	if e.Details["date"] != "2024-01-02" {
		t.Errorf("details = %v", e.Details)
	}

	// Another day is independent.
	if _, err := f.item(t, ts, "2024-01-03", 0.25); err != nil {
		t.Fatal(err)
	}

	// Updating an item does not count its own old hours.
	hours := 7.8
	if _, err := f.svc.UpdateItem(ctx, f.owner, ts.ID, last.ID, ItemPatch{Hours: &hours}); err != nil {
		t.Fatalf("same-hours update: %v", err)
	}
	hours = 8
	if _, err := f.svc.UpdateItem(ctx, f.owner, ts.ID, last.ID, ItemPatch{Hours: &hours}); !errors.Is(err, domerrors.ErrDailyHoursExceeded) {
		t.Fatalf("growing update: %v", err)
	}

	// Moving the item to a free day is fine.
	day := testutil.Day(t, "2024-01-04")
	moved, err := f.svc.UpdateItem(ctx, f.owner, ts.ID, last.ID, ItemPatch{Date: &day, Hours: &hours})
	if err != nil {
		t.Fatal(err)
	}
	if !moved.Date.Equal(day) || moved.Hours != 8 {
		t.Errorf("moved item = %+v", moved)
	}
}

func TestDailyCapAtStoredPrecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")

	if _, err := f.item(t, ts, "2024-01-02", 20); err != nil {
		t.Fatal(err)
	}
	it, err := f.item(t, ts, "2024-01-02", 4.004)
	if err != nil {
		t.Fatalf("4.004 rounds to 4 and fits: %v", err)
	}
	if it.Hours != 4 {
		t.Errorf("stored hours = %v, want 4", it.Hours)
	}
	total, err := f.env.Repos.Items.DailyTotal(ctx, ts.ID, testutil.Day(t, "2024-01-02"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if domain.ExceedsDailyCap(total, 0) || total > domain.MaxDailyHours+1e-9 {
		t.Errorf("daily total = %v", total)
	}
	if _, err := f.item(t, ts, "2024-01-02", 0.006); !errors.Is(err, domerrors.ErrDailyHoursExceeded) {
		t.Errorf("0.006 rounds to 0.01 and overflows: %v", err)
	}

	huge := 1e17
	if _, err := f.svc.UpdateItem(ctx, f.owner, ts.ID, it.ID, ItemPatch{Hours: &huge}); !errors.Is(err, domerrors.ErrInvalidHours) {
		t.Errorf("huge update = %v", err)
	}
}

func TestItemProjectAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	foreign := f.env.Project(t, "BETA")

	_, err := f.svc.CreateItem(ctx, f.owner, ts.ID, ItemInput{ProjectID: foreign.ID, Date: testutil.Day(t, "2024-01-02"), Hours: 1})
	if !errors.Is(err, domerrors.ErrNoProjectAccess) {
		t.Fatalf("non-member project: %v", err)
	}

	_, err = f.svc.CreateItem(ctx, f.owner, ts.ID, ItemInput{ProjectID: domain.NewProjectID(uuid.New()), Date: testutil.Day(t, "2024-01-02"), Hours: 1})
	if !errors.Is(err, domerrors.ErrProjectNotFound) {
		t.Fatalf("missing project: %v", err)
	}

	// Admins may book against any project on any header.
	if _, err := f.svc.CreateItem(ctx, f.admin, ts.ID, ItemInput{ProjectID: foreign.ID, Date: testutil.Day(t, "2024-01-02"), Hours: 1}); err != nil {
		t.Fatalf("admin item: %v", err)
	}

	// Membership on the project does not open another user's header.
	f.env.Member(t, f.project, f.other)
	_, err = f.svc.CreateItem(ctx, f.other, ts.ID, ItemInput{ProjectID: f.project.ID, Date: testutil.Day(t, "2024-01-02"), Hours: 1})
	if !errors.Is(err, domerrors.ErrForbidden) {
		t.Fatalf("member on foreign header: %v", err)
	}
}

func TestItemsFrozenAfterSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	it, err := f.item(t, ts, "2024-01-02", 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Submit(ctx, f.owner, ts.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.item(t, ts, "2024-01-03", 1); !errors.Is(err, domerrors.ErrNotEditable) {
		t.Errorf("create on submitted: %v", err)
	}
	hours := 2.0
	if _, err := f.svc.UpdateItem(ctx, f.owner, ts.ID, it.ID, ItemPatch{Hours: &hours}); !errors.Is(err, domerrors.ErrNotEditable) {
		t.Errorf("update on submitted: %v", err)
	}
	if err := f.svc.DeleteItem(ctx, f.owner, ts.ID, it.ID); domerrors.KindOf(err) != domerrors.KindConflict {
		t.Errorf("delete on submitted: %v", err)
	}

	items, err := f.svc.ListItems(ctx, f.owner, ts.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Hours != 4 {
		t.Errorf("items = %+v", items)
	}
	got, err := f.svc.GetItem(ctx, f.admin, ts.ID, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != it.ID {
		t.Errorf("get item = %+v", got)
	}
	if _, err := f.svc.GetItem(ctx, f.other, ts.ID, it.ID); !errors.Is(err, domerrors.ErrForbidden) {
		t.Errorf("stranger read: %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	it, err := f.item(t, ts, "2024-01-02", 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteItem(ctx, f.owner, ts.ID, it.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteItem(ctx, f.owner, ts.ID, it.ID); !errors.Is(err, domerrors.ErrItemNotFound) {
		t.Errorf("second delete: %v", err)
	}

	// An item id is only found through its own header.
	other := f.create(t, f.owner, "2024-02-01", "2024-02-07")
	it, err = f.item(t, ts, "2024-01-03", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetItem(ctx, f.owner, other.ID, it.ID); !errors.Is(err, domerrors.ErrItemNotFound) {
		t.Errorf("cross-header get: %v", err)
	}
}
