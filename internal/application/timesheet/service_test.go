package timesheet

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/testutil"
)

type fixture struct {
	env     *testutil.Env
	svc     *Service
	events  *testutil.Events
	admin   *domain.User
	owner   *domain.User
	other   *domain.User
	project *domain.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	r := env.Repos
	events := &testutil.Events{}
	f := &fixture{
		env:     env,
		events:  events,
		svc:     NewService(r.Tx, r.Timesheets, r.Items, r.Projects, policy.New(r.Memberships), events, env.Clock, zerolog.Nop()),
		admin:   env.User(t, domain.RoleAdmin, "x"),
		owner:   env.User(t, domain.RoleUser, "x"),
		other:   env.User(t, domain.RoleUser, "x"),
		project: env.Project(t, "ALPHA"),
	}
	env.Member(t, f.project, f.owner)
	return f
}

func (f *fixture) create(t *testing.T, caller *domain.User, start, end string) *domain.Timesheet {
	t.Helper()
	ts, err := f.svc.Create(context.Background(), caller, CreateInput{
		PeriodStart: testutil.Day(t, start),
		PeriodEnd:   testutil.Day(t, end),
	})
	if err != nil {
		t.Fatalf("create %s..%s: %v", start, end, err)
	}
	return ts
}

func (f *fixture) item(t *testing.T, ts *domain.Timesheet, date string, hours float64) (*domain.TimesheetItem, error) {
	t.Helper()
	return f.svc.CreateItem(context.Background(), f.owner, ts.ID, ItemInput{
		ProjectID: f.project.ID,
		Date:      testutil.Day(t, date),
		Hours:     hours,
	})
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	if first.Status != domain.StatusDraft {
		t.Fatalf("new timesheet status = %s", first.Status)
	}

	cases := []struct {
		name       string
		start, end string
	}{
		{"same period", "2024-01-01", "2024-01-07"},
		{"touching end", "2024-01-07", "2024-01-14"},
		{"inside", "2024-01-03", "2024-01-04"},
		{"surrounding", "2023-12-25", "2024-01-20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.owner, CreateInput{PeriodStart: testutil.Day(t, tc.start), PeriodEnd: testutil.Day(t, tc.end)})
			if !errors.Is(err, domerrors.ErrPeriodOverlap) {
				t.Fatalf("want overlap, got %v", err)
			}
			e, _ := domerrors.As(err)
			if e.Details["conflicting_timesheet_id"] != first.ID.String() {
				t.Errorf("details = %v", e.Details)
			}
		})
	}

	f.create(t, f.owner, "2024-01-08", "2024-01-14")
	f.create(t, f.other, "2024-01-01", "2024-01-07")
}

func TestCreateRejectsReversedPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner, CreateInput{
		PeriodStart: testutil.Day(t, "2024-01-07"),
		PeriodEnd:   testutil.Day(t, "2024-01-01"),
	})
	if !errors.Is(err, domerrors.ErrInvalidPeriod) || domerrors.KindOf(err) != domerrors.KindBusinessRule {
		t.Fatalf("want invalid period, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	f.create(t, f.owner, "2024-01-15", "2024-01-21")

	status := "Approved"
	if _, err := f.svc.Update(ctx, f.owner, ts.ID, UpdateInput{Status: &status}); !errors.Is(err, domerrors.ErrStatusImmutable) {
		t.Fatalf("status change via update: %v", err)
	}

	end := testutil.Day(t, "2024-01-16")
	if _, err := f.svc.Update(ctx, f.owner, ts.ID, UpdateInput{PeriodEnd: &end}); !errors.Is(err, domerrors.ErrPeriodOverlap) {
		t.Fatalf("overlapping update: %v", err)
	}

	if _, err := f.item(t, ts, "2024-01-06", 4); err != nil {
		t.Fatal(err)
	}
	end = testutil.Day(t, "2024-01-05")
	_, err := f.svc.Update(ctx, f.owner, ts.ID, UpdateInput{PeriodEnd: &end})
	if !errors.Is(err, domerrors.ErrDateOutsidePeriod) {
		t.Fatalf("shrinking past an item: %v", err)
	}

	end = testutil.Day(t, "2024-01-10")
	updated, err := f.svc.Update(ctx, f.owner, ts.ID, UpdateInput{PeriodEnd: &end})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Period.End.Equal(end) {
		t.Errorf("period end = %s", updated.Period.End)
	}

	// Re-saving the same period must not collide with itself.
	if _, err := f.svc.Update(ctx, f.owner, ts.ID, UpdateInput{PeriodEnd: &end}); err != nil {
		t.Errorf("idempotent update: %v", err)
	}

	if _, err := f.svc.Update(ctx, f.other, ts.ID, UpdateInput{PeriodEnd: &end}); !errors.Is(err, domerrors.ErrForbidden) {
		t.Errorf("stranger update: %v", err)
	}

	if _, err := f.svc.Submit(ctx, f.owner, ts.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Update(ctx, f.owner, ts.ID, UpdateInput{PeriodEnd: &end}); !errors.Is(err, domerrors.ErrNotEditable) {
		t.Errorf("update after submit: %v", err)
	}
}

func TestUpdateStatusResolvesVisibilityFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	status := "Approved"

	tests := []struct {
		name   string
		caller *domain.User
		id     domain.TimesheetID
		want   error
	}{
		{"missing timesheet", f.owner, domain.NewTimesheetID(uuid.New()), domerrors.ErrTimesheetNotFound},
		{"stranger", f.other, ts.ID, domerrors.ErrForbidden},
		{"owner", f.owner, ts.ID, domerrors.ErrStatusImmutable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tt.caller, tt.id, UpdateInput{Status: &status})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")

	if _, err := f.svc.Approve(ctx, f.admin, ts.ID); !errors.Is(err, domerrors.ErrInvalidTransition) {
		t.Fatalf("approve draft: %v", err)
	}
	if _, err := f.svc.Submit(ctx, f.admin, ts.ID); !errors.Is(err, domerrors.ErrNotOwner) {
		t.Fatalf("admin submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, f.other, ts.ID); !errors.Is(err, domerrors.ErrForbidden) {
		t.Fatalf("stranger submit: %v", err)
	}

	res, err := f.svc.Submit(ctx, f.owner, ts.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Timesheet.Status != domain.StatusSubmitted {
		t.Fatalf("submit result = %+v", res)
	}
	if _, err := f.svc.Submit(ctx, f.owner, ts.ID); domerrors.KindOf(err) != domerrors.KindConflict {
		t.Fatalf("second submit: %v", err)
	}
	if _, err := f.svc.Approve(ctx, f.owner, ts.ID); !errors.Is(err, domerrors.ErrAdminRequired) {
		t.Fatalf("owner approve: %v", err)
	}

	f.env.Clock.Advance(time.Hour)
	res, err = f.svc.Approve(ctx, f.admin, ts.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.Timesheet.Status != domain.StatusApproved || !res.Timesheet.UpdatedAt.Equal(testutil.Epoch.Add(time.Hour)) {
		t.Fatalf("approve result = %+v", res.Timesheet)
	}
	if _, err := f.svc.Reject(ctx, f.admin, ts.ID); !errors.Is(err, domerrors.ErrInvalidTransition) {
		t.Fatalf("reject approved: %v", err)
	}

	stored, err := f.svc.Get(ctx, f.owner, ts.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusApproved {
		t.Errorf("stored status = %s", stored.Status)
	}

	want := []string{"timesheet.submitted", "timesheet.approved"}
	if got := f.events.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRejectAndEnqueueFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	if _, err := f.svc.Submit(ctx, f.owner, ts.ID); err != nil {
		t.Fatal(err)
	}
	f.events.Err = errors.New("queue down")
	res, err := f.svc.Reject(ctx, f.admin, ts.ID)
	if err != nil {
		t.Fatalf("reject must not fail on enqueue errors: %v", err)
	}
	if res.Timesheet.Status != domain.StatusRejected {
		t.Errorf("status = %s", res.Timesheet.Status)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	if _, err := f.item(t, ts, "2024-01-02", 8); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, f.admin, ts.ID); err != nil {
		t.Fatalf("admin delete draft: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.owner, ts.ID); !errors.Is(err, domerrors.ErrTimesheetNotFound) {
		t.Fatalf("get deleted: %v", err)
	}

	ts = f.create(t, f.owner, "2024-01-01", "2024-01-07")
	if _, err := f.svc.Submit(ctx, f.owner, ts.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, f.owner, ts.ID); !errors.Is(err, domerrors.ErrNotEditable) {
		t.Fatalf("delete submitted: %v", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, f.owner, "2024-01-01", "2024-01-07")
	b := f.create(t, f.owner, "2024-01-08", "2024-01-14")
	f.create(t, f.other, "2024-01-01", "2024-01-07")
	if _, err := f.svc.Submit(ctx, f.owner, a.ID); err != nil {
		t.Fatal(err)
	}

	page, err := f.svc.List(ctx, f.owner, ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || len(page.Results) != 2 || page.Results[0].ID != b.ID {
		t.Fatalf("owner page = %+v", page)
	}
	if page.Limit != DefaultListLimit {
		t.Errorf("limit = %d", page.Limit)
	}

	page, err = f.svc.List(ctx, f.admin, ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 {
		t.Errorf("admin total = %d", page.Total)
	}

	submitted := domain.StatusSubmitted
	page, err = f.svc.List(ctx, f.admin, ListQuery{Status: &submitted, Limit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Results[0].ID != a.ID || page.Limit != MaxListLimit {
		t.Errorf("filtered page = %+v", page)
	}

	// A user cannot widen the listing to someone else.
	page, err = f.svc.List(ctx, f.other, ListQuery{UserID: &f.owner.ID})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Errorf("other total = %d", page.Total)
	}
}
