package report

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/timesheet"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/testutil"
)

type fixture struct {
	svc         *Service
	admin       *domain.User
	alice, bob  *domain.User
	alpha, beta *domain.Project
	january     Range
}

// newFixture books, in January 2024:
//
//	alice: 8h alpha + 2h beta (Approved), 5h alpha (Rejected)
//	bob:   3h alpha (Draft), 4h alpha (Submitted)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	r := env.Repos
	pol := policy.New(r.Memberships)
	sheets := timesheet.NewService(r.Tx, r.Timesheets, r.Items, r.Projects, pol, nil, env.Clock, zerolog.Nop())
	f := &fixture{
		svc:     NewService(r.Tx, r.Reports, r.Users, r.Projects, pol),
		admin:   env.User(t, domain.RoleAdmin, "x"),
		alice:   env.User(t, domain.RoleUser, "x"),
		bob:     env.User(t, domain.RoleUser, "x"),
		alpha:   env.Project(t, "ALPHA"),
		beta:    env.Project(t, "BETA"),
		january: Range{From: testutil.Day(t, "2024-01-01"), To: testutil.Day(t, "2024-01-31")},
	}
	env.Member(t, f.alpha, f.alice)
	env.Member(t, f.beta, f.alice)
	env.Member(t, f.alpha, f.bob)

	ctx := context.Background()
	book := func(u *domain.User, start, end string, items map[*domain.Project]float64, date string) *domain.Timesheet {
		ts, err := sheets.Create(ctx, u, timesheet.CreateInput{PeriodStart: testutil.Day(t, start), PeriodEnd: testutil.Day(t, end)})
		if err != nil {
			t.Fatal(err)
		}
		for p, h := range items {
			if _, err := sheets.CreateItem(ctx, u, ts.ID, timesheet.ItemInput{ProjectID: p.ID, Date: testutil.Day(t, date), Hours: h}); err != nil {
				t.Fatal(err)
			}
		}
		return ts
	}
	must := func(_ *timesheet.ActionResult, err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	approved := book(f.alice, "2024-01-01", "2024-01-07", map[*domain.Project]float64{f.alpha: 8, f.beta: 2}, "2024-01-02")
	must(sheets.Submit(ctx, f.alice, approved.ID))
	must(sheets.Approve(ctx, f.admin, approved.ID))
	rejected := book(f.alice, "2024-01-08", "2024-01-14", map[*domain.Project]float64{f.alpha: 5}, "2024-01-09")
	must(sheets.Submit(ctx, f.alice, rejected.ID))
	must(sheets.Reject(ctx, f.admin, rejected.ID))

	book(f.bob, "2024-01-01", "2024-01-07", map[*domain.Project]float64{f.alpha: 3}, "2024-01-03")
	submitted := book(f.bob, "2024-01-08", "2024-01-14", map[*domain.Project]float64{f.alpha: 4}, "2024-01-10")
	must(sheets.Submit(ctx, f.bob, submitted.ID))
	return f
}

func TestUserHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.svc.UserHours(ctx, f.admin, f.january, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].UserID != f.alice.ID || rows[0].TotalHours != 10 {
		t.Errorf("first row = %+v, want alice with 10h (rejected excluded)", rows[0])
	}
	if rows[1].UserID != f.bob.ID || rows[1].TotalHours != 7 {
		t.Errorf("second row = %+v", rows[1])
	}

	rows, err = f.svc.UserHours(ctx, f.bob, f.january, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].UserID != f.bob.ID {
		t.Errorf("bob sees %+v", rows)
	}

	if _, err := f.svc.UserHours(ctx, f.bob, f.january, &f.alice.ID); !errors.Is(err, domerrors.ErrForbidden) {
		t.Errorf("bob asking for alice: %v", err)
	}

	rows, err = f.svc.UserHours(ctx, f.admin, f.january, &f.bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].TotalHours != 7 {
		t.Errorf("admin filter = %+v", rows)
	}

	feb := Range{From: testutil.Day(t, "2024-02-01"), To: testutil.Day(t, "2024-02-29")}
	if _, err := f.svc.UserHours(ctx, f.admin, feb, nil); !errors.Is(err, domerrors.ErrNoReportData) {
		t.Errorf("empty range: %v", err)
	}

	backwards := Range{From: f.january.To, To: f.january.From}
	if _, err := f.svc.UserHours(ctx, f.admin, backwards, nil); domerrors.KindOf(err) != domerrors.KindBusinessRule {
		t.Errorf("from after to: %v", err)
	}
	if _, err := f.svc.UserHours(ctx, f.admin, Range{To: f.january.To}, nil); domerrors.KindOf(err) != domerrors.KindValidation {
		t.Errorf("missing from: %v", err)
	}
}

func TestProjectHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.svc.ProjectHours(ctx, f.admin, f.alpha.ID, f.january)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].TotalHours != 15 || rows[0].ProjectName != f.alpha.Name {
		t.Fatalf("admin alpha = %+v", rows)
	}

	rows, err = f.svc.ProjectHours(ctx, f.bob, f.alpha.ID, f.january)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].TotalHours != 7 {
		t.Errorf("bob alpha = %+v, want only his own 7h", rows)
	}

	if _, err := f.svc.ProjectHours(ctx, f.bob, f.beta.ID, f.january); !errors.Is(err, domerrors.ErrNoProjectAccess) {
		t.Errorf("non-member: %v", err)
	}
}

func TestUserProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.svc.UserProjects(ctx, f.alice, f.alice.ID, f.january)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].ProjectID != f.alpha.ID || rows[0].TotalHours != 8 || rows[1].TotalHours != 2 {
		t.Fatalf("alice projects = %+v", rows)
	}
	if _, err := f.svc.UserProjects(ctx, f.bob, f.alice.ID, f.january); !errors.Is(err, domerrors.ErrForbidden) {
		t.Errorf("bob reading alice: %v", err)
	}
	if _, err := f.svc.UserProjects(ctx, f.admin, f.bob.ID, f.january); err != nil {
		t.Errorf("admin reading bob: %v", err)
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Summary(ctx, f.alice, f.january); !errors.Is(err, domerrors.ErrAdminRequired) {
		t.Fatalf("user summary: %v", err)
	}
	rows, err := f.svc.Summary(ctx, f.admin, f.january)
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.StatusHours{
		{Status: domain.StatusDraft, TotalHours: 3},
		{Status: domain.StatusSubmitted, TotalHours: 4},
		{Status: domain.StatusApproved, TotalHours: 10},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}

	// Only the first week: no Submitted hours, still reported as zero.
	week := Range{From: testutil.Day(t, "2024-01-01"), To: testutil.Day(t, "2024-01-07")}
	rows, err = f.svc.Summary(ctx, f.admin, week)
	if err != nil {
		t.Fatal(err)
	}
	if rows[1].Status != domain.StatusSubmitted || rows[1].TotalHours != 0 {
		t.Errorf("week summary = %+v", rows)
	}
}
