// Package testutil builds an in-memory store with seed data for tests.
package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence/sqlite"
)

// Epoch is where every test clock starts.
var Epoch = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

type Env struct {
	DB    *sql.DB
	Repos persistence.Repositories
	Clock *clock.FakeClock
}

func NewEnv(t testing.TB) *Env {
	t.Helper()
	db, err := sqlite.NewMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Env{DB: db, Repos: sqlite.NewRepositories(db), Clock: clock.Fake(Epoch)}
}

// Day parses a YYYY-MM-DD date and fails the test on a typo.
func Day(t testing.TB, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// User stores an active user with the given role and password hash.
func (e *Env) User(t testing.TB, role domain.Role, passwordHash string) *domain.User {
	t.Helper()
	id := uuid.New()
	now := e.Clock.Now()
	u := &domain.User{
		ID:           domain.NewUserID(id),
		Code:         "u-" + id.String()[:8],
		Name:         "User " + id.String()[:8],
		Email:        id.String()[:8] + "@example.com",
		Role:         role,
		Status:       domain.UserActive,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.Repos.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// Project stores an active project.
func (e *Env) Project(t testing.TB, code string) *domain.Project {
	t.Helper()
	now := e.Clock.Now()
	p := &domain.Project{
		ID:        domain.NewProjectID(uuid.New()),
		Code:      code,
		Name:      "Project " + code,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Repos.Projects.Create(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

// Member adds u to p.
func (e *Env) Member(t testing.TB, p *domain.Project, u *domain.User) {
	t.Helper()
	m := &domain.Membership{UserID: u.ID, ProjectID: p.ID, RoleInProject: "developer", CreatedAt: e.Clock.Now()}
	if err := e.Repos.Memberships.Add(context.Background(), m); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

// Events records enqueued tasks.
type Events struct {
	mu         sync.Mutex
	Timesheets []ports.TimesheetEvent
	Prunes     int
	Err        error
}

func (e *Events) EnqueueTimesheetEvent(_ context.Context, ev ports.TimesheetEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Timesheets = append(e.Timesheets, ev)
	return nil
}

func (e *Events) EnqueuePruneTokens(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Prunes++
	return e.Err
}

// Names returns the recorded timesheet event names in order.
func (e *Events) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.Timesheets))
	for _, ev := range e.Timesheets {
		out = append(out, ev.Event)
	}
	return out
}

var _ ports.TaskEnqueuer = (*Events)(nil)
