package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/testutil"
)

type fixture struct {
	env      *testutil.Env
	accounts *Accounts
	projects *Projects
	members  *Members
	admin    *domain.User
	user     *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewEnv(t)
	r := env.Repos
	pol := policy.New(r.Memberships)
	return &fixture{
		env:      env,
		accounts: NewAccounts(r.Tx, r.Accounts, env.Clock),
		projects: NewProjects(r.Tx, r.Projects, r.Accounts, pol, env.Clock),
		members:  NewMembers(r.Tx, r.Projects, r.Users, r.Memberships, pol, env.Clock),
		admin:    env.User(t, domain.RoleAdmin, "x"),
		user:     env.User(t, domain.RoleUser, "x"),
	}
}

func TestAccountsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.accounts.Create(ctx, f.user, AccountInput{Code: "ACME", Name: "Acme"}); domerrors.KindOf(err) != domerrors.KindForbidden {
		t.Fatalf("user create = %v", err)
	}
	_, err := f.accounts.Create(ctx, f.admin, AccountInput{Code: " ", Name: ""})
	e, ok := domerrors.As(err)
	if !ok || e.Kind != domerrors.KindValidation || e.Details["account_id"] != "required" || e.Details["name"] != "required" {
		t.Fatalf("blank create = %v", err)
	}

	acct, err := f.accounts.Create(ctx, f.admin, AccountInput{Code: "ACME", Name: "Acme"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.accounts.Create(ctx, f.admin, AccountInput{Code: "ACME", Name: "Other"}); domerrors.KindOf(err) != domerrors.KindConflict {
		t.Errorf("duplicate code = %v", err)
	}

	name := "Acme Corp"
	updated, err := f.accounts.Update(ctx, f.admin, acct.ID, AccountPatch{Name: &name})
	if err != nil || updated.Name != name || updated.Code != "ACME" {
		t.Fatalf("update = %+v, %v", updated, err)
	}
}

func TestAccountDeleteRestrictedByProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acct, err := f.accounts.Create(ctx, f.admin, AccountInput{Code: "ACME", Name: "Acme"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.projects.CreateForAccount(ctx, f.admin, acct.ID, ProjectInput{Code: "WEB", Name: "Website"})
	if err != nil {
		t.Fatal(err)
	}
	if p.AccountID == nil || *p.AccountID != acct.ID || !p.IsActive {
		t.Fatalf("project = %+v", p)
	}

	if err := f.accounts.Delete(ctx, f.admin, acct.ID); domerrors.KindOf(err) != domerrors.KindConflict {
		t.Fatalf("delete with projects = %v", err)
	}
	if err := f.projects.DeleteForAccount(ctx, f.admin, acct.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.accounts.Delete(ctx, f.admin, acct.ID); err != nil {
		t.Fatalf("delete empty account = %v", err)
	}
	if _, err := f.accounts.Get(ctx, f.admin, acct.ID); !errors.Is(err, domerrors.ErrAccountNotFound) {
		t.Errorf("get deleted = %v", err)
	}
}

func TestProjectScopedToAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme, _ := f.accounts.Create(ctx, f.admin, AccountInput{Code: "ACME", Name: "Acme"})
	globex, _ := f.accounts.Create(ctx, f.admin, AccountInput{Code: "GLOBEX", Name: "Globex"})
	p, err := f.projects.CreateForAccount(ctx, f.admin, acme.ID, ProjectInput{Code: "WEB", Name: "Website"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.projects.GetForAccount(ctx, f.admin, globex.ID, p.ID); domerrors.KindOf(err) != domerrors.KindNotFound {
		t.Errorf("cross-account get = %v", err)
	}
	page, err := f.projects.ListForAccount(ctx, f.admin, globex.ID, ProjectQuery{})
	if err != nil || page.Total != 0 {
		t.Errorf("globex projects = %+v, %v", page, err)
	}
}

func TestProjectVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.env.Project(t, "ALPHA")
	f.env.Project(t, "BETA")
	f.env.Member(t, alpha, f.user)

	page, err := f.projects.List(ctx, f.user, ProjectQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Results[0].ID != alpha.ID || page.Limit != DefaultListLimit {
		t.Errorf("member list = %+v", page)
	}

	page, err = f.projects.List(ctx, f.admin, ProjectQuery{Ordering: "-code", Limit: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.Limit != MaxListLimit || page.Results[0].Code != "BETA" {
		t.Errorf("admin list = %+v", page)
	}

	// Unknown ordering falls back instead of failing.
	if _, err := f.projects.List(ctx, f.admin, ProjectQuery{Ordering: "password_hash; drop"}); err != nil {
		t.Errorf("bad ordering = %v", err)
	}
}

func TestProjectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.projects.Create(ctx, f.user, ProjectInput{Code: "X", Name: "X"}); domerrors.KindOf(err) != domerrors.KindForbidden {
		t.Errorf("user create = %v", err)
	}
	if _, err := f.projects.Create(ctx, f.admin, ProjectInput{Code: "X"}); domerrors.KindOf(err) != domerrors.KindValidation {
		t.Errorf("missing name = %v", err)
	}
	if _, err := f.projects.Create(ctx, f.admin, ProjectInput{Code: "X", Name: "X"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.projects.Create(ctx, f.admin, ProjectInput{Code: "X", Name: "Y"}); domerrors.KindOf(err) != domerrors.KindConflict {
		t.Errorf("duplicate code = %v", err)
	}
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.env.Project(t, "ALPHA")

	if _, err := f.members.Add(ctx, f.user, p.ID, f.user.ID, "dev"); domerrors.KindOf(err) != domerrors.KindForbidden {
		t.Fatalf("self add = %v", err)
	}
	m, err := f.members.Add(ctx, f.admin, p.ID, f.user.ID, " lead ")
	if err != nil {
		t.Fatal(err)
	}
	if m.RoleInProject != "lead" {
		t.Errorf("role_in_project = %q", m.RoleInProject)
	}
	if _, err := f.members.Add(ctx, f.admin, p.ID, f.user.ID, ""); !errors.Is(err, domerrors.ErrMembershipExists) {
		t.Errorf("duplicate add = %v", err)
	}

	list, err := f.members.List(ctx, f.user, p.ID)
	if err != nil || len(list) != 1 || list[0].UserID != f.user.ID {
		t.Fatalf("members = %+v, %v", list, err)
	}

	if err := f.members.Remove(ctx, f.admin, p.ID, f.user.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.members.Remove(ctx, f.admin, p.ID, f.user.ID); !errors.Is(err, domerrors.ErrMemberNotFound) {
		t.Errorf("second remove = %v", err)
	}
	if _, err := f.projects.Get(ctx, f.user, p.ID); domerrors.KindOf(err) != domerrors.KindForbidden {
		t.Errorf("get after removal = %v", err)
	}
}
