// Package app assembles the use cases, handlers and router on top of one
// store's repositories. cmd/timesheets and the HTTP tests share it.
package app

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/auth"
	"github.com/amirhosseinghanipour/timesheets/internal/application/directory"
	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/application/report"
	"github.com/amirhosseinghanipour/timesheets/internal/application/timesheet"
	"github.com/amirhosseinghanipour/timesheets/internal/application/users"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	httprouter "github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
)

// APIVersion is sent in the X-API-Version header.
const APIVersion = "1"

type Options struct {
	Repos   persistence.Repositories
	Issuer  ports.TokenIssuer
	Hasher  ports.PasswordHasher
	Lockout ports.LoginLockoutStore // optional
	Events  ports.TaskEnqueuer      // optional
	Clock   clock.Clock
	Log     zerolog.Logger

	DB    handlers.Pinger
	Redis *redis.Client // optional, health only

	AccessExpiry  time.Duration
	RefreshExpiry time.Duration

	RatePerIP     string
	RatePerUser   string
	CORSOrigins   []string
	IsDevelopment bool
	Metrics       bool
}

type App struct {
	Router http.Handler
	Users  *users.Service
}

func New(opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	r := opts.Repos
	pol := policy.New(r.Memberships)

	sessions := auth.NewSessions(opts.Issuer, r.Tokens, opts.Clock, opts.AccessExpiry, opts.RefreshExpiry)
	loginUC := auth.NewLogin(r.Tx, r.Users, opts.Hasher, sessions, opts.Lockout)
	refreshUC := auth.NewRefresh(r.Tx, opts.Issuer, r.Tokens, r.Users, sessions, opts.Clock)
	logoutUC := auth.NewLogout(r.Tx, opts.Issuer, r.Tokens, opts.Clock)
	authenticateUC := auth.NewAuthenticate(opts.Issuer, r.Users)

	accounts := directory.NewAccounts(r.Tx, r.Accounts, opts.Clock)
	projects := directory.NewProjects(r.Tx, r.Projects, r.Accounts, pol, opts.Clock)
	members := directory.NewMembers(r.Tx, r.Projects, r.Users, r.Memberships, pol, opts.Clock)
	userSvc := users.NewService(r.Tx, r.Users, r.Accounts, opts.Hasher, opts.Clock)
	profiles := users.NewProfiles(r.Tx, r.Profiles, opts.Clock)
	timesheets := timesheet.NewService(r.Tx, r.Timesheets, r.Items, r.Projects, pol, opts.Events, opts.Clock, opts.Log)
	reports := report.NewService(r.Tx, r.Reports, r.Users, r.Projects, pol)

	ipLimit, err := middleware.NewIPRateLimiter(opts.RatePerIP)
	if err != nil {
		return nil, err
	}
	userLimit, err := middleware.NewUserRateLimiter(opts.RatePerUser)
	if err != nil {
		return nil, err
	}

	var health *handlers.HealthHandler
	if opts.DB != nil {
		health = handlers.NewHealthHandler(opts.DB, opts.Redis)
	}

	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:       handlers.NewAuthHandler(loginUC, refreshUC, logoutUC, opts.Log),
		HealthHandler:     health,
		ProfileHandler:    handlers.NewProfileHandler(profiles),
		UsersHandler:      handlers.NewUsersHandler(userSvc),
		AccountsHandler:   handlers.NewAccountsHandler(accounts, projects),
		ProjectsHandler:   handlers.NewProjectsHandler(projects, members),
		TimesheetsHandler: handlers.NewTimesheetsHandler(timesheets, opts.Log),
		ReportsHandler:    handlers.NewReportsHandler(reports),
		RequireJWT:        middleware.NewAuthValidator(authenticateUC).Handler,
		Log:               opts.Log,
		Secure:            middleware.NewSecure(middleware.SecureOptions(opts.IsDevelopment)),
		CORS:              middleware.CORS(opts.CORSOrigins, nil, nil),
		IPRateLimit:       ipLimit,
		UserRateLimit:     userLimit,
		Metrics:           opts.Metrics,
		APIVersion:        APIVersion,
		Clock:             opts.Clock,
	})
	return &App{Router: router, Users: userSvc}, nil
}
