package persistence

import "github.com/amirhosseinghanipour/timesheets/internal/application/ports"

// Repositories bundles one store's implementations of every port.
type Repositories struct {
	Tx          ports.TxManager
	Accounts    ports.AccountRepository
	Projects    ports.ProjectRepository
	Memberships ports.MembershipRepository
	Users       ports.UserRepository
	Profiles    ports.ProfileRepository
	Tokens      ports.TokenStore
	Timesheets  ports.TimesheetRepository
	Items       ports.TimesheetItemRepository
	Reports     ports.ReportRepository
}
