// Package users manages user records and the caller's own profile.
package users

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

type CreateInput struct {
	Code      string
	Name      string
	Email     string
	Password  string
	Role      domain.Role
	Status    domain.UserStatus // defaults to active
	AccountID *domain.AccountID
}

type UpdateInput struct {
	Code      *string
	Name      *string
	Email     *string
	Password  *string
	Role      *domain.Role
	Status    *domain.UserStatus
	AccountID *domain.AccountID
}

// Service is the admin-only user directory.
type Service struct {
	tx       ports.TxManager
	users    ports.UserRepository
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	clock    clock.Clock
}

func NewService(tx ports.TxManager, users ports.UserRepository, accounts ports.AccountRepository, hasher ports.PasswordHasher, clk clock.Clock) *Service {
	return &Service{tx: tx, users: users, accounts: accounts, hasher: hasher, clock: clk}
}

func (s *Service) Create(ctx context.Context, caller *domain.User, in CreateInput) (*domain.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Bootstrap creates a user without a caller. It backs the create-admin
// command, which seeds the first administrator.
func (s *Service) Bootstrap(ctx context.Context, in CreateInput) (*domain.User, error) {
	return s.create(ctx, in)
}

func (s *Service) create(ctx context.Context, in CreateInput) (*domain.User, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	details := domerrors.Details{}
	if in.Code == "" {
		details["user_id"] = "required"
	}
	if in.Email == "" {
		details["email"] = "required"
	}
	if in.Password == "" {
		details["password"] = "required"
	}
	if _, ok := domain.ParseRole(string(in.Role)); !ok {
		details["role"] = "must be admin or user"
	}
	if in.Status == "" {
		in.Status = domain.UserActive
	} else if _, ok := domain.ParseUserStatus(string(in.Status)); !ok {
		details["status"] = "must be active or inactive"
	}
	if len(details) > 0 {
		return nil, domerrors.Validation(details, "invalid user")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           domain.NewUserID(uuid.New()),
		Code:         in.Code,
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Role:         in.Role,
		Status:       in.Status,
		PasswordHash: hash,
		AccountID:    in.AccountID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if user.AccountID != nil {
			if err := s.requireAccount(ctx, *user.AccountID); err != nil {
				return err
			}
		}
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, caller *domain.User, id domain.UserID) (*domain.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.load(ctx, id)
		return err
	})
	return user, err
}

func (s *Service) List(ctx context.Context, caller *domain.User, limit, offset int) ([]*domain.User, int, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	var (
		users []*domain.User
		total int
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		users, total, err = s.users.List(ctx, limit, offset)
		return err
	})
	return users, total, err
}

func (s *Service) Update(ctx context.Context, caller *domain.User, id domain.UserID, in UpdateInput) (*domain.User, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var hash string
	if in.Password != nil && *in.Password != "" {
		var err error
		if hash, err = s.hasher.Hash(*in.Password); err != nil {
			return nil, err
		}
	}
	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if user, err = s.load(ctx, id); err != nil {
			return err
		}
		if in.Code != nil {
			if code := strings.TrimSpace(*in.Code); code != "" {
				user.Code = code
			}
		}
		if in.Name != nil {
			user.Name = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			if email := strings.ToLower(strings.TrimSpace(*in.Email)); email != "" {
				user.Email = email
			}
		}
		if in.Role != nil {
			if _, ok := domain.ParseRole(string(*in.Role)); !ok {
				return domerrors.Validation(domerrors.Details{"role": "must be admin or user"}, "invalid user")
			}
			user.Role = *in.Role
		}
		if in.Status != nil {
			if _, ok := domain.ParseUserStatus(string(*in.Status)); !ok {
				return domerrors.Validation(domerrors.Details{"status": "must be active or inactive"}, "invalid user")
			}
			user.Status = *in.Status
		}
		if in.AccountID != nil {
			if err := s.requireAccount(ctx, *in.AccountID); err != nil {
				return err
			}
			user.AccountID = in.AccountID
		}
		if hash != "" {
			user.PasswordHash = hash
		}
		user.UpdatedAt = s.clock.Now()
		return s.users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user with their memberships, profile and refresh tokens.
// Users who own timesheets are kept and a conflict is returned.
func (s *Service) Delete(ctx context.Context, caller *domain.User, id domain.UserID) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		return s.users.Delete(ctx, id)
	})
}

func (s *Service) load(ctx context.Context, id domain.UserID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) requireAccount(ctx context.Context, id domain.AccountID) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return domerrors.ErrAccountNotFound
	}
	return nil
}
