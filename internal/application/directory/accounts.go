package directory

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

type AccountInput struct {
	Code string
	Name string
	Type string
}

type AccountPatch struct {
	Code *string
	Name *string
	Type *string
}

// Accounts is the admin-only account directory.
type Accounts struct {
	tx       ports.TxManager
	accounts ports.AccountRepository
	clock    clock.Clock
}

func NewAccounts(tx ports.TxManager, accounts ports.AccountRepository, clk clock.Clock) *Accounts {
	return &Accounts{tx: tx, accounts: accounts, clock: clk}
}

func (s *Accounts) Create(ctx context.Context, caller *domain.User, in AccountInput) (*domain.Account, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if err := required(map[string]string{"account_id": in.Code, "name": in.Name}); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	account := &domain.Account{
		ID:        domain.NewAccountID(uuid.New()),
		Code:      in.Code,
		Name:      in.Name,
		Type:      strings.TrimSpace(in.Type),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Accounts) Get(ctx context.Context, caller *domain.User, id domain.AccountID) (*domain.Account, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var account *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.load(ctx, id)
		return err
	})
	return account, err
}

func (s *Accounts) List(ctx context.Context, caller *domain.User, limit, offset int) ([]*domain.Account, int, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	limit, offset = normalizePage(limit, offset)
	var (
		accounts []*domain.Account
		total    int
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		accounts, total, err = s.accounts.List(ctx, limit, offset)
		return err
	})
	return accounts, total, err
}

func (s *Accounts) Update(ctx context.Context, caller *domain.User, id domain.AccountID, patch AccountPatch) (*domain.Account, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var account *domain.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if account, err = s.load(ctx, id); err != nil {
			return err
		}
		if patch.Code != nil {
			if code := strings.TrimSpace(*patch.Code); code != "" {
				account.Code = code
			}
		}
		if patch.Name != nil {
			if name := strings.TrimSpace(*patch.Name); name != "" {
				account.Name = name
			}
		}
		if patch.Type != nil {
			account.Type = strings.TrimSpace(*patch.Type)
		}
		account.UpdatedAt = s.clock.Now()
		return s.accounts.Update(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes an account. Accounts that still own projects are kept and
// a conflict is returned.
func (s *Accounts) Delete(ctx context.Context, caller *domain.User, id domain.AccountID) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		return s.accounts.Delete(ctx, id)
	})
}

func (s *Accounts) load(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domerrors.ErrAccountNotFound
	}
	return account, nil
}
