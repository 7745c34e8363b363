package users

import (
	"context"
	"strings"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// ProfilePatch sets the non-nil fields. Format checks (E.164 phone, ISO
// country, IANA zone, URL) happen at the transport boundary.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Country   *string
	TimeZone  *string
	AvatarURL *string
}

func (p ProfilePatch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.Country == nil && p.TimeZone == nil && p.AvatarURL == nil
}

// Profiles manages the caller's own profile.
type Profiles struct {
	tx       ports.TxManager
	profiles ports.ProfileRepository
	clock    clock.Clock
}

func NewProfiles(tx ports.TxManager, profiles ports.ProfileRepository, clk clock.Clock) *Profiles {
	return &Profiles{tx: tx, profiles: profiles, clock: clk}
}

func (s *Profiles) Get(ctx context.Context, caller *domain.User) (*domain.Profile, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	var profile *domain.Profile
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.profiles.Get(ctx, caller.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domerrors.ErrProfileNotFound
	}
	return profile, nil
}

// Update applies patch, creating the profile on first use.
func (s *Profiles) Update(ctx context.Context, caller *domain.User, patch ProfilePatch) (*domain.Profile, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	if patch.empty() {
		return nil, domerrors.Validation(nil, "at least one field must be provided")
	}
	var profile *domain.Profile
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if profile, err = s.profiles.Get(ctx, caller.ID); err != nil {
			return err
		}
		now := s.clock.Now()
		if profile == nil {
			profile = &domain.Profile{UserID: caller.ID, CreatedAt: now}
		}
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = strings.TrimSpace(*v)
			}
		}
		set(&profile.FirstName, patch.FirstName)
		set(&profile.LastName, patch.LastName)
		set(&profile.Phone, patch.Phone)
		set(&profile.TimeZone, patch.TimeZone)
		set(&profile.AvatarURL, patch.AvatarURL)
		if patch.Country != nil {
			profile.Country = strings.ToUpper(strings.TrimSpace(*patch.Country))
		}
		profile.UpdatedAt = now
		return s.profiles.Upsert(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}
