package main

import (
	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/timesheets/internal/application/users"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/security"
)

var adminFlags struct {
	email    string
	password string
	userID   string
	name     string
}

// createAdminCmd seeds the first administrator; every user-creation route
// requires one.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.close()
		svc := users.NewService(s.repos.Tx, s.repos.Users, s.repos.Accounts, security.NewPBKDF2Hasher(security.DefaultPBKDF2Params()), clock.Real())
		user, err := svc.Bootstrap(ctx, users.CreateInput{
			Code:     adminFlags.userID,
			Name:     adminFlags.name,
			Email:    adminFlags.email,
			Password: adminFlags.password,
			Role:     domain.RoleAdmin,
		})
		if err != nil {
			return err
		}
		log.Info().Str("id", user.ID.String()).Str("email", user.Email).Msg("admin created")
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminFlags.email, "email", "", "admin email (required)")
	f.StringVar(&adminFlags.password, "password", "", "admin password (required)")
	f.StringVar(&adminFlags.userID, "user-id", "admin", "external user_id")
	f.StringVar(&adminFlags.name, "name", "Administrator", "display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
