package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/auth"
	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
)

// sampleUsers are the accounts created by "scheduler seed".
var sampleUsers = []domain.User{
	{Email: "doctor@example.com", FirstName: "John", LastName: "Doe", Role: domain.RoleDoctor},
	{Email: "patient@example.com", FirstName: "Jane", LastName: "Smith", Role: domain.RolePatient},
}

func newSeedCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the sample doctor and patient accounts",
		Long:  "Creates doctor@example.com and patient@example.com. Existing accounts are left unchanged, so the command can be re-run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := repo.AutoMigrate(db); err != nil {
				return err
			}
			return seed(cmd.Context(), db, password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "password123", "password for the sample accounts")
	return cmd
}

func seed(ctx context.Context, db *gorm.DB, password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	for _, tmpl := range sampleUsers {
		u := tmpl
		u.PasswordHash = hash
		created, err := repo.EnsureUser(ctx, db, &u)
		if err != nil {
			return err
		}
		log.Info().Str("email", u.Email).Str("role", string(u.Role)).Bool("created", created).Msg("sample user")
	}
	return nil
}
