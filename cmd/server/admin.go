package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursetutor/tutor-backend/internal/core"
	"github.com/coursetutor/tutor-backend/internal/store"
)

// makeAdminCmd bootstraps the first administrator; later ones can be promoted over the API.
var makeAdminCmd = &cobra.Command{
	Use:   "make-admin <email>",
	Short: "Grant the admin role to an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		log, err := newLogger()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		dbStore, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbStore.Close()

		user, err := dbStore.GetUserByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user with email %q", args[0])
		}
		if err := core.NewUserService(dbStore, log).AssignRole(ctx, user.ID, store.RoleAdmin); err != nil {
			return err
		}
		fmt.Printf("%s is now an admin\n", user.Email)
		return nil
	},
}
