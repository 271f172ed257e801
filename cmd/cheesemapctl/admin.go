package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminEmail     string
	adminFirstName string
	adminLastName  string
)

// createAdminCmd creates an admin account or promotes an existing user.
// The password is read from CHEESEMAP_ADMIN_PASSWORD to keep it out of shell history.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or promote an admin account",
	Long: `Create an admin account, or grant the admin role to an existing user and
reset their password.

Examples:
  CHEESEMAP_ADMIN_PASSWORD=... cheesemapctl create-admin --email ops@cheesemap.fr`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := os.Getenv("CHEESEMAP_ADMIN_PASSWORD")
		if password == "" {
			return fmt.Errorf("CHEESEMAP_ADMIN_PASSWORD is not set")
		}

		db, err := connect()
		if err != nil {
			return err
		}
		defer db.Close()

		auth := services.NewAuthService(
			database.NewUserRepository(db),
			database.NewRefreshTokenRepository(db),
			nil,
			nil,
			bcrypt.DefaultCost,
			newLogger(),
		)

		user, err := auth.EnsureAdmin(adminEmail, password, adminFirstName, adminLastName)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s (%s) roles: %s\n", user.Email, user.ID, strings.Join(user.Roles, ","))
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	createAdminCmd.Flags().StringVar(&adminFirstName, "first-name", "", "First name")
	createAdminCmd.Flags().StringVar(&adminLastName, "last-name", "", "Last name")
	_ = createAdminCmd.MarkFlagRequired("email")
}
