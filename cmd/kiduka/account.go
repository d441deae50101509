package kiduka

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/auth"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage your kiduka account",
}

var (
	accountUsername string
	accountEmail    string
	accountFullName string

	currentPassword string
	newPassword     string

	deleteConfirmed bool
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			in := auth.UpdateProfileInput{}
			if cmd.Flags().Changed("username") {
				in.Username = &accountUsername
			}
			if cmd.Flags().Changed("email") {
				in.Email = &accountEmail
			}
			if cmd.Flags().Changed("full-name") {
				in.FullName = &accountFullName
			}

			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			user, err := manager.UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated profile for %s\n", user.Username)
			return nil
		})
	},
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			current := currentPassword
			if current == "" {
				var err error
				if current, err = promptLine(cmd, "Current password: "); err != nil {
					return err
				}
			}
			next := newPassword
			if next == "" {
				var err error
				if next, err = promptLine(cmd, "New password: "); err != nil {
					return err
				}
			}

			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			if err := manager.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		})
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteConfirmed {
			return fmt.Errorf("pass --yes to confirm account deletion")
		}
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			if err := manager.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountUpdateCmd, changePasswordCmd, accountDeleteCmd)

	accountUpdateCmd.Flags().StringVar(&accountUsername, "username", "", "New username")
	accountUpdateCmd.Flags().StringVar(&accountEmail, "email", "", "New email")
	accountUpdateCmd.Flags().StringVar(&accountFullName, "full-name", "", "New full name")

	changePasswordCmd.Flags().StringVar(&currentPassword, "current", "", "Current password (prompted when omitted)")
	changePasswordCmd.Flags().StringVar(&newPassword, "new", "", "New password (prompted when omitted)")

	accountDeleteCmd.Flags().BoolVar(&deleteConfirmed, "yes", false, "Confirm deletion")
}
