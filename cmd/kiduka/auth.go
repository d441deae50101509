package kiduka

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/auth"
	"github.com/oscar066/kiduka-cli/internal/store"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your kiduka session",
}

var (
	loginUser     string
	loginPassword string

	registerUsername string
	registerEmail    string
	registerFullName string
	registerPassword string
	registerAndLogin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			user := loginUser
			if user == "" {
				var err error
				if user, err = promptLine(cmd, "Username or email: "); err != nil {
					return err
				}
			}
			password := loginPassword
			if password == "" {
				var err error
				if password, err = promptLine(cmd, "Password: "); err != nil {
					return err
				}
			}

			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			session, err := manager.Login(cmd.Context(), user, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", session.User.Username, session.User.Email)
			return nil
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			password := registerPassword
			if password == "" {
				var err error
				if password, err = promptLine(cmd, "Password: "); err != nil {
					return err
				}
			}

			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			user, err := manager.Register(cmd.Context(), auth.RegisterInput{
				Username: registerUsername,
				Email:    registerEmail,
				Password: password,
				FullName: registerFullName,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s\n", user.Username)

			if !registerAndLogin {
				fmt.Fprintln(cmd.OutOrStdout(), "Run `kiduka auth login` to sign in.")
				return nil
			}
			// Registration returns a user, not a session; signing in is a
			// separate call with the same credentials.
			session, err := manager.Login(cmd.Context(), user.Username, password)
			if err != nil {
				return fmt.Errorf("account created but sign-in failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.User.Username)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			manager.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			state, user := manager.State(cmd.Context())
			if state != auth.StateAuthenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s (%s)\n", user.Username, user.Email)
			if user.FullName != "" {
				fmt.Fprintf(out, "Name: %s\n", user.FullName)
			}
			fmt.Fprintf(out, "Verified: %v\n", user.IsVerified)

			if token, ok, _ := store.Token(sqldb); ok {
				if expiry, ok := auth.TokenExpiry(token); ok {
					if time.Now().After(expiry) {
						fmt.Fprintf(out, "Token expired %s\n", expiry.Local().Format(time.RFC822))
					} else {
						fmt.Fprintf(out, "Token expires %s\n", expiry.Local().Format(time.RFC822))
					}
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, registerCmd, logoutCmd, statusCmd)

	loginCmd.Flags().StringVar(&loginUser, "user", "", "Username or email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")

	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Username (3-50 chars, letters/numbers/underscores)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerFullName, "full-name", "", "Full name (optional)")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted when omitted)")
	registerCmd.Flags().BoolVar(&registerAndLogin, "login", false, "Sign in right after registering")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
}
