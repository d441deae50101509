package kiduka

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/auth"
	"github.com/oscar066/kiduka-cli/internal/db"
	"github.com/oscar066/kiduka-cli/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database, config, and backend connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Database: %s\n", path)

		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			version, err := db.SchemaVersion(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Schema version: %d\n", version)

			base := client.BaseURL
			if base == "" {
				base = api.DefaultBaseURL
			}
			fmt.Fprintf(out, "API base URL: %s\n", base)

			settings, err := store.ListConfig(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Stored settings: %d\n", len(settings))
			for _, key := range []string{store.ConfigAPIBaseURL, store.ConfigTimeoutSeconds, store.ConfigAnalyzeTimeoutSeconds, store.ConfigDefaultRadiusKm, store.ConfigDefaultPageSize} {
				if value, ok := settings[key]; ok {
					fmt.Fprintf(out, "  %s = %s\n", key, value)
				}
			}

			manager := &auth.Manager{DB: sqldb, Client: client, Logger: appLogger()}
			state, user := manager.State(cmd.Context())
			if state == auth.StateAuthenticated && user != nil {
				fmt.Fprintf(out, "Session: logged in as %s\n", user.Username)
			} else {
				fmt.Fprintln(out, "Session: logged out")
			}

			// Any HTTP response, even an error status, proves the server
			// is reachable. Only transport-level failures count against it.
			err = client.Get(cmd.Context(), "/health", nil, false)
			if err != nil && api.IsTransient(err) {
				fmt.Fprintf(out, "Backend: unreachable (%v)\n", err)
				return fmt.Errorf("backend unreachable at %s", base)
			}
			fmt.Fprintln(out, "Backend: reachable")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
