package kiduka

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored settings",
	Long: `Settings live in the local database and apply to every command.

Known keys:
  api_url                  Backend base URL
  timeout_seconds          Request timeout for most calls
  analyze_timeout_seconds  Request timeout for sample submission
  default_radius_km        Default agrovet search radius
  default_page_size        Default history page size`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := store.SetConfig(sqldb, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				value, ok, err := store.GetConfig(sqldb, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("config key %q is not set", args[0])
				}
				fmt.Fprintln(out, value)
				return nil
			}

			all, err := store.ListConfig(sqldb)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(out, "No settings stored")
				return nil
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s = %s\n", k, all[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)
}
