package kiduka

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/app"
	"github.com/oscar066/kiduka-cli/internal/db"
	"github.com/oscar066/kiduka-cli/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local kiduka database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := app.EnsureDBDir(path); err != nil {
			return err
		}

		sqldb, err := db.Open(path)
		if err != nil {
			return err
		}
		defer sqldb.Close()

		if err := db.ApplyMigrations(sqldb); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized kiduka database at %s\n", path)

		seen, err := store.OnboardingSeen(sqldb)
		if err != nil {
			return err
		}
		if !seen {
			fmt.Fprintln(cmd.OutOrStdout(), `
Quick start:
  kiduka auth register --username you --email you@example.com   create an account
  kiduka auth login --user you                                  sign in
  kiduka draft set --texture Loamy --ph 6.4                     build a sample as you measure
  kiduka analyze --from-draft                                   submit it for analysis
  kiduka agrovets nearby --lat -1.29 --lng 36.82                find suppliers around you`)
			if err := store.SetOnboardingSeen(sqldb); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	return app.DefaultDBPath()
}
