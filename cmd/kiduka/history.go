package kiduka

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/model"
	"github.com/oscar066/kiduka-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past analyses",
}

var (
	historyPage      int
	historySize      int
	historySortBy    string
	historySortOrder string

	historyListCached bool
	historyShowCached bool
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			out := cmd.OutOrStdout()

			size := historySize
			if !cmd.Flags().Changed("size") {
				size = configInt(sqldb, store.ConfigDefaultPageSize, historySize)
			}

			if historyListCached {
				items, err := store.CachedAnalyses(sqldb, size)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No cached analyses")
					return nil
				}
				printHistoryRows(out, items)
				return nil
			}

			svc := newSoilService(sqldb, client)
			page, err := svc.History(cmd.Context(), historyPage, size, historySortBy, historySortOrder)
			if err != nil {
				return err
			}

			if len(page.Items) == 0 {
				fmt.Fprintln(out, "No analyses yet")
				return nil
			}
			printHistoryRows(out, page.Items)
			fmt.Fprintf(out, "\nPage %d/%d (%d total)\n", page.Page, page.TotalPages, page.Total)
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <prediction-id>",
	Short: "Show one analysis in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			if historyShowCached {
				result, ok, err := store.CachedAnalysis(sqldb, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no cached copy of %s; fetch it without --cached first", args[0])
				}
				printAnalysis(cmd, *result)
				return nil
			}

			svc := newSoilService(sqldb, client)
			result, err := svc.ByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printAnalysis(cmd, result)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <prediction-id>",
	Short: "Delete an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			svc := newSoilService(sqldb, client)
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

func printHistoryRows(out io.Writer, items []model.AnalysisResult) {
	fmt.Fprintln(out, "ID\tFERTILITY\tFERTILIZER\tDATE")
	for _, item := range items {
		fmt.Fprintf(out, "%s\t%s (%s)\t%s\t%s\n",
			item.PredictionID, item.FertilityStatus, formatConfidence(item.FertilityConfidence),
			item.FertilizerRecommendation, item.Timestamp)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)

	historyListCmd.Flags().IntVar(&historyPage, "page", 1, "Page number")
	historyListCmd.Flags().BoolVar(&historyListCached, "cached", false, "List the local cache instead of the backend")
	historyListCmd.Flags().IntVar(&historySize, "size", 10, "Page size")
	historyListCmd.Flags().StringVar(&historySortBy, "sort-by", "created_at", "Sort key")
	historyListCmd.Flags().StringVar(&historySortOrder, "sort-order", "desc", "Sort order (asc or desc)")

	historyShowCmd.Flags().BoolVar(&historyShowCached, "cached", false, "Read the local cache instead of the backend")
}
