package kiduka

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/model"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage the local soil-sample draft",
	Long:  "The draft is a single local slot for a partially measured sample. Fields set here survive restarts until the draft is submitted or cleared.",
}

var draftSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set draft fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			overlay := model.SoilDraft{}
			changed := 0
			if cmd.Flags().Changed("texture") {
				overlay.Texture = &sampleTexture
				changed++
			}
			floatFlags := []struct {
				name  string
				value *float64
				field **float64
			}{
				{"ph", &samplePH, &overlay.PH},
				{"n", &sampleN, &overlay.Nitrogen},
				{"p", &sampleP, &overlay.Phosphorus},
				{"k", &sampleK, &overlay.Potassium},
				{"o", &sampleO, &overlay.OrganicMatter},
				{"ca", &sampleCa, &overlay.Calcium},
				{"mg", &sampleMg, &overlay.Magnesium},
				{"cu", &sampleCu, &overlay.Copper},
				{"fe", &sampleFe, &overlay.Iron},
				{"zn", &sampleZn, &overlay.Zinc},
				{"lat", &sampleLat, &overlay.Latitude},
				{"lng", &sampleLng, &overlay.Longitude},
			}
			for _, f := range floatFlags {
				if cmd.Flags().Changed(f.name) {
					*f.field = f.value
					changed++
				}
			}
			if changed == 0 {
				return fmt.Errorf("set at least one field flag")
			}

			svc := newSoilService(sqldb, client)
			merged, err := svc.SaveDraft(overlay)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d field(s)", changed)
			if merged.Complete() {
				fmt.Fprint(cmd.OutOrStdout(), " — draft is complete, submit with `kiduka analyze --from-draft`")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		})
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			svc := newSoilService(sqldb, client)
			draft, ok, err := svc.Draft()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved draft")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "FIELD\tVALUE")
			printDraftString(out, "texture", draft.Texture)
			printDraftFloat(out, "ph", draft.PH)
			printDraftFloat(out, "n", draft.Nitrogen)
			printDraftFloat(out, "p", draft.Phosphorus)
			printDraftFloat(out, "k", draft.Potassium)
			printDraftFloat(out, "o", draft.OrganicMatter)
			printDraftFloat(out, "ca", draft.Calcium)
			printDraftFloat(out, "mg", draft.Magnesium)
			printDraftFloat(out, "cu", draft.Copper)
			printDraftFloat(out, "fe", draft.Iron)
			printDraftFloat(out, "zn", draft.Zinc)
			printDraftFloat(out, "lat", draft.Latitude)
			printDraftFloat(out, "lng", draft.Longitude)
			if draft.Complete() {
				fmt.Fprintln(out, "\nDraft is complete")
			} else {
				fmt.Fprintln(out, "\nDraft is incomplete")
			}
			return nil
		})
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the saved draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			svc := newSoilService(sqldb, client)
			if err := svc.ClearDraft(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared")
			return nil
		})
	},
}

func printDraftString(out io.Writer, name string, value *string) {
	if value == nil {
		fmt.Fprintf(out, "%s\t-\n", name)
		return
	}
	fmt.Fprintf(out, "%s\t%s\n", name, *value)
}

func printDraftFloat(out io.Writer, name string, value *float64) {
	if value == nil {
		fmt.Fprintf(out, "%s\t-\n", name)
		return
	}
	fmt.Fprintf(out, "%s\t%g\n", name, *value)
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftSetCmd, draftShowCmd, draftClearCmd)
	addSampleFlags(draftSetCmd)
}
