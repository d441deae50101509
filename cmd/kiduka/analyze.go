package kiduka

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/model"
	"github.com/oscar066/kiduka-cli/internal/soil"
)

var (
	analyzeFromDraft bool

	sampleTexture string
	samplePH      float64
	sampleN       float64
	sampleP       float64
	sampleK       float64
	sampleO       float64
	sampleCa      float64
	sampleMg      float64
	sampleCu      float64
	sampleFe      float64
	sampleZn      float64
	sampleLat     float64
	sampleLng     float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Submit a soil sample for analysis",
	Long:  "Submit a fully measured soil sample to the prediction service and print the fertility assessment, fertilizer recommendation, and nearby suppliers. Use --from-draft to submit the saved draft.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			svc := newSoilService(sqldb, client)

			var (
				result model.AnalysisResult
				err    error
			)
			if analyzeFromDraft {
				result, err = svc.AnalyzeDraft(cmd.Context())
			} else {
				result, err = svc.Analyze(cmd.Context(), model.SoilSample{
					Texture:       sampleTexture,
					PH:            samplePH,
					Nitrogen:      sampleN,
					Phosphorus:    sampleP,
					Potassium:     sampleK,
					OrganicMatter: sampleO,
					Calcium:       sampleCa,
					Magnesium:     sampleMg,
					Copper:        sampleCu,
					Iron:          sampleFe,
					Zinc:          sampleZn,
					Latitude:      sampleLat,
					Longitude:     sampleLng,
				})
			}
			if err != nil {
				var vErr *soil.ValidationError
				if errors.As(err, &vErr) {
					for _, field := range vErr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", field)
					}
					return fmt.Errorf("sample has %d invalid field(s)", len(vErr.Fields))
				}
				return err
			}

			printAnalysis(cmd, result)
			return nil
		})
	},
}

func addSampleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sampleTexture, "texture", "", "Soil texture (Sandy, Loamy, Clay, Silt, Sandy Loam, Clay Loam, Silty Clay, Sandy Clay)")
	cmd.Flags().Float64Var(&samplePH, "ph", 0, "Soil pH (0-14)")
	cmd.Flags().Float64Var(&sampleN, "n", 0, "Nitrogen mg/kg")
	cmd.Flags().Float64Var(&sampleP, "p", 0, "Phosphorus mg/kg")
	cmd.Flags().Float64Var(&sampleK, "k", 0, "Potassium mg/kg")
	cmd.Flags().Float64Var(&sampleO, "o", 0, "Organic matter %")
	cmd.Flags().Float64Var(&sampleCa, "ca", 0, "Calcium mg/kg")
	cmd.Flags().Float64Var(&sampleMg, "mg", 0, "Magnesium mg/kg")
	cmd.Flags().Float64Var(&sampleCu, "cu", 0, "Copper mg/kg")
	cmd.Flags().Float64Var(&sampleFe, "fe", 0, "Iron mg/kg")
	cmd.Flags().Float64Var(&sampleZn, "zn", 0, "Zinc mg/kg")
	cmd.Flags().Float64Var(&sampleLat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&sampleLng, "lng", 0, "Longitude")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addSampleFlags(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeFromDraft, "from-draft", false, "Submit the saved draft instead of flag values")
}
