package kiduka

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/agrovet"
	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/store"
)

var agrovetsCmd = &cobra.Command{
	Use:   "agrovets",
	Short: "Find agrovet suppliers",
}

var (
	agrovetLat        float64
	agrovetLng        float64
	agrovetRadius     float64
	agrovetLimit      int
	agrovetFertilizer string
	agrovetCategory   string
	agrovetMinRating  float64
	agrovetOpenNow    bool
	agrovetSortBy     string
)

var agrovetsNearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List suppliers around a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(sqldb *sql.DB, client *api.Client) error {
			radius := agrovetRadius
			if !cmd.Flags().Changed("radius") {
				radius = configFloat(sqldb, store.ConfigDefaultRadiusKm, agrovetRadius)
			}

			svc := &agrovet.Service{Client: client}
			suppliers, err := svc.Nearby(cmd.Context(), agrovet.SearchParams{
				Latitude:       agrovetLat,
				Longitude:      agrovetLng,
				RadiusKm:       radius,
				Limit:          agrovetLimit,
				FertilizerType: agrovetFertilizer,
				Category:       agrovetCategory,
				RatingMin:      agrovetMinRating,
				OpenNow:        agrovetOpenNow,
				SortBy:         agrovetSortBy,
			})
			if err != nil {
				return err
			}

			if len(suppliers) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No agrovets within %.0f km\n", radius)
				return nil
			}
			printAgrovets(cmd, suppliers)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(agrovetsCmd)
	agrovetsCmd.AddCommand(agrovetsNearbyCmd)

	agrovetsNearbyCmd.Flags().Float64Var(&agrovetLat, "lat", 0, "Latitude")
	agrovetsNearbyCmd.Flags().Float64Var(&agrovetLng, "lng", 0, "Longitude")
	agrovetsNearbyCmd.Flags().Float64Var(&agrovetRadius, "radius", 10, "Search radius in km")
	agrovetsNearbyCmd.Flags().IntVar(&agrovetLimit, "limit", 20, "Maximum results")
	agrovetsNearbyCmd.Flags().StringVar(&agrovetFertilizer, "fertilizer-type", "", "Filter by fertilizer type")
	agrovetsNearbyCmd.Flags().StringVar(&agrovetCategory, "category", "", "Filter by category")
	agrovetsNearbyCmd.Flags().Float64Var(&agrovetMinRating, "min-rating", 0, "Minimum rating")
	agrovetsNearbyCmd.Flags().BoolVar(&agrovetOpenNow, "open-now", false, "Only suppliers open right now")
	agrovetsNearbyCmd.Flags().StringVar(&agrovetSortBy, "sort-by", "", "Sort by distance, rating, or name")
	_ = agrovetsNearbyCmd.MarkFlagRequired("lat")
	_ = agrovetsNearbyCmd.MarkFlagRequired("lng")
}
