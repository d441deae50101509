package kiduka

import (
	"bufio"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/app"
	"github.com/oscar066/kiduka-cli/internal/db"
	"github.com/oscar066/kiduka-cli/internal/model"
	"github.com/oscar066/kiduka-cli/internal/soil"
	"github.com/oscar066/kiduka-cli/internal/store"
)

func withDB(run func(*sql.DB) error) error {
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
	return run(sqldb)
}

func withServices(run func(*sql.DB, *api.Client) error) error {
	return withDB(func(sqldb *sql.DB) error {
		return run(sqldb, newClient(sqldb))
	})
}

func newClient(sqldb *sql.DB) *api.Client {
	logger := appLogger()
	client := &api.Client{
		BaseURL:    resolveBaseURL(sqldb),
		HTTPClient: &http.Client{},
		Timeout:    resolveTimeout(sqldb),
		Tokens:     store.DBTokens{DB: sqldb, Logger: logger},
		Logger:     logger,
	}
	client.OnUnauthorized = func() {
		if err := store.ClearSession(sqldb); err != nil {
			logger.Warn().Err(err).Msg("failed to clear session after 401")
		}
	}
	return client
}

// Base URL precedence: --api-url flag, then KIDUKA_API_URL, then the stored
// config value. An empty result falls back to the client's built-in default.
func resolveBaseURL(sqldb *sql.DB) string {
	if apiURL != "" {
		return apiURL
	}
	if env := strings.TrimSpace(os.Getenv("KIDUKA_API_URL")); env != "" {
		return env
	}
	if value, ok, err := store.GetConfig(sqldb, store.ConfigAPIBaseURL); err == nil && ok {
		return value
	}
	return ""
}

func resolveTimeout(sqldb *sql.DB) time.Duration {
	value, ok, err := store.GetConfig(sqldb, store.ConfigTimeoutSeconds)
	if err != nil || !ok {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// resolveAnalyzeTimeout reads the analyze_timeout_seconds setting; zero means
// the service falls back to its built-in prediction deadline.
func resolveAnalyzeTimeout(sqldb *sql.DB) time.Duration {
	seconds := configInt(sqldb, store.ConfigAnalyzeTimeoutSeconds, 0)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func newSoilService(sqldb *sql.DB, client *api.Client) *soil.Service {
	return &soil.Service{
		DB:             sqldb,
		Client:         client,
		Logger:         appLogger(),
		AnalyzeTimeout: resolveAnalyzeTimeout(sqldb),
	}
}

func configInt(sqldb *sql.DB, key string, fallback int) int {
	value, ok, err := store.GetConfig(sqldb, key)
	if err != nil || !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func configFloat(sqldb *sql.DB, key string, fallback float64) float64 {
	value, ok, err := store.GetConfig(sqldb, key)
	if err != nil || !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func formatConfidence(confidence float64) string {
	return fmt.Sprintf("%.0f%%", confidence*100)
}

func printAnalysis(cmd *cobra.Command, result model.AnalysisResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fertility: %s (%s confidence)\n", result.FertilityStatus, formatConfidence(result.FertilityConfidence))
	fmt.Fprintf(out, "Fertilizer: %s (%s confidence)\n", result.FertilizerRecommendation, formatConfidence(result.FertilizerConfidence))
	if result.PredictionID != "" {
		fmt.Fprintf(out, "Prediction ID: %s\n", result.PredictionID)
	}
	if result.Timestamp != "" {
		fmt.Fprintf(out, "Timestamp: %s\n", result.Timestamp)
	}

	if advice := result.Advice; advice != nil {
		if advice.Explanation.Summary != "" {
			fmt.Fprintf(out, "\nSummary: %s\n", advice.Explanation.Summary)
		}
		if len(advice.Recommendations) > 0 {
			fmt.Fprintln(out, "\nRecommended actions:")
			for _, r := range advice.Recommendations {
				fmt.Fprintf(out, "  [%s] %s (%s)\n", r.Priority, r.Action, r.Timeframe)
			}
		}
		if advice.LongTermStrategy != "" {
			fmt.Fprintf(out, "\nLong term: %s\n", advice.LongTermStrategy)
		}
	}

	if len(result.NearbyAgrovets) > 0 {
		fmt.Fprintln(out, "\nNearby agrovets:")
		printAgrovets(cmd, result.NearbyAgrovets)
	}
}

func printAgrovets(cmd *cobra.Command, agrovets []model.Agrovet) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "NAME\tDISTANCE\tCONTACT\tPRODUCTS")
	for _, a := range agrovets {
		products := make([]string, 0, len(a.Products))
		for i, p := range a.Products {
			if i < len(a.Prices) {
				products = append(products, fmt.Sprintf("%s (%.0f)", p, a.Prices[i]))
			} else {
				products = append(products, p)
			}
		}
		contact := a.Phone
		if contact == "" {
			contact = a.Email
		}
		if contact == "" {
			contact = "-"
		}
		fmt.Fprintf(out, "%s\t%.1f km\t%s\t%s\n", a.Name, a.DistanceKm, contact, strings.Join(products, ", "))
	}
}
