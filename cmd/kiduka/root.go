package kiduka

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	apiURL  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kiduka",
	Short: "kiduka analyzes soil samples from your terminal",
	Long:  "kiduka is a client for the Kiduka soil-analysis service: submit soil measurements, get fertility assessments and fertilizer recommendations, and find nearby agrovet suppliers.",
}

func Execute() {
	// A .env next to the binary is a convenience for development setups;
	// a missing file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func appLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides KIDUKA_API_URL and stored config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log API requests to stderr")
}
