// Command snowglobe runs the weather-driven snow globe: a procedurally
// generated city under a particle sky, exposed over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool
	dbPath   string
)

var rootCmd = &cobra.Command{
	Use:   "snowglobe",
	Short: "Weather-driven snow globe simulation",
	Long: `snowglobe generates a stylized city inside a glass sphere and drives a
particle field of snow or rain from live weather, device shakes, wind and tilt.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel, logJSON)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "force JSON logs even on a terminal")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("SNOWGLOBE_DB", "data/snowglobe.db"), "SQLite path for styles and the generation log (empty disables)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger: text on a terminal, JSON
// otherwise.
func setupLogging(level string, forceJSON bool) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if !forceJSON && isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
