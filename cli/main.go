// Command ytclone serves the video catalog API and browses its feeds from
// the terminal.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ytclone/config"
	"ytclone/internal/logger"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile  string
	logLevel string

	// appConfig is loaded before any subcommand runs.
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ytclone",
	Short: "Video catalog server and infinite-scroll feed browser",
	Long: `ytclone serves a synthetic video catalog over HTTP and streams feeds to
remote clients that scroll them with an incremental loader.

Configuration is read from --config, or $XDG_CONFIG_HOME/ytclone/config.yaml
when present. Every key can be overridden with YTCLONE_<SECTION>_<KEY>.

Examples:
  # Start the API server
  ytclone serve

  # Scroll the home feed in the terminal
  ytclone browse

  # Scroll a running server's search results
  ytclone browse --remote --search golang

  # Print the first three pages of the home feed
  ytclone feed home --pages 3`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ytclone/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(logLevel)
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	appConfig = cfg
	return initLogger(cfg.Logging)
}

func initLogger(cfg config.LoggingConfig) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
