// Package cmd wires the cpjudge CLI surface: the cobra command tree,
// config loading, and the JSON/YAML test-suite fixture loader the run
// command depends on. Structure follows the teacher's cobra/viper root
// command almost unchanged — PersistentPreRun-driven logger setup,
// cobra.OnInitialize-driven config loading.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpequegn/cpjudge/internal/config"
)

var (
	cfgFile   string
	verbose   bool
	logger    *slog.Logger
	cfg       *viper.Viper
	configErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cpjudge",
	Short: "Concurrent competitive-programming test judge",
	Long: `cpjudge runs a program under test against a suite of test cases in
parallel, classifies each run's outcome, and renders the verdicts.

Supported expected-output matching:
  - accept-any: the program only needs to exit successfully
  - exact:      byte-for-byte match (trailing newline tolerated)
  - lines:      line-by-line match (missing final newline tolerated)
  - float:      numeric tokens compared within an absolute/relative tolerance`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		initLogger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cpjudge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig loads cpjudge.yaml/.toml plus CPJUDGE_-prefixed environment
// overrides via internal/config. A failure here is recorded rather than
// exiting directly, so it surfaces through the normal cobra error path
// (PersistentPreRunE) and gets the exit code ExitCode assigns it.
func initConfig() {
	v, err := config.Load(cfgFile)
	if err != nil {
		configErr = &configLoadError{err: err}
		return
	}
	configErr = nil
	cfg = v
	if verbose {
		cfg.Set("verbose", true)
	}
}

// initLogger sets up the global logger based on verbosity
func initLogger() {
	level := slog.LevelInfo
	if verbose || (cfg != nil && cfg.GetBool("verbose")) {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
