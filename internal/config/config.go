// Package config loads cpjudge's configuration: a cpjudge.yaml/.toml
// file plus CPJUDGE_-prefixed environment overrides and command-line
// flags, following the teacher's cobra/viper wiring almost verbatim
// (see internal/cmd for where these are bound to flags).
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Keys used throughout the config file / environment / flags.
const (
	KeyWorkers      = "judge.workers"
	KeyTimeoutGrace = "judge.timeout_grace"
	KeyDisplayLimit = "judge.display_limit"
	KeyColor        = "judge.color"
	KeyHistoryDB    = "history.db_path"
)

// Defaults mirror the zero-value behaviour of the judging packages
// themselves (0 workers means "use runtime.NumCPU()").
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyTimeoutGrace, "100ms")
	v.SetDefault(KeyDisplayLimit, 4096)
	v.SetDefault(KeyColor, "auto")
	v.SetDefault(KeyHistoryDB, ".cpjudge/history.db")
}

// Load reads cpjudge.yaml/.toml from the current directory (or cfgFile,
// if non-empty), overlays CPJUDGE_-prefixed environment variables, and
// returns the resulting *viper.Viper. A missing config file is not an
// error — defaults and environment variables still apply.
func Load(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("cpjudge")
	}

	v.SetEnvPrefix("CPJUDGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v, nil
}

// WatchAndReload installs a fsnotify-driven watch on the config file in
// use (if any), invoking onChange whenever it is rewritten. Used by
// cpjudge run --watch to re-judge the suite after each config rewrite.
func WatchAndReload(v *viper.Viper, onChange func(fsnotify.Event)) {
	v.OnConfigChange(onChange)
	v.WatchConfig()
}

// ColorEnabled resolves the judge.color setting plus the NO_COLOR
// environment convention into a final on/off decision. "auto" defers to
// the caller's own TTY check.
func ColorEnabled(v *viper.Viper, isTTY bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch v.GetString(KeyColor) {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTTY
	}
}
