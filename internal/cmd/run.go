package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jpequegn/cpjudge/internal/config"
	"github.com/jpequegn/cpjudge/internal/history"
	"github.com/jpequegn/cpjudge/internal/judging"
	"github.com/jpequegn/cpjudge/internal/progress"
	"github.com/jpequegn/cpjudge/internal/render"
	"github.com/jpequegn/cpjudge/internal/runner"
	"github.com/jpequegn/cpjudge/internal/scheduler"
	"github.com/jpequegn/cpjudge/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [suite-file]",
	Short: "Judge a program against a test suite",
	Long: `Run loads a test-case suite (JSON or YAML) and judges the program it
describes against every case, in parallel up to the configured worker
budget.

Example:
  cpjudge run suite.yaml
  cpjudge run suite.yaml --workers 4 --record`,
	Args: cobra.ExactArgs(1),
	RunE: runJudge,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("workers", "w", 0, "max concurrent test cases (default: number of CPUs)")
	runCmd.Flags().Duration("timeout", 0, "overall batch timeout (0 = none)")
	runCmd.Flags().Int("display-limit", 0, "elide report sections over this many bytes (0 = use config default)")
	runCmd.Flags().Bool("record", false, "persist this run's timings to the history database")
	runCmd.Flags().Bool("quiet", false, "suppress the progress display")
	runCmd.Flags().Bool("watch", false, "stay running and re-judge the suite whenever the config file changes")
}

// runJudge dispatches to a single batch run, or to a watch loop that
// re-runs the batch every time the config file is rewritten (--watch).
func runJudge(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return runBatch(cmd, args)
	}
	return runWatchLoop(cmd, args)
}

// runWatchLoop wires internal/config's WatchAndReload to the run command:
// each rewrite of the config file triggers a fresh judging batch against
// the same suite, using whatever worker/timeout/color settings changed.
// It runs until interrupted, at which point it reports the same
// cancellation spec.md §6 assigns to Ctrl-C during a single run.
func runWatchLoop(cmd *cobra.Command, args []string) error {
	changed := make(chan struct{}, 1)
	config.WatchAndReload(cfg, func(fsnotify.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Fprintln(os.Stderr, "cpjudge: watching config file for changes (ctrl-c to stop)")
	if err := runBatch(cmd, args); err != nil {
		fmt.Fprintln(os.Stderr, "cpjudge:", err)
	}

	for {
		select {
		case <-changed:
			fmt.Fprintln(os.Stderr, "cpjudge: config changed, re-judging...")
			if err := runBatch(cmd, args); err != nil {
				fmt.Fprintln(os.Stderr, "cpjudge:", err)
			}
		case <-sigCh:
			return &judging.CancellationError{Reason: "user interrupt"}
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	suitePath := args[0]

	suite, err := LoadSuite(suitePath)
	if err != nil {
		return fmt.Errorf("loading suite: %w", err)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.GetInt(config.KeyWorkers)
	}
	overall, _ := cmd.Flags().GetDuration("timeout")
	if overall == 0 {
		overall = suite.Timeout
	}
	if grace := cfg.GetString(config.KeyTimeoutGrace); grace != "" {
		if d, err := time.ParseDuration(grace); err == nil {
			runner.TimeoutGrace = d
		}
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	names := make([]string, len(suite.Cases))
	for i, tc := range suite.Cases {
		names[i] = tc.Name
	}

	// colorable wraps stdout/stderr so fatih/color's ANSI sequences render
	// on Windows consoles that don't natively interpret them; a no-op pass
	// through on other platforms.
	stderr := colorable.NewColorable(os.Stderr)
	stdout := colorable.NewColorable(os.Stdout)

	isTTY := isatty.IsTerminal(os.Stderr.Fd())
	reporter := progress.New(stderr, !quiet && isTTY && config.ColorEnabled(cfg, isTTY), names)
	reporter.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	outcome, err := scheduler.JudgeWithTimeout(suite.Spec, suite.Cases, workers, overall, ctx.Done(), reporter)
	reporter.Stop()

	if err != nil {
		return fmt.Errorf("judging %s: %w", suitePath, err)
	}

	limit, _ := cmd.Flags().GetInt("display-limit")
	if limit == 0 {
		limit = cfg.GetInt(config.KeyDisplayLimit)
	}
	if err := render.Print(stdout, outcome, render.Options{DisplayLimit: limit}); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if record, _ := cmd.Flags().GetBool("record"); record {
		if err := recordSession(suiteKey(suite.Name, suitePath), start, outcome); err != nil {
			fmt.Fprintln(os.Stderr, "cpjudge: warning: failed to record history:", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d/%d accepted\n", len(outcome.Verdicts)-outcome.Failed(), len(outcome.Verdicts))
	if !outcome.AllAccepted() {
		return fmt.Errorf("%d test case(s) failed", outcome.Failed())
	}
	return nil
}

// recordSession persists one run's per-case elapsed times to the history
// database. It is entirely optional ambient bookkeeping — nothing in the
// judging core depends on it having run.
func recordSession(suite string, start time.Time, outcome judging.BatchOutcome) error {
	s, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(history.FromBatch(suite, start, outcome))
}

func suiteKey(name, path string) string {
	if name != "" {
		return name
	}
	return path
}

func openHistoryStore() (*store.Store, error) {
	return store.Open(cfg.GetString(config.KeyHistoryDB))
}
