package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpequegn/cpjudge/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <suite>",
	Short: "Show timing history for a recorded suite",
	Long: `History reports mean/median/min/max/stddev elapsed time per test case
across every session previously recorded with 'cpjudge run --record', and
flags cases whose latest timing is slower than their recorded mean by more
than the z-score threshold.

Example:
  cpjudge history suite.yaml
  cpjudge history suite.yaml --limit 20 --z-threshold 2.5`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 0, "only consider the most recent N sessions (0 = all)")
	historyCmd.Flags().Float64("z-threshold", 3.0, "z-score threshold for flagging a regression")
}

func runHistory(cmd *cobra.Command, args []string) error {
	suite := args[0]

	s, err := openHistoryStore()
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	sessions, err := s.GetHistory(suite, limit)
	if err != nil {
		return fmt.Errorf("loading history for %s: %w", suite, err)
	}
	if len(sessions) == 0 {
		fmt.Fprintf(os.Stderr, "no recorded sessions for suite %q\n", suite)
		return nil
	}

	stats := history.Aggregate(sessions)
	threshold, _ := cmd.Flags().GetFloat64("z-threshold")
	regressions := history.DetectRegressions(sessions, threshold)

	fmt.Printf("%-24s %8s %10s %10s %10s %10s %10s\n", "case", "samples", "mean", "median", "min", "max", "stddev")
	for _, st := range stats {
		fmt.Printf("%-24s %8d %10s %10s %10s %10s %10s\n", st.Name, st.Samples, st.Mean, st.Median, st.Min, st.Max, st.StdDev)
	}

	if len(regressions) > 0 {
		fmt.Fprintln(os.Stderr, "\nregressions:")
		for _, r := range regressions {
			fmt.Fprintf(os.Stderr, "  %s: latest %s vs mean %s (z=%.2f)\n", r.Name, r.Latest, r.Mean, r.ZScore)
		}
	}

	return nil
}
