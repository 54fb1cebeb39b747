package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpequegn/cpjudge/internal/history"
	"github.com/jpequegn/cpjudge/internal/reportfmt"
)

var reportCmd = &cobra.Command{
	Use:   "report <suite>",
	Short: "Render a suite's timing history to HTML, JSON, or Markdown",
	Long: `Report renders the same aggregated timing history as 'cpjudge history',
formatted for sharing: an HTML page, a JSON document, or a Markdown table.

Example:
  cpjudge report suite.yaml --format html --output report.html
  cpjudge report suite.yaml --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("format", "f", "markdown", "output format: html, json, or markdown")
	reportCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().Int("limit", 0, "only consider the most recent N sessions (0 = all)")
	reportCmd.Flags().Float64("z-threshold", 3.0, "z-score threshold for flagging a regression")
}

func runReport(cmd *cobra.Command, args []string) error {
	suite := args[0]
	format := reportfmt.Format(mustFlagString(cmd, "format"))
	switch format {
	case reportfmt.FormatHTML, reportfmt.FormatJSON, reportfmt.FormatMarkdown:
	default:
		return fmt.Errorf("invalid format: %s (must be html, json, or markdown)", format)
	}

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

	stats := history.Aggregate(sessions)
	threshold, _ := cmd.Flags().GetFloat64("z-threshold")
	regressions := history.DetectRegressions(sessions, threshold)

	out := os.Stdout
	if path := mustFlagString(cmd, "output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return reportfmt.Render(out, format, suite, stats, regressions, reportfmt.Options{})
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
