// Package reportfmt renders a history.Stats/Regression report to HTML,
// JSON, or Markdown, for `cpjudge report`. Adapted from the teacher's
// reporter package (HTMLReporter's embedded-template approach, generalized
// JSON/Markdown fallbacks), repointed at judging-session timing data
// instead of benchmark comparisons.
package reportfmt

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/jpequegn/cpjudge/internal/history"
)

//go:embed templates/*.html
var templateFS embed.FS

// Format selects the output renderer.
type Format string

const (
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Options configures rendering.
type Options struct {
	Title    string
	DarkMode bool
}

// Report is the data rendered by every format.
type Report struct {
	Title       string
	Suite       string
	Stats       []history.Stats
	Regressions []history.Regression
	DarkMode    bool
}

// Render writes a report for suite's aggregated stats and detected
// regressions in the requested format.
func Render(w io.Writer, format Format, suite string, stats []history.Stats, regressions []history.Regression, opts Options) error {
	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("Timing history: %s", suite)
	}
	report := Report{Title: title, Suite: suite, Stats: stats, Regressions: regressions, DarkMode: opts.DarkMode}

	switch format {
	case FormatHTML:
		return renderHTML(w, report)
	case FormatJSON:
		return renderJSON(w, report)
	case FormatMarkdown:
		return renderMarkdown(w, report)
	default:
		return fmt.Errorf("reportfmt: unknown format %q", format)
	}
}

func renderHTML(w io.Writer, report Report) error {
	tmpl, err := template.ParseFS(templateFS, "templates/history.html")
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}
	return tmpl.Execute(w, report)
}

func renderJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderMarkdown(w io.Writer, report Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", report.Title)
	fmt.Fprintf(&b, "Suite: `%s`\n\n", report.Suite)
	fmt.Fprintln(&b, "| Case | Samples | Mean | Median | Min | Max | StdDev |")
	fmt.Fprintln(&b, "|---|---|---|---|---|---|---|")
	for _, s := range report.Stats {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s |\n", s.Name, s.Samples, s.Mean, s.Median, s.Min, s.Max, s.StdDev)
	}
	if len(report.Regressions) > 0 {
		fmt.Fprint(&b, "\n## Regressions\n\n")
		fmt.Fprintln(&b, "| Case | Latest | Mean | Z-score |")
		fmt.Fprintln(&b, "|---|---|---|---|")
		for _, r := range report.Regressions {
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n", r.Name, r.Latest, r.Mean, r.ZScore)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
