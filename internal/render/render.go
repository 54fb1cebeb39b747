// Package render implements the VerdictRenderer component (spec.md §4.7):
// a full batch report printing stdin/expected/actual/stderr sections for
// every Verdict, with whitespace and control characters escaped so a
// judge's output is legible even when it differs from the expectation
// only by a stray carriage return or trailing tab.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatih/color"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// Options controls report formatting.
type Options struct {
	// DisplayLimit elides a section's body to "<N> B" once its byte
	// length exceeds this value. Zero means unlimited.
	DisplayLimit int
}

// Print writes a full report of outcome to w following Options.
func Print(w io.Writer, outcome judging.BatchOutcome, opts Options) error {
	for i, v := range outcome.Verdicts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := printVerdict(w, i, len(outcome.Verdicts), v, opts); err != nil {
			return err
		}
	}
	return nil
}

func printVerdict(w io.Writer, index, total int, v judging.Verdict, opts Options) error {
	fmt.Fprintf(w, "%d/%d (%q) ", index+1, total, v.TestCaseName)
	summaryColor(v.Kind).Fprintln(w, summary(v))

	writeSection := func(header, text string, skipIfEmpty, highlightNumbers bool) {
		if text == "" && skipIfEmpty {
			return
		}
		color.New(color.FgMagenta, color.Bold).Fprintln(w, header)
		if text == "" {
			color.New(color.FgYellow, color.Bold).Fprintln(w, "EMPTY")
			return
		}
		if opts.DisplayLimit > 0 && len(text) > opts.DisplayLimit {
			color.New(color.FgYellow, color.Bold).Fprintf(w, "%d B\n", len(text))
			return
		}
		writeTokens(w, text, highlightNumbers)
		if !strings.HasSuffix(text, "\n") {
			color.New(color.FgYellow).Fprintln(w, "⏎")
		}
	}

	highlight := v.Expected.IsFloat()
	writeSection("stdin:", v.Stdin, false, false)
	if v.Expected.Text != "" || v.Expected.Kind != judging.AcceptAny {
		writeSection("expected:", v.Expected.Text, false, highlight)
	}
	if v.HasOutput() {
		writeSection("actual:", v.Stdout, false, highlight)
	}
	writeSection("stderr:", v.Stderr, true, highlight)

	return nil
}

func summary(v judging.Verdict) string {
	ms := v.Elapsed.Milliseconds()
	switch v.Kind {
	case judging.Accepted:
		return fmt.Sprintf("Accepted (%d ms)", ms)
	case judging.WrongAnswer:
		return fmt.Sprintf("Wrong Answer (%d ms)", ms)
	case judging.RuntimeError:
		return fmt.Sprintf("Runtime Error (%d ms, %s)", ms, v.ExitStatus.String())
	case judging.TimelimitExceeded:
		var tl int64
		if v.Timelimit != nil {
			tl = v.Timelimit.Milliseconds()
		}
		return fmt.Sprintf("Timelimit Exceeded (%d ms)", tl)
	default:
		return "Unknown"
	}
}

func summaryColor(k judging.VerdictKind) *color.Color {
	switch k {
	case judging.Accepted:
		return color.New(color.FgGreen, color.Bold)
	case judging.TimelimitExceeded:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

// tokenKind classifies a maximal run of a text section for the purposes
// of escaping, mirroring judge.rs's parse_to_tokens token classes
// (SpcLf / Cr / Tab / OtherWhitespaceControl / HighlightedNumber / Plain).
type tokenKind int

const (
	tokSpcLf tokenKind = iota
	tokCr
	tokTab
	tokOtherControl
	tokNumber
	tokPlain
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits text into maximal runs classified the same way the
// original pretty-printer does, so highlighting and escaping apply to
// entire runs rather than rune-by-rune.
func tokenize(text string, highlightNumbers bool) []token {
	var tokens []token
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\n':
			j := i
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n') {
				j++
			}
			tokens = append(tokens, token{tokSpcLf, string(runes[i:j])})
			i = j
		case r == '\r':
			j := i
			for j < len(runes) && runes[j] == '\r' {
				j++
			}
			tokens = append(tokens, token{tokCr, string(runes[i:j])})
			i = j
		case r == '\t':
			j := i
			for j < len(runes) && runes[j] == '\t' {
				j++
			}
			tokens = append(tokens, token{tokTab, string(runes[i:j])})
			i = j
		case unicode.IsSpace(r) || unicode.IsControl(r):
			j := i
			for j < len(runes) && (unicode.IsSpace(runes[j]) || unicode.IsControl(runes[j])) {
				j++
			}
			tokens = append(tokens, token{tokOtherControl, string(runes[i:j])})
			i = j
		default:
			j := i
			for j < len(runes) && !(unicode.IsSpace(runes[j]) || unicode.IsControl(runes[j])) {
				j++
			}
			word := string(runes[i:j])
			if highlightNumbers && looksNumeric(word) {
				tokens = append(tokens, token{tokNumber, word})
			} else {
				tokens = append(tokens, token{tokPlain, word})
			}
			i = j
		}
	}
	return tokens
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func writeTokens(w io.Writer, text string, highlightNumbers bool) {
	for _, t := range tokenize(text, highlightNumbers) {
		switch t.kind {
		case tokSpcLf, tokPlain:
			io.WriteString(w, t.text)
		case tokCr:
			yellow := color.New(color.FgYellow)
			for range t.text {
				yellow.Fprint(w, "\\r")
			}
		case tokTab:
			yellow := color.New(color.FgYellow)
			for range t.text {
				yellow.Fprint(w, "\\t")
			}
		case tokOtherControl:
			yellow := color.New(color.FgYellow)
			for _, r := range t.text {
				yellow.Fprintf(w, "\\u%04x", r)
			}
		case tokNumber:
			color.New(color.FgCyan).Fprint(w, t.text)
		}
	}
}
