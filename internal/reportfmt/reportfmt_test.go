package reportfmt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jpequegn/cpjudge/internal/history"
)

func sampleStats() []history.Stats {
	return []history.Stats{{Name: "case1", Mean: 10 * time.Millisecond, Median: 10 * time.Millisecond, Min: 8 * time.Millisecond, Max: 12 * time.Millisecond, StdDev: time.Millisecond, Samples: 5}}
}

func TestRender_HTML(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatHTML, "suite-a", sampleStats(), nil, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "case1") {
		t.Errorf("expected case1 in HTML output, got:\n%s", buf.String())
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatJSON, "suite-a", sampleStats(), nil, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\"Name\": \"case1\"") {
		t.Errorf("expected JSON to contain case1, got:\n%s", buf.String())
	}
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	regressions := []history.Regression{{Name: "case1", ZScore: 4.2, Latest: 40 * time.Millisecond, Mean: 10 * time.Millisecond}}
	err := Render(&buf, FormatMarkdown, "suite-a", sampleStats(), regressions, Options{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "| case1 |") || !strings.Contains(out, "## Regressions") {
		t.Errorf("expected markdown table and regressions section, got:\n%s", out)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Format("bogus"), "s", nil, nil, Options{}); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
