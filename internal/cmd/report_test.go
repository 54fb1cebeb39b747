package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestRunReport_InvalidFormat(t *testing.T) {
	withHistoryDB(t)
	reportCmd.Flags().Set("format", "pdf")
	t.Cleanup(func() { reportCmd.Flags().Set("format", "markdown") })

	if err := runReport(reportCmd, []string{"suite-a"}); err == nil {
		t.Error("runReport() error = nil, want an error for an invalid format")
	}
}

func TestRunReport_JSONToFile(t *testing.T) {
	path := withHistoryDB(t)
	seedSessions(t, path, "suite-a")

	out := filepath.Join(t.TempDir(), "report.json")
	reportCmd.Flags().Set("format", "json")
	reportCmd.Flags().Set("output", out)
	t.Cleanup(func() {
		reportCmd.Flags().Set("format", "markdown")
		reportCmd.Flags().Set("output", "")
	})

	if err := runReport(reportCmd, []string{"suite-a"}); err != nil {
		t.Fatalf("runReport() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report file is not valid JSON: %v", err)
	}
	if !bytes.Contains(data, []byte("case1")) {
		t.Errorf("report JSON = %s, want it to mention case1", data)
	}
}
