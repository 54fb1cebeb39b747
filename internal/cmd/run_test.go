package cmd

import (
	"strings"
	"testing"

	"github.com/jpequegn/cpjudge/internal/config"
)

// withConfig swaps the package-level cfg for a freshly defaulted one,
// restoring the previous value on cleanup.
func withConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	v, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg = v
	t.Cleanup(func() { cfg = prev })
}

// runJudge spawns real processes (internal/runner shells out via
// os/exec), the same way the teacher's executor_test.go drives real sh -c
// commands rather than mocking exec.Cmd. Only the suite fixture file goes
// through the overridable afero fs.
func TestRunJudge_AllAccepted(t *testing.T) {
	withConfig(t)
	withMemFS(t, map[string]string{
		"suite.yaml": `
program: sh
args: ["-c", "echo 3"]
cases:
  - name: sample1
    input: ""
    expected:
      kind: exact
      text: "3\n"
`,
	})

	out := captureStdout(t, func() {
		if err := runJudge(runCmd, []string{"suite.yaml"}); err != nil {
			t.Fatalf("runJudge() error = %v", err)
		}
	})
	if !strings.Contains(out, "Accepted") {
		t.Errorf("report = %q, want it to mention Accepted", out)
	}
}

func TestRunJudge_WrongAnswerReturnsError(t *testing.T) {
	withConfig(t)
	withMemFS(t, map[string]string{
		"suite.yaml": `
program: sh
args: ["-c", "echo wrong"]
cases:
  - name: sample1
    input: ""
    expected:
      kind: exact
      text: "3\n"
`,
	})

	_ = captureStdout(t, func() {
		if err := runJudge(runCmd, []string{"suite.yaml"}); err == nil {
			t.Error("runJudge() error = nil, want an error for a failed case")
		}
	})
}
