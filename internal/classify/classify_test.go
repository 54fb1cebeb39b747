package classify

import (
	"testing"
	"time"

	"github.com/jpequegn/cpjudge/internal/judging"
	"github.com/jpequegn/cpjudge/internal/runner"
)

func sec(d time.Duration) *time.Duration { return &d }

func TestClassify_Accepted(t *testing.T) {
	tc := judging.TestCase{
		Name:      "case1",
		Input:     []byte("2 3\n"),
		Expected:  judging.ExpectedOutput{Kind: judging.Exact, Text: "5\n"},
		Timelimit: sec(time.Second),
	}
	outcome := runner.Outcome{Result: &judging.RunResult{
		ExitStatus: judging.ExitStatus{Normal: true, Success: true},
		Elapsed:    10 * time.Millisecond,
		Stdout:     "5\n",
	}}
	v := Classify(tc, outcome)
	if v.Kind != judging.Accepted {
		t.Errorf("Kind = %v, want Accepted", v.Kind)
	}
}

func TestClassify_WrongAnswer(t *testing.T) {
	tc := judging.TestCase{
		Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "5\n"},
	}
	outcome := runner.Outcome{Result: &judging.RunResult{
		ExitStatus: judging.ExitStatus{Normal: true, Success: true},
		Stdout:     "4\n",
	}}
	v := Classify(tc, outcome)
	if v.Kind != judging.WrongAnswer {
		t.Errorf("Kind = %v, want WrongAnswer", v.Kind)
	}
}

func TestClassify_RuntimeError(t *testing.T) {
	tc := judging.TestCase{Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "ok"}}
	outcome := runner.Outcome{Result: &judging.RunResult{
		ExitStatus: judging.ExitStatus{Normal: true, Success: false, Code: 1},
		Stdout:     "oops",
	}}
	v := Classify(tc, outcome)
	if v.Kind != judging.RuntimeError {
		t.Errorf("Kind = %v, want RuntimeError", v.Kind)
	}
}

func TestClassify_TimedOut(t *testing.T) {
	tc := judging.TestCase{Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "ok"}, Timelimit: sec(time.Second)}
	v := Classify(tc, runner.Outcome{TimedOut: true})
	if v.Kind != judging.TimelimitExceeded {
		t.Errorf("Kind = %v, want TimelimitExceeded", v.Kind)
	}
	if v.Stdout != "" {
		t.Errorf("Stdout = %q, want empty (TLE discards partial output)", v.Stdout)
	}
}

func TestClassify_ElapsedOverTimelimitBeatsSuccess(t *testing.T) {
	// Exited within grace, but measured elapsed exceeds the configured
	// timelimit: reclassified as TimelimitExceeded per spec.md §4.2.
	tc := judging.TestCase{
		Expected:  judging.ExpectedOutput{Kind: judging.Exact, Text: "ok"},
		Timelimit: sec(100 * time.Millisecond),
	}
	outcome := runner.Outcome{Result: &judging.RunResult{
		ExitStatus: judging.ExitStatus{Normal: true, Success: true},
		Elapsed:    150 * time.Millisecond,
		Stdout:     "ok",
	}}
	v := Classify(tc, outcome)
	if v.Kind != judging.TimelimitExceeded {
		t.Errorf("Kind = %v, want TimelimitExceeded", v.Kind)
	}
}

func TestClassify_TimelimitBeatsRuntimeError(t *testing.T) {
	// spec.md §4.6: tie-break between "exited abnormally" and "over time"
	// favors timelimit.
	tc := judging.TestCase{
		Expected:  judging.ExpectedOutput{Kind: judging.Exact, Text: "ok"},
		Timelimit: sec(100 * time.Millisecond),
	}
	outcome := runner.Outcome{Result: &judging.RunResult{
		ExitStatus: judging.ExitStatus{Normal: true, Success: false, Code: 1},
		Elapsed:    150 * time.Millisecond,
	}}
	v := Classify(tc, outcome)
	if v.Kind != judging.TimelimitExceeded {
		t.Errorf("Kind = %v, want TimelimitExceeded", v.Kind)
	}
}

func TestClassify_NoTimelimitNeverTLE(t *testing.T) {
	tc := judging.TestCase{Expected: judging.ExpectedOutput{Kind: judging.AcceptAny}}
	outcome := runner.Outcome{Result: &judging.RunResult{
		ExitStatus: judging.ExitStatus{Normal: true, Success: true},
		Elapsed:    time.Hour,
	}}
	v := Classify(tc, outcome)
	if v.Kind == judging.TimelimitExceeded {
		t.Error("a case with no timelimit must never classify as TimelimitExceeded")
	}
}

func TestClassify_PanicsOnCancelled(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Classify to panic on a cancelled outcome")
		}
	}()
	Classify(judging.TestCase{}, runner.Outcome{Cancelled: true})
}
