// Package classify implements the VerdictClassifier (spec.md §4.6): a
// pure function turning a ProcessRunner outcome plus the test case's
// expected output into a terminal Verdict.
package classify

import (
	"time"

	"github.com/jpequegn/cpjudge/internal/judging"
	"github.com/jpequegn/cpjudge/internal/match"
	"github.com/jpequegn/cpjudge/internal/runner"
)

// Classify turns a runner.Outcome into a Verdict for the given test case.
// Cancelled outcomes are not classifiable — the caller must treat them as
// a batch-level CancellationError instead (spec.md §4.6); Classify panics
// if asked to classify one, since that indicates a caller bug, not a
// judging condition.
func Classify(tc judging.TestCase, outcome runner.Outcome) judging.Verdict {
	if outcome.Cancelled {
		panic("classify: cannot classify a cancelled outcome")
	}

	base := judging.Verdict{
		TestCaseName: tc.Name,
		Expected:     tc.Expected,
		Stdin:        string(tc.Input),
		Timelimit:    tc.Timelimit,
	}

	if outcome.TimedOut {
		base.Kind = judging.TimelimitExceeded
		return base
	}

	result := outcome.Result
	base.Elapsed = result.Elapsed
	base.Stdout = result.Stdout
	base.Stderr = result.Stderr
	base.ExitStatus = result.ExitStatus

	// Tie-break per spec.md §4.6: timelimit wins over "exited abnormally"
	// since the program would have been killed anyway.
	if tc.Timelimit != nil && result.Elapsed > *tc.Timelimit {
		return judging.Verdict{
			Kind:         judging.TimelimitExceeded,
			TestCaseName: tc.Name,
			Expected:     tc.Expected,
			Stdin:        string(tc.Input),
			Timelimit:    tc.Timelimit,
		}
	}

	if !result.ExitStatus.Success {
		base.Kind = judging.RuntimeError
		return base
	}

	if match.Accepts(tc.Expected, result.Stdout) {
		base.Kind = judging.Accepted
	} else {
		base.Kind = judging.WrongAnswer
	}
	return base
}

// ClassifyIOError turns a host-side I/O failure into a RuntimeError
// verdict with empty stdout/stderr and the error message surfaced on
// stderr, per spec.md §7's IOError propagation policy.
func ClassifyIOError(tc judging.TestCase, err error, elapsed time.Duration) judging.Verdict {
	return judging.Verdict{
		Kind:         judging.RuntimeError,
		TestCaseName: tc.Name,
		Expected:     tc.Expected,
		Stdin:        string(tc.Input),
		Elapsed:      elapsed,
		Stderr:       err.Error(),
		ExitStatus:   judging.ExitStatus{Detail: err.Error()},
		Timelimit:    tc.Timelimit,
	}
}
