// Package runner implements the ProcessRunner component (spec.md §4.2):
// spawning the program under test, feeding it stdin, racing its exit
// against a per-case timeout and an external cancellation signal, and
// collecting its output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// TimeoutGrace is added to a case's configured timelimit before the
// runner's internal wait times out. It exists only to avoid flapping on
// scheduler noise — a run that exits within grace but whose measured
// Elapsed exceeds the timelimit is still reclassified as
// TimelimitExceeded by the classifier (spec.md §4.2). Overridable via
// config (SPEC_FULL.md open question #2); defaults to parity with the
// source.
var TimeoutGrace = 100 * time.Millisecond

// Outcome is the result of a single Run call: exactly one of Result,
// TimedOut or Cancelled is true.
type Outcome struct {
	Result    *judging.RunResult
	TimedOut  bool
	Cancelled bool
}

// Run spawns spec, writes stdin to it, and races its exit against
// timelimit (if any) and cancel. It never returns an error for "the
// program behaved badly" (spec.md §7) — a non-zero exit or non-matching
// output are reflected in the returned RunResult, not an error. The only
// error it returns is *judging.SpawnError, when the process could not be
// started. It never returns *judging.IOError: a failed stdin write is
// ignored, and a failure while collecting stdout/stderr shows up as an
// abnormal ExitStatus in the RunResult.
func Run(ctx context.Context, spec judging.CommandSpec, stdin []byte, timelimit *time.Duration, cancel <-chan struct{}) (Outcome, error) {
	cmd := exec.CommandContext(ctx, spec.Program, spec.Args...)
	if spec.Cwd != "" {
		cmd.Dir = spec.Cwd
	}
	if len(spec.Env) > 0 {
		cmd.Env = overlayEnv(spec.Env)
	}

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return Outcome{}, &judging.SpawnError{Program: spec.Program, Err: err}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()

	if err := cmd.Start(); err != nil {
		return Outcome{}, &judging.SpawnError{Program: spec.Program, Err: err}
	}

	writeErr := make(chan error, 1)
	go func() {
		_, err := stdinPipe.Write(stdin)
		closeErr := stdinPipe.Close()
		if err == nil {
			err = closeErr
		}
		writeErr <- err
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if timelimit != nil {
		timer := time.NewTimer(*timelimit + TimeoutGrace)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case err := <-done:
		elapsed := time.Since(started)
		// A broken stdin pipe (the program exited before reading all of
		// its input) is not itself a failure: the process already ran to
		// completion and produced a real RunResult.
		<-writeErr
		return buildResult(err, elapsed, stdout.String(), stderr.String()), nil

	// After a kill, Wait is awaited for at most TimeoutGrace: a grandchild
	// that inherited stdout/stderr (e.g. a shell's `sleep`) keeps Wait's
	// output copy open after the killed child itself has been reaped.
	case <-timeoutCh:
		killChild(cmd)
		select {
		case <-done:
		case <-time.After(TimeoutGrace):
		}
		return Outcome{TimedOut: true}, nil

	case <-cancel:
		killChild(cmd)
		select {
		case <-done:
		case <-time.After(TimeoutGrace):
		}
		return Outcome{Cancelled: true}, nil
	}
}

func killChild(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func buildResult(waitErr error, elapsed time.Duration, stdout, stderr string) Outcome {
	status := judging.ExitStatus{}
	if waitErr == nil {
		status = judging.ExitStatus{Normal: true, Code: 0, Success: true}
	} else {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			status = judging.ExitStatus{
				Normal:  exitErr.Exited(),
				Code:    exitErr.ExitCode(),
				Success: false,
				Detail:  exitErr.Error(),
			}
		} else {
			status = judging.ExitStatus{Normal: false, Success: false, Detail: waitErr.Error()}
		}
	}
	return Outcome{Result: &judging.RunResult{
		ExitStatus: status,
		Elapsed:    elapsed,
		Stdout:     stdout,
		Stderr:     stderr,
	}}
}

func overlayEnv(overlay map[string]string) []string {
	base := os.Environ()
	merged := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if k, v, ok := splitEnv(kv); ok {
			merged[k] = v
		}
	}
	for k, v := range overlay {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

func splitEnv(kv string) (string, string, bool) {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
