// Package scheduler implements the Scheduler component (spec.md §4.3):
// bounding parallelism to a worker budget, dispatching each test case to
// a ProcessRunner, and assembling verdicts back into input order.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/jpequegn/cpjudge/internal/cancel"
	"github.com/jpequegn/cpjudge/internal/classify"
	"github.com/jpequegn/cpjudge/internal/judging"
	"github.com/jpequegn/cpjudge/internal/runner"
)

// Reporter receives per-case lifecycle notifications from the Scheduler.
// It mirrors the teacher's ProgressHandler callback shape (a function
// invoked from worker goroutines) but as an interface, since the
// judging core has more than one event the renderer cares about.
// Implementations MUST NOT block — spec.md §4.5 requires rendering to
// never stall the scheduler's async tasks.
type Reporter interface {
	Started(index int, tc judging.TestCase)
	Finished(index int, tc judging.TestCase, v judging.Verdict)
}

// NoopReporter discards every event; useful when no terminal is attached.
type NoopReporter struct{}

func (NoopReporter) Started(int, judging.TestCase)                   {}
func (NoopReporter) Finished(int, judging.TestCase, judging.Verdict) {}

// Workers returns the worker budget: runtime.NumCPU() unless overridden.
// A value <= 0 means "use the default."
func Workers(override int) int {
	if override > 0 {
		return override
	}
	return runtime.NumCPU()
}

// Judge runs spec against every case in cases, bounded to workers
// concurrent child processes, and returns one Verdict per case in input
// order. If cancelSignal is closed before all cases complete, Judge
// returns a *judging.CancellationError and no verdicts — per spec.md §3,
// "no Verdict is produced for a cancelled batch."
//
// Judge itself never starts more than workers processes concurrently:
// the conc pool's WithMaxGoroutines is the only admission gate, matching
// spec.md §4.3's "the permit is the only admission gate" requirement.
func Judge(ctx context.Context, spec judging.CommandSpec, cases []judging.TestCase, workers int, cancelSignal <-chan struct{}, reporter Reporter) (judging.BatchOutcome, error) {
	if reporter == nil {
		reporter = NoopReporter{}
	}
	if workers <= 0 {
		workers = Workers(0)
	}

	hub := cancel.New()
	batchDone := make(chan struct{})
	defer close(batchDone)
	if cancelSignal != nil {
		go func() {
			select {
			case <-cancelSignal:
				hub.Cancel("external cancel signal")
			case <-batchDone:
			}
		}()
	}

	verdicts := make([]judging.Verdict, len(cases))

	// A *judging.SpawnError aborts the whole batch (spec.md §7, §6): the
	// first one wins, cancels the hub so no further cases start, and is
	// returned in place of any verdicts once every in-flight case drains.
	var (
		fatalMu  sync.Mutex
		fatalErr error
	)

	p := pool.New().WithMaxGoroutines(workers)

	for i, tc := range cases {
		i, tc := i, tc
		if canceled, _ := hub.Canceled(); canceled {
			break
		}
		p.Go(func() {
			// Reported from inside the goroutine, not the dispatch loop:
			// p.Go blocks the loop until a worker slot is free, so this
			// fires exactly when the case transitions Queued -> Running
			// (spec.md §4.3), not merely when it was submitted.
			reporter.Started(i, tc)
			sub := hub.Subscribe()
			outcome, err := runner.Run(ctx, spec, tc.Input, tc.Timelimit, sub)
			if err != nil {
				var spawnErr *judging.SpawnError
				if errors.As(err, &spawnErr) {
					fatalMu.Lock()
					if fatalErr == nil {
						fatalErr = err
					}
					fatalMu.Unlock()
					hub.Cancel("spawn failure: " + err.Error())
					return
				}
				// Host-side I/O failures surface as a RuntimeError verdict
				// for this case rather than failing the whole batch —
				// spec.md §7 scopes IOError to the test case.
				slog.Warn("test case execution failed", "case", tc.Name, "error", err)
				verdicts[i] = classify.ClassifyIOError(tc, err, 0)
				reporter.Finished(i, tc, verdicts[i])
				return
			}
			if outcome.Cancelled {
				return
			}
			v := classify.Classify(tc, outcome)
			verdicts[i] = v
			reporter.Finished(i, tc, v)
		})
	}

	p.Wait()

	if fatalErr != nil {
		return judging.BatchOutcome{}, fatalErr
	}

	if canceled, reason := hub.Canceled(); canceled {
		return judging.BatchOutcome{}, &judging.CancellationError{Reason: reason}
	}

	return judging.BatchOutcome{Verdicts: verdicts}, nil
}

// JudgeWithTimeout is a convenience wrapper that derives a cancellable
// context with an overall deadline in addition to per-case timelimits —
// useful for CLI callers that want a hard ceiling on total batch
// duration regardless of the individual cases' own limits.
func JudgeWithTimeout(spec judging.CommandSpec, cases []judging.TestCase, workers int, overall time.Duration, cancelSignal <-chan struct{}, reporter Reporter) (judging.BatchOutcome, error) {
	ctx := context.Background()
	var cancelFn context.CancelFunc
	if overall > 0 {
		ctx, cancelFn = context.WithTimeout(ctx, overall)
		defer cancelFn()
	}
	return Judge(ctx, spec, cases, workers, cancelSignal, reporter)
}
