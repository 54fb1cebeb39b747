package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpequegn/cpjudge/internal/judging"
)

func ms(d time.Duration) *time.Duration { return &d }

func echoSpec() judging.CommandSpec {
	return judging.CommandSpec{Program: "sh", Args: []string{"-c", "cat"}}
}

func TestJudge_OrderPreservedAndOneVerdictPerCase(t *testing.T) {
	cases := []judging.TestCase{
		{Name: "a", Input: []byte("1\n"), Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "1\n"}, Timelimit: ms(time.Second)},
		{Name: "b", Input: []byte("2\n"), Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "wrong\n"}, Timelimit: ms(time.Second)},
		{Name: "c", Input: []byte("3\n"), Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "3\n"}, Timelimit: ms(time.Second)},
	}
	outcome, err := Judge(context.Background(), echoSpec(), cases, 2, nil, nil)
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	if len(outcome.Verdicts) != len(cases) {
		t.Fatalf("len(Verdicts) = %d, want %d", len(outcome.Verdicts), len(cases))
	}
	want := []judging.VerdictKind{judging.Accepted, judging.WrongAnswer, judging.Accepted}
	for i, v := range outcome.Verdicts {
		if v.Kind != want[i] {
			t.Errorf("case %d (%s): Kind = %v, want %v", i, cases[i].Name, v.Kind, want[i])
		}
		if v.TestCaseName != cases[i].Name {
			t.Errorf("case %d: verdict name = %q, want %q (order must match input order)", i, v.TestCaseName, cases[i].Name)
		}
	}
}

func TestJudge_NoTimelimitNeverTLE(t *testing.T) {
	cases := []judging.TestCase{
		{Name: "no-limit", Input: []byte("x\n"), Expected: judging.ExpectedOutput{Kind: judging.Exact, Text: "x\n"}},
	}
	outcome, err := Judge(context.Background(), echoSpec(), cases, 1, nil, nil)
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	if outcome.Verdicts[0].Kind == judging.TimelimitExceeded {
		t.Error("case with no timelimit must never classify as TimelimitExceeded")
	}
}

func TestJudge_BoundsConcurrency(t *testing.T) {
	const workers = 4
	n := 16
	var current, max int64
	cases := make([]judging.TestCase, n)
	for i := range cases {
		cases[i] = judging.TestCase{
			Name:      "c",
			Input:     nil,
			Expected:  judging.ExpectedOutput{Kind: judging.AcceptAny},
			Timelimit: ms(2 * time.Second),
		}
	}

	var mu sync.Mutex
	tracker := &trackingSpec{
		before: func() {
			c := atomic.AddInt64(&current, 1)
			mu.Lock()
			if c > max {
				max = c
			}
			mu.Unlock()
		},
		after: func() {
			atomic.AddInt64(&current, -1)
		},
	}

	_, err := Judge(context.Background(), tracker.spec(), cases, workers, nil, trackingReporter{tracker})
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	mu.Lock()
	got := max
	mu.Unlock()
	if got > workers {
		t.Errorf("observed max concurrency %d, want <= %d", got, workers)
	}
}

// trackingSpec sleeps briefly so overlapping jobs are observable, and
// reports start/stop through the Reporter hook rather than instrumenting
// the process itself (the scheduler only exposes concurrency through
// Started/Finished timing in this package's own tests).
type trackingSpec struct {
	before, after func()
}

func (t *trackingSpec) spec() judging.CommandSpec {
	return judging.CommandSpec{Program: "sh", Args: []string{"-c", "sleep 0.05"}}
}

type trackingReporter struct {
	t *trackingSpec
}

func (r trackingReporter) Started(int, judging.TestCase)                   { r.t.before() }
func (r trackingReporter) Finished(int, judging.TestCase, judging.Verdict) { r.t.after() }

func TestJudge_Cancellation(t *testing.T) {
	cases := make([]judging.TestCase, 8)
	for i := range cases {
		cases[i] = judging.TestCase{Name: "slow", Expected: judging.ExpectedOutput{Kind: judging.AcceptAny}}
	}
	spec := judging.CommandSpec{Program: "sh", Args: []string{"-c", "sleep 5"}}

	cancelCh := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(cancelCh)
	}()

	start := time.Now()
	_, err := Judge(context.Background(), spec, cases, 4, cancelCh, nil)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if _, ok := err.(*judging.CancellationError); !ok {
		t.Fatalf("expected *judging.CancellationError, got %T: %v", err, err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("cancellation was not prompt: took %v", elapsed)
	}
}

func TestJudge_SpawnErrorAbortsWholeBatch(t *testing.T) {
	cases := make([]judging.TestCase, 5)
	for i := range cases {
		cases[i] = judging.TestCase{Name: "c", Expected: judging.ExpectedOutput{Kind: judging.AcceptAny}}
	}
	spec := judging.CommandSpec{Program: "/no/such/cpjudge-test-binary"}

	outcome, err := Judge(context.Background(), spec, cases, 2, nil, nil)
	if err == nil {
		t.Fatal("expected a batch-fatal error for an unspawnable program")
	}
	var spawnErr *judging.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected *judging.SpawnError, got %T: %v", err, err)
	}
	if len(outcome.Verdicts) != 0 {
		t.Errorf("len(Verdicts) = %d, want 0 on batch abort", len(outcome.Verdicts))
	}
}

func TestWorkers_DefaultsToNumCPU(t *testing.T) {
	if Workers(0) <= 0 {
		t.Error("Workers(0) should return a positive default")
	}
	if Workers(3) != 3 {
		t.Errorf("Workers(3) = %d, want 3", Workers(3))
	}
}
