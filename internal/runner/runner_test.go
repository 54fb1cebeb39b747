package runner

import (
	"context"
	"testing"
	"time"

	"github.com/jpequegn/cpjudge/internal/judging"
)

func dur(d time.Duration) *time.Duration { return &d }

func TestRun_Success(t *testing.T) {
	spec := judging.CommandSpec{Program: "sh", Args: []string{"-c", "read line; echo \"$line\""}}
	outcome, err := Run(context.Background(), spec, []byte("hello\n"), dur(time.Second), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.TimedOut || outcome.Cancelled {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Result == nil {
		t.Fatal("expected a RunResult")
	}
	if outcome.Result.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", outcome.Result.Stdout, "hello\n")
	}
	if !outcome.Result.ExitStatus.Success {
		t.Errorf("expected successful exit, got %+v", outcome.Result.ExitStatus)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	spec := judging.CommandSpec{Program: "sh", Args: []string{"-c", "echo oops; exit 1"}}
	outcome, err := Run(context.Background(), spec, nil, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Result == nil {
		t.Fatal("expected a RunResult")
	}
	if outcome.Result.ExitStatus.Success {
		t.Error("expected unsuccessful exit")
	}
	if outcome.Result.ExitStatus.Code != 1 {
		t.Errorf("ExitCode = %d, want 1", outcome.Result.ExitStatus.Code)
	}
	if outcome.Result.Stdout != "oops\n" {
		t.Errorf("Stdout = %q", outcome.Result.Stdout)
	}
}

func TestRun_Timeout(t *testing.T) {
	spec := judging.CommandSpec{Program: "sh", Args: []string{"-c", "sleep 5; echo ok"}}
	start := time.Now()
	outcome, err := Run(context.Background(), spec, nil, dur(200*time.Millisecond), nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !outcome.TimedOut {
		t.Fatalf("expected TimedOut, got %+v", outcome)
	}
	if elapsed > 3*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestRun_Cancel(t *testing.T) {
	spec := judging.CommandSpec{Program: "sh", Args: []string{"-c", "sleep 5; echo ok"}}
	cancel := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(cancel)
	}()
	start := time.Now()
	outcome, err := Run(context.Background(), spec, nil, nil, cancel)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !outcome.Cancelled {
		t.Fatalf("expected Cancelled, got %+v", outcome)
	}
	if elapsed > time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}

func TestRun_StdinClosedEarlyIsNotAnError(t *testing.T) {
	// The program exits 0 without reading stdin, before the (large) stdin
	// write completes; the resulting broken pipe must not surface as an
	// error (spec.md §7 — broken pipes mid-run are not host-side errors).
	spec := judging.CommandSpec{Program: "sh", Args: []string{"-c", "exit 0"}}
	big := make([]byte, 1<<20)
	outcome, err := Run(context.Background(), spec, big, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Result == nil || !outcome.Result.ExitStatus.Success {
		t.Fatalf("expected successful exit, got %+v", outcome)
	}
}

func TestRun_SpawnError(t *testing.T) {
	spec := judging.CommandSpec{Program: "/no/such/program/cpjudge-test"}
	_, err := Run(context.Background(), spec, nil, nil, nil)
	if err == nil {
		t.Fatal("expected a spawn error")
	}
	var spawnErr *judging.SpawnError
	if !asSpawnError(err, &spawnErr) {
		t.Fatalf("expected *judging.SpawnError, got %T: %v", err, err)
	}
}

func asSpawnError(err error, target **judging.SpawnError) bool {
	se, ok := err.(*judging.SpawnError)
	if ok {
		*target = se
	}
	return ok
}
