package cmd

import (
	"errors"
	"io/fs"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// configLoadError marks a startup configuration failure as an I/O failure
// (spec.md §6 exit code 2) rather than an ordinary judging failure (exit
// code 1) — it carries no meaning of its own beyond that classification.
type configLoadError struct{ err error }

func (e *configLoadError) Error() string { return e.err.Error() }
func (e *configLoadError) Unwrap() error { return e.err }

// ExitCode maps an error returned from Execute to the process exit code
// spec.md §6 prescribes: 0 all verdicts Accepted, 1 any verdict
// non-Accepted, 2 I/O or spawn failure, 130 user cancellation.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var cancelErr *judging.CancellationError
	if errors.As(err, &cancelErr) {
		return 130
	}

	var spawnErr *judging.SpawnError
	if errors.As(err, &spawnErr) {
		return 2
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return 2
	}

	var cfgErr *configLoadError
	if errors.As(err, &cfgErr) {
		return 2
	}

	return 1
}
