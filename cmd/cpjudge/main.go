// Command cpjudge runs a program under test against a suite of test
// cases, judging each one concurrently and reporting the verdicts.
package main

import (
	"fmt"
	"os"

	"github.com/jpequegn/cpjudge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cpjudge:", err)
		os.Exit(cmd.ExitCode(err))
	}
}
