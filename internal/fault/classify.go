package fault

import (
	"errors"
	"fmt"
	"io"
)

// Issue tracker shown to users when an unexpected error is reported.
const issuesURL = "https://github.com/balena-io/resin-preload/issues"

// Decides the process exit status for a terminal error.
//
// Nil returns 0. Usage, auth, and domain faults return 1. Unexpected
// failures return their embedded exit code when one is present as a
// positive integer, otherwise 1. Errors outside the fault taxonomy may
// also carry a code through an ExitCode() int method.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if KindOf(err) != Unexpected {
		return 1
	}

	var f *Fault
	if errors.As(err, &f) && f.Code > 0 {
		return f.Code
	}

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		if code := coded.ExitCode(); code > 0 {
			return code
		}
	}

	return 1
}

// Writes the user-facing report for a terminal error.
//
// Usage, auth, and domain faults print a single line carrying only the
// message. Unexpected failures print the full error chain and a pointer
// to the issue tracker.
func Report(w io.Writer, err error) {
	if err == nil {
		return
	}

	switch KindOf(err) {
	case Usage, Auth, Domain:
		fmt.Fprintf(w, "Error: %s\n", err)
	default:
		fmt.Fprintf(w, "Unexpected error: %s\n", err)
		fmt.Fprintf(w, "Please report this at %s\n", issuesURL)
	}
}
