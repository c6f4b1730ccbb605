// Package fault categorizes terminal errors for exit-status and message
// decisions.
//
// Every failure in a run is terminal; the only question is how it is
// reported. A [Fault] tags an error with the failure category, and
// [Report] and [ExitCode] consume the category exhaustively at the
// process boundary.
package fault

import (
	"errors"
	"fmt"
)

// Classifies an error into one of the failure categories the tool
// distinguishes when deciding exit status and message shape.
type Kind int

const (

	// Failure with no recognized category. Reported in full detail.
	Unexpected Kind = iota

	// Missing or invalid configuration. Surfaced before provisioning.
	Usage

	// Credential exchange or verification failure.
	Auth

	// Recognized failure reported by the API or the preload engine.
	Domain
)

// Returns the category name (e.g., "domain").
func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage"
	case Auth:
		return "auth"
	case Domain:
		return "domain"
	default:
		return "unexpected"
	}
}

// A categorized error.
//
// Faults carry the failure category consumed by [Report] and [ExitCode],
// an optional embedded exit code, and an optional wrapped cause.
type Fault struct {
	Kind Kind   // Failure category.
	Code int    // Embedded exit code; 0 when absent.
	msg  string // Human-readable message.
	err  error  // Wrapped cause, or nil.
}

func (f *Fault) Error() string {
	switch {
	case f.msg != "" && f.err != nil:
		return f.msg + ": " + f.err.Error()
	case f.err != nil:
		return f.err.Error()
	default:
		return f.msg
	}
}

func (f *Fault) Unwrap() error {
	return f.err
}

// Creates a usage fault from a format string.
func Usagef(format string, args ...any) error {
	return &Fault{Kind: Usage, msg: fmt.Sprintf(format, args...)}
}

// Creates a domain fault from a format string.
func Domainf(format string, args ...any) error {
	return &Fault{Kind: Domain, msg: fmt.Sprintf(format, args...)}
}

// Wraps an error with a failure category.
//
// Returns nil when err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, err: err}
}

// Wraps an error with a failure category and a message prefix.
//
// Returns nil when err is nil.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// Returns the failure category of an error.
//
// The error chain is searched for a [*Fault]; the first one found decides.
// Errors without one are [Unexpected].
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unexpected
}
