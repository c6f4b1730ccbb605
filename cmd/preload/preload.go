package main

import (
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/balena-io/resin-preload/internal"
	"github.com/balena-io/resin-preload/internal/cli"
	"github.com/balena-io/resin-preload/internal/fault"
)

// The entry point for the balena-preload tool.
//
// Initializes logging, executes the root command, and on failure reports
// the classified error and exits with its status. A run interrupted by a
// termination signal never reaches the exit call: the session re-delivers
// the signal and the process dies by it.
func main() {
	slog.SetDefault(slog.New(logger()))

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("balena-preload is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		fault.Report(os.Stderr, err)
		os.Exit(fault.ExitCode(err))
	}
}

// Creates a logger seeded from build-time linker flags.
//
// The logger is reconfigured after flag parsing via cli.Execute. Logging
// goes to stderr so it never interleaves with progress rendering on
// stdout.
func logger() *charmlog.Logger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: false,
	})
	l.SetLevel(logLevel())
	return l
}

// Returns the initial log level from build-time defaults.
func logLevel() charmlog.Level {
	switch {
	case internal.IsDebug():
		return charmlog.DebugLevel
	case internal.IsQuiet():
		return charmlog.WarnLevel
	default:
		return charmlog.InfoLevel
	}
}

// Returns the current working directory, or "(unknown)".
func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return dir
}
