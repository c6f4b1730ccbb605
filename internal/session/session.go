package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/balena-io/resin-preload/internal/options"
)

// Phase a session is currently in.
type State int32

const (
	Created    State = iota // Engine constructed, nothing run yet.
	Preparing               // Engine preparation phase in flight.
	Preloading              // Engine preload phase in flight.
	CleaningUp              // Engine cleanup in flight.
	Done                    // Run settled, cleanup finished or skipped.
)

// Returns the state name (e.g., "preloading").
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Preparing:
		return "preparing"
	case Preloading:
		return "preloading"
	case CleaningUp:
		return "cleaning up"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// The phased operation a session drives.
//
// [preloader.Preloader] satisfies this interface; tests substitute a
// fake. Cleanup is not idempotent: the session guarantees exactly one
// invocation per run.
type Engine interface {
	Prepare(ctx context.Context) error
	Preload(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// One run's bound clients, configuration, and engine instance.
//
// A session is created once provisioning succeeds and is driven exactly
// once via [Session.Run]. It exclusively owns the engine instance: no
// other component may invoke the engine's lifecycle operations.
type Session struct {
	clients *Clients       // Provisioned clients, released during cleanup.
	cfg     options.Config // Run configuration.
	engine  Engine         // The phased preload engine.

	state    atomic.Int32 // Current State, for observation only.
	signaled atomic.Bool  // Set when a termination signal pre-empted completion.
	claimed  atomic.Bool  // Set by whichever path claims the cleanup invocation.

	// Re-delivers a signal to this process. Swapped out in tests.
	raise func(os.Signal) error
}

// Creates a session owning the given engine.
func New(clients *Clients, cfg options.Config, engine Engine) *Session {
	return &Session{
		clients: clients,
		cfg:     cfg,
		engine:  engine,
		raise:   raiseSignal,
	}
}

// Returns the session's current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Reports whether a termination signal pre-empted normal completion.
func (s *Session) SignalTerminated() bool {
	return s.signaled.Load()
}

// Drives the run to completion.
//
// The prepare and preload phases run in order; the first failure is
// terminal, no phase is retried. Run settles on whichever comes first:
// the phase chain finishing, or a termination signal arriving on
// signals. Either way cleanup is invoked exactly once, then the normal
// path returns the captured phase error for classification while the
// signal path re-delivers the signal to the process so a supervising
// parent observes the true termination cause.
//
// A signal does not cancel an in-flight phase; the phase goroutine is
// abandoned and the engine's cleanup is safe to run alongside it.
func (s *Session) Run(ctx context.Context, signals <-chan os.Signal) error {
	done := make(chan error, 1)
	go func() { done <- s.phases(ctx) }()

	select {
	case err := <-done:
		return s.finalize(ctx, err)
	case sig := <-signals:
		return s.interrupt(ctx, sig)
	}
}

// Runs the prepare and preload phases in order.
func (s *Session) phases(ctx context.Context) error {
	s.state.Store(int32(Preparing))
	if err := s.engine.Prepare(ctx); err != nil {
		return err
	}

	s.state.Store(int32(Preloading))
	return s.engine.Preload(ctx)
}

// Finalizes a run whose phase chain settled without a signal.
//
// Cleanup runs regardless of the phase outcome, unless the signal path
// claimed it first. A cleanup failure surfaces only when the phases
// themselves succeeded; a phase error always wins.
func (s *Session) finalize(ctx context.Context, phaseErr error) error {
	if s.claimCleanup() {
		cleanupErr := s.cleanup(ctx)
		if phaseErr == nil {
			phaseErr = cleanupErr
		}
	}

	s.state.Store(int32(Done))
	return phaseErr
}

// Finalizes a run pre-empted by a termination signal.
//
// Marks the session signal-terminated, restores the signal's default
// disposition so no handler can fire again, runs cleanup to completion
// if this path claimed it, and re-delivers the same signal to the
// process. The error return is a backstop for the window between
// re-delivery and process death.
func (s *Session) interrupt(ctx context.Context, sig os.Signal) error {
	slog.Warn("interrupted", "signal", sig)

	s.signaled.Store(true)
	signal.Reset(sig)

	if s.claimCleanup() {
		if err := s.cleanup(ctx); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}
	s.state.Store(int32(Done))

	if err := s.raise(sig); err != nil {
		return fmt.Errorf("re-delivering signal %v: %w", sig, err)
	}
	return fmt.Errorf("terminated by signal %v", sig)
}

// Claims the single cleanup invocation for the calling path.
//
// Signal delivery happens on its own goroutine, so both finalization
// paths can be in flight at once; the claim is a compare-and-swap
// rather than a checked flag. Exactly one caller per run gets true.
func (s *Session) claimCleanup() bool {
	return s.claimed.CompareAndSwap(false, true)
}

// Releases everything the run acquired: the engine's resources, then
// the provisioned clients and their state directory.
func (s *Session) cleanup(ctx context.Context) error {
	s.state.Store(int32(CleaningUp))
	slog.Debug("cleaning up")

	defer s.clients.Close()
	return s.engine.Cleanup(ctx)
}

// Re-delivers a signal to the current process.
//
// The signal's default disposition has been restored by the caller, so
// delivery terminates the process and the parent observes the signal
// as the termination cause rather than a generic exit code.
func raiseSignal(sig os.Signal) error {
	num, ok := sig.(syscall.Signal)
	if !ok {
		return fmt.Errorf("cannot re-deliver signal %v", sig)
	}
	return syscall.Kill(os.Getpid(), num)
}
