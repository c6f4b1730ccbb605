// Owns the lifecycle of a single preload run.
//
// [Provision] builds the run's authenticated API client and container
// runtime handle around a private per-run state directory. [Session]
// then sequences the engine's prepare and preload phases and guarantees
// that cleanup of the acquired resources happens exactly once, whether
// the run completes, fails, or is interrupted by a termination signal.
package session
