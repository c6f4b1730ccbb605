// Drives the preloader container through a run.
//
// The preloader image owns the actual disk-image mutation; this package
// starts it, speaks its newline-delimited JSON protocol over the
// container's stdio, and relays its progress telemetry. A [Preloader]
// exposes the three phases the session controller sequences: Prepare,
// Preload, and Cleanup.
package preloader
