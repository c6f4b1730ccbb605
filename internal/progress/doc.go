// Renders progress telemetry from the preloader as bars and spinners.
//
// The preloader emits named progress and spinner events; a [Router] owns
// the widget for each name and keeps updating the same widget when a name
// repeats. Rendering degrades to plain line output when the target stream
// is not a terminal.
//
// Example usage:
//
//	router := progress.NewRouter(os.Stdout, os.Stderr)
//	defer router.Close()
//
//	router.Spinner("Reading image", progress.ActionStart)
//	router.Progress("Copying layers", 45)
//	router.Progress("Copying layers", 46)
//	router.Spinner("Reading image", progress.ActionStop)
package progress
