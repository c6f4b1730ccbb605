package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Spinner actions carried by telemetry events.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Routes named telemetry events to display widgets.
//
// Widgets are created lazily on first use and cached for the lifetime of
// the router, so repeated events for the same name drive a single widget
// instance. A router is bound to one run and holds no global state.
//
// Events must be dispatched from a single goroutine; only the render
// stream is shared with spinner goroutines and protected by a lock.
type Router struct {
	out      io.Writer           // Render stream for bars and spinners.
	errOut   io.Writer           // Diagnostic stream, receives the guard line before spinner stops.
	tty      bool                // Whether out supports in-place redrawing.
	mu       sync.Mutex          // Serializes writes to out across widgets.
	bars     map[string]*Bar     // Progress bars keyed by event name.
	spinners map[string]*Spinner // Spinners keyed by event name.
}

// Creates a router rendering to out and writing diagnostics to errOut.
func NewRouter(out, errOut io.Writer) *Router {
	return &Router{
		out:      out,
		errOut:   errOut,
		tty:      isTerminal(out),
		bars:     make(map[string]*Bar),
		spinners: make(map[string]*Spinner),
	}
}

// Moves the named progress bar to the reported percentage.
//
// The bar is created on first use. Percentages are not required to be
// monotonic; the router trusts the emitter.
func (r *Router) Progress(name string, percentage int) {
	bar, ok := r.bars[name]
	if !ok {
		bar = newBar(name, r.out, r.tty, &r.mu)
		r.bars[name] = bar
	}
	bar.Update(percentage)
}

// Starts or stops the named spinner.
//
// A start action creates the spinner on first use; a later start for the
// same name reuses it. Any other action stops the spinner, preceded by a
// blank line on the diagnostic stream so the spinner's last frame is not
// overdrawn by whatever is printed next. Stopping an unknown spinner is
// harmless.
func (r *Router) Spinner(name, action string) {
	if action == ActionStart {
		sp, ok := r.spinners[name]
		if !ok {
			sp = newSpinner(name, r.out, r.tty, &r.mu)
			r.spinners[name] = sp
		}
		sp.Start()
		return
	}

	sp, ok := r.spinners[name]
	if !ok || !sp.Running() {
		return
	}

	fmt.Fprintln(r.errOut)
	sp.Stop()
}

// Stops any spinners still running.
func (r *Router) Close() {
	for _, sp := range r.spinners {
		sp.Stop()
	}
}

// Reports whether the writer is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
