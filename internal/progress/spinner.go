package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Interval between spinner frame redraws.
const spinnerInterval = 100 * time.Millisecond

// Frames of the spinner animation.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

// Animates a named activity indicator.
//
// Start launches a render loop on its own goroutine that redraws the
// spinner every frame interval; Stop halts the loop and clears the line.
// A stopped spinner can be started again.
type Spinner struct {
	name    string
	out     io.Writer
	tty     bool
	mu      *sync.Mutex // Shared render lock, owned by the router.
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func newSpinner(name string, out io.Writer, tty bool, mu *sync.Mutex) *Spinner {
	return &Spinner{
		name: name,
		out:  out,
		tty:  tty,
		mu:   mu,
	}
}

// Starts the spinner's render loop.
//
// Starting a running spinner is a no-op. On a plain stream a single line
// is written instead of an animation.
func (s *Spinner) Start() {
	if s.running {
		return
	}
	s.running = true

	if !s.tty {
		s.mu.Lock()
		fmt.Fprintf(s.out, "%s...\n", s.name)
		s.mu.Unlock()
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin()
}

// Stops the render loop and clears the spinner's line.
//
// Blocks until the render goroutine has exited, so no frame is drawn
// after Stop returns. Stopping a stopped spinner is a no-op.
func (s *Spinner) Stop() {
	if !s.running {
		return
	}
	s.running = false

	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
}

// Reports whether the spinner's render loop is active.
func (s *Spinner) Running() bool {
	return s.running
}

// Render loop, runs on its own goroutine until stopped.
func (s *Spinner) spin() {
	defer close(s.done)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.stop:
			s.mu.Lock()
			fmt.Fprint(s.out, "\r\033[K")
			s.mu.Unlock()
			return

		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]

			s.mu.Lock()
			fmt.Fprintf(s.out, "\r\033[K%s %s", spinnerStyle.Render(frame), s.name)
			s.mu.Unlock()
		}
	}
}
