package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Width of the bar gauge in characters.
const barWidth = 30

var (
	barLabelStyle = lipgloss.NewStyle().Bold(true)
	barGaugeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
)

// Renders a named percentage gauge.
//
// On a terminal the bar redraws in place using carriage returns and
// finishes its line when it reaches 100 percent. On a plain stream every
// change is written as its own line.
type Bar struct {
	name    string
	out     io.Writer
	tty     bool
	mu      *sync.Mutex // Shared render lock, owned by the router.
	percent int
}

func newBar(name string, out io.Writer, tty bool, mu *sync.Mutex) *Bar {
	return &Bar{
		name:    name,
		out:     out,
		tty:     tty,
		mu:      mu,
		percent: -1,
	}
}

// Moves the bar to the given percentage.
//
// Values are clamped to the 0-100 range. Repeating the current value is
// a no-op.
func (b *Bar) Update(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	if percent == b.percent {
		return
	}
	b.percent = percent

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tty {
		fmt.Fprintf(b.out, "%s: %d%%\n", b.name, percent)
		return
	}

	filled := percent * barWidth / 100
	gauge := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)

	fmt.Fprintf(b.out, "\r\033[K%s [%s] %3d%%",
		barLabelStyle.Render(b.name),
		barGaugeStyle.Render(gauge),
		percent,
	)

	if percent == 100 {
		fmt.Fprintln(b.out)
	}
}

// Returns the last rendered percentage, or -1 before the first update.
func (b *Bar) Percent() int {
	return b.percent
}
