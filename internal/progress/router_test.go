package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressReusesBar(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Progress("Copying layers", 45)
	r.Progress("Copying layers", 46)

	if len(r.bars) != 1 {
		t.Fatalf("router holds %d bars, want 1", len(r.bars))
	}
	if got := r.bars["Copying layers"].Percent(); got != 46 {
		t.Errorf("bar percent = %d, want 46", got)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("rendered %d lines, want 2: %q", len(lines), out.String())
	}
	if lines[0] != "Copying layers: 45%" || lines[1] != "Copying layers: 46%" {
		t.Errorf("rendered lines = %q", lines)
	}
}

func TestProgressSeparateBars(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Progress("Copying layers", 10)
	r.Progress("Writing partition", 20)

	if len(r.bars) != 2 {
		t.Fatalf("router holds %d bars, want 2", len(r.bars))
	}
}

func TestProgressRepeatIsQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Progress("Copying layers", 45)
	r.Progress("Copying layers", 45)

	if got := strings.Count(out.String(), "\n"); got != 1 {
		t.Errorf("repeated percentage rendered %d lines, want 1: %q", got, out.String())
	}
}

func TestProgressClamps(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Progress("Copying layers", 150)
	r.Progress("Writing partition", -3)

	if !strings.Contains(out.String(), "Copying layers: 100%") {
		t.Errorf("overshoot not clamped to 100: %q", out.String())
	}
	if !strings.Contains(out.String(), "Writing partition: 0%") {
		t.Errorf("undershoot not clamped to 0: %q", out.String())
	}
}

func TestSpinnerStartReuses(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Spinner("Reading image", ActionStart)
	r.Spinner("Reading image", ActionStart)

	if len(r.spinners) != 1 {
		t.Fatalf("router holds %d spinners, want 1", len(r.spinners))
	}
	if got := strings.Count(out.String(), "Reading image..."); got != 1 {
		t.Errorf("spinner announced %d times, want 1: %q", got, out.String())
	}
}

func TestSpinnerBlankLineBeforeStop(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Spinner("Reading image", ActionStart)
	r.Spinner("Reading image", ActionStop)

	if got := errOut.String(); got != "\n" {
		t.Errorf("diagnostic stream = %q, want a single blank line", got)
	}
	if r.spinners["Reading image"].Running() {
		t.Error("spinner still running after stop")
	}

	// A second stop must not emit another guard line.
	r.Spinner("Reading image", ActionStop)

	if got := errOut.String(); got != "\n" {
		t.Errorf("diagnostic stream after double stop = %q, want a single blank line", got)
	}
}

func TestSpinnerStopUnknownIsHarmless(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Spinner("never started", ActionStop)

	if errOut.Len() != 0 {
		t.Errorf("stop of unknown spinner wrote %q, want nothing", errOut.String())
	}
	if len(r.spinners) != 0 {
		t.Errorf("stop of unknown spinner created a widget")
	}
}

func TestCloseStopsSpinners(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRouter(&out, &errOut)

	r.Spinner("Reading image", ActionStart)
	r.Close()

	if r.spinners["Reading image"].Running() {
		t.Error("spinner still running after Close")
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("isTerminal() = true for a buffer")
	}
}
