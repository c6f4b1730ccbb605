package runtime

import (
	"io"
	"strings"
	"testing"
)

func TestNormalizeRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "bare name",
			ref:  "ubuntu",
			want: "docker.io/library/ubuntu:latest",
		},
		{
			name: "shorthand",
			ref:  "balena/balena-preload",
			want: "docker.io/balena/balena-preload:latest",
		},
		{
			name: "shorthand with tag",
			ref:  "balena/balena-preload:2.1.0",
			want: "docker.io/balena/balena-preload:2.1.0",
		},
		{
			name: "fully qualified",
			ref:  "ghcr.io/balena/balena-preload:edge",
			want: "ghcr.io/balena/balena-preload:edge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeRef(tt.ref)
			if err != nil {
				t.Fatalf("normalizeRef(%q): %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("normalizeRef(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestNormalizeRefRejectsInvalid(t *testing.T) {
	if _, err := normalizeRef("NOT A REF"); err == nil {
		t.Fatal("normalizeRef accepted an invalid reference")
	}
}

func TestDefaultPlatform(t *testing.T) {
	p := defaultPlatform()
	if !strings.HasPrefix(p, "linux/") {
		t.Fatalf("defaultPlatform = %q, want linux/<arch>", p)
	}
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[1] == "" {
		t.Fatalf("defaultPlatform = %q, want linux/<arch>", p)
	}
}

func TestNewContainerID(t *testing.T) {
	a := newContainerID()
	b := newContainerID()

	if !strings.HasPrefix(a, "preload-") {
		t.Fatalf("container ID %q missing preload- prefix", a)
	}
	if a == b {
		t.Fatalf("newContainerID returned duplicate: %q", a)
	}
}

func TestNextExecID(t *testing.T) {
	a := nextExecID()
	b := nextExecID()
	if a == b {
		t.Fatalf("nextExecID returned duplicate: %q", a)
	}
	if a == "" || b == "" {
		t.Fatal("nextExecID returned empty string")
	}
}

func TestDoneReader(t *testing.T) {
	dr := newDoneReader(strings.NewReader("input"))

	select {
	case <-dr.done:
		t.Fatal("done channel closed before EOF")
	default:
	}

	if _, err := io.Copy(io.Discard, dr); err != nil {
		t.Fatalf("reading: %v", err)
	}

	select {
	case <-dr.done:
	default:
		t.Fatal("done channel not closed after EOF")
	}
}
