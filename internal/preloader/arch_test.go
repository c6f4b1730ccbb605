package preloader

import "testing"

func TestArchSupported(t *testing.T) {
	tests := []struct {
		imageArch string
		appArch   string
		want      bool
	}{
		{"amd64", "amd64", true},
		{"aarch64", "aarch64", true},
		{"aarch64", "armv7hf", true},
		{"aarch64", "rpi", true},
		{"armv7hf", "rpi", true},
		{"amd64", "i386", true},
		{"armv7hf", "aarch64", false},
		{"rpi", "armv7hf", false},
		{"i386", "amd64", false},
		{"amd64", "aarch64", false},
	}

	for _, tt := range tests {
		if got := archSupported(tt.imageArch, tt.appArch); got != tt.want {
			t.Errorf("archSupported(%q, %q) = %v, want %v", tt.imageArch, tt.appArch, got, tt.want)
		}
	}
}
