package api

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "full url",
			value: "https://api.balena-staging.com",
			want:  "https://api.balena-staging.com",
		},
		{
			name:  "full url with trailing slash",
			value: "https://api.balena-staging.com/",
			want:  "https://api.balena-staging.com",
		},
		{
			name:  "http url",
			value: "http://api.local:8080",
			want:  "http://api.local:8080",
		},
		{
			name:  "bare domain",
			value: "balena-staging.com",
			want:  "https://api.balena-staging.com",
		},
		{
			name:  "bare domain with whitespace",
			value: "  balena-cloud.com  ",
			want:  "https://api.balena-cloud.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeEndpoint(tt.value); got != tt.want {
				t.Errorf("normalizeEndpoint(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	// A home directory with a config file naming a third endpoint.
	home := t.TempDir()
	rc := []byte("balenaUrl: 'balena-rc.com'\n")
	if err := os.WriteFile(filepath.Join(home, rcFileName), rc, 0o644); err != nil {
		t.Fatalf("writing rc file: %v", err)
	}

	tests := []struct {
		name   string
		env    string
		legacy string
		home   string
		want   string
	}{
		{
			name: "environment variable wins",
			env:  "balena-env.com",
			home: home,
			want: "https://api.balena-env.com",
		},
		{
			name:   "environment beats legacy",
			env:    "balena-env.com",
			legacy: "resin-legacy.com",
			home:   home,
			want:   "https://api.balena-env.com",
		},
		{
			name:   "legacy variable honored",
			legacy: "resin-legacy.com",
			home:   home,
			want:   "https://api.resin-legacy.com",
		},
		{
			name: "config file consulted",
			home: home,
			want: "https://api.balena-rc.com",
		},
		{
			name: "default without any source",
			home: t.TempDir(),
			want: DefaultEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(endpointEnv, tt.env)
			t.Setenv(legacyEndpointEnv, tt.legacy)
			t.Setenv("HOME", tt.home)

			if got := ResolveEndpoint(); got != tt.want {
				t.Errorf("ResolveEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveEndpointIgnoresMalformedRC(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, rcFileName), []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("writing rc file: %v", err)
	}

	t.Setenv(endpointEnv, "")
	t.Setenv(legacyEndpointEnv, "")
	t.Setenv("HOME", home)

	if got := ResolveEndpoint(); got != DefaultEndpoint {
		t.Errorf("ResolveEndpoint() = %q, want default for malformed config", got)
	}
}
