package api

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (

	// Default balena API endpoint.
	DefaultEndpoint = "https://api.balena-cloud.com"

	// Environment variable overriding the API endpoint.
	endpointEnv = "BALENARC_BALENA_URL"

	// Legacy alias for the endpoint override, honored for old resin.io
	// setups.
	legacyEndpointEnv = "RESINRC_RESIN_URL"

	// Per-user configuration file consulted for the endpoint.
	rcFileName = ".balenarc.yml"
)

// Subset of ~/.balenarc.yml the tool reads.
type rcFile struct {
	BalenaURL string `yaml:"balenaUrl"`
}

// Resolves the API endpoint for this run.
//
// Sources, in order: the BALENARC_BALENA_URL environment variable, the
// legacy RESINRC_RESIN_URL variable, the balenaUrl entry of the per-user
// ~/.balenarc.yml, and finally the built-in default. Values without a
// scheme are treated as a bare device-facing domain and rewritten to the
// API host.
func ResolveEndpoint() string {
	if v := os.Getenv(endpointEnv); v != "" {
		return normalizeEndpoint(v)
	}
	if v := os.Getenv(legacyEndpointEnv); v != "" {
		return normalizeEndpoint(v)
	}
	if v := rcEndpoint(); v != "" {
		return normalizeEndpoint(v)
	}
	return DefaultEndpoint
}

// Reads the endpoint from the per-user configuration file.
//
// Returns "" when the file is missing or malformed; endpoint resolution
// falls through to the default rather than failing the run.
func rcEndpoint() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(home, rcFileName))
	if err != nil {
		return ""
	}

	var rc rcFile
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return ""
	}
	return strings.TrimSpace(rc.BalenaURL)
}

// Normalizes an endpoint value to a full URL.
//
// Values carrying a scheme are used as-is, minus any trailing slash. Bare
// domains (e.g. "balena-cloud.com") name the device-facing domain and are
// rewritten to the API host.
func normalizeEndpoint(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "/")

	if strings.Contains(v, "://") {
		return v
	}
	return "https://api." + v
}
