// Provides the resolved configuration record for a preload run.
//
// A [Config] is built once by the CLI layer from flags and environment
// variables and never mutated afterwards; every later phase reads from
// the same record.
package options

import (
	"os"
	"strings"

	"github.com/balena-io/resin-preload/internal/fault"
)

// Resolved configuration for a single preload run.
type Config struct {
	AppID             int      // Application identifier.
	Image             string   // Path to the disk image to preload.
	APIToken          string   // Session token credential; empty when key auth is used.
	APIKey            string   // API key credential; empty when token auth is used.
	Commit            string   // Commit to preload; empty means latest.
	SplashImage       string   // Path to a splash screen image, or empty.
	DontCheckArch     bool     // Disables the architecture compatibility check.
	Certificates      []string // Extra CA certificate files (PEM).
	ContainerdAddress string   // Containerd socket address; empty uses the runtime default.
	PreloaderImage    string   // Preloader image reference override; empty uses the default.
}

// Checks that the configuration is complete enough to start a run.
//
// The application id, the image path, and at least one credential are
// required. Certificate files must exist on the host. Returns a usage
// fault describing the first problem found.
func (c Config) Validate() error {
	if c.AppID <= 0 {
		return fault.Usagef("missing application id (--app or APP_ID)")
	}
	if c.Image == "" {
		return fault.Usagef("missing image path (--img or IMAGE)")
	}
	if c.APIToken == "" && c.APIKey == "" {
		return fault.Usagef("missing credentials (--api-token or --api-key)")
	}

	for _, cert := range c.Certificates {
		if _, err := os.Stat(cert); err != nil {
			return fault.Usagef("certificate file %s is not readable", cert)
		}
	}

	return nil
}

// Returns the commit reference to preload, defaulting to "latest".
func (c Config) CommitRef() string {
	if c.Commit == "" {
		return "latest"
	}
	return c.Commit
}

// Reports whether a presence-style boolean environment variable is set.
//
// Any non-empty value other than "0", "false", or "no" (case-insensitive)
// counts as set.
func EnvFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "", "0", "false", "no":
		return false
	}
	return true
}
