package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/balena-io/resin-preload/internal/api"
	"github.com/balena-io/resin-preload/internal/options"
	"github.com/balena-io/resin-preload/internal/paths"
	"github.com/balena-io/resin-preload/internal/runtime"
)

// Clients provisioned for one run.
//
// The API client keeps its cached session state in StateDir, which is
// private to this run so concurrent or repeated runs never share or
// corrupt each other's credentials.
type Clients struct {
	API      *api.Client      // Authenticated balena API client.
	Runtime  *runtime.Runtime // Containerd client handle.
	StateDir string           // Per-run private state directory.
}

// Provisions the clients for one run from the resolved configuration.
//
// Creates a fresh state directory (fatal and unretried on failure),
// builds the API client around it, exchanges a token credential for a
// verified session when one is configured (auth failures propagate
// unretried; key-only clients authenticate per request instead), and
// connects to containerd. On any failure the state directory is removed
// before returning.
func Provision(ctx context.Context, cfg options.Config) (*Clients, error) {
	dir := paths.StateDir(uuid.NewString())
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	slog.Debug("state directory created", "dir", dir)

	client, err := api.NewClient(api.Config{
		Token:        cfg.APIToken,
		APIKey:       cfg.APIKey,
		StateDir:     dir,
		Certificates: cfg.Certificates,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	if cfg.APIToken != "" {
		if err := client.Login(ctx); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
	}

	rt, err := runtime.New(cfg.ContainerdAddress, "")
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return &Clients{API: client, Runtime: rt, StateDir: dir}, nil
}

// Releases the provisioned clients and their on-disk state.
func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Runtime != nil {
		c.Runtime.Close()
	}
	if c.StateDir != "" {
		os.RemoveAll(c.StateDir)
	}
}
