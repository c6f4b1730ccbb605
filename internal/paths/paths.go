package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory naming.
	toolName = "balena-preload"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Permission mode for files holding credentials.
	PrivateFileMode os.FileMode = 0600
)

// Path to the root directory under which per-run state lives.
//
//	Linux:   $XDG_CACHE_HOME/balena-preload or ~/.cache/balena-preload
//	macOS:   ~/Library/Caches/balena-preload
func StateRoot() string {
	return filepath.Join(xdg.CacheHome, toolName)
}

// Path to the private state directory for a single run.
//
// The id must be unique per run so concurrent runs never share cached
// credentials or session state.
//
//	Linux:   $XDG_CACHE_HOME/balena-preload/state-<id>
//	macOS:   ~/Library/Caches/balena-preload/state-<id>
func StateDir(id string) string {
	return filepath.Join(StateRoot(), "state-"+id)
}
