//go:build !windows

package options

import (
	"os"
	"path/filepath"
)

// DefaultPipePath is where the hidproxy endpoint listens.
var DefaultPipePath = filepath.Join(os.TempDir(), "ctaphid.sock")
