package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .snomap/ state directory
// that lives under the definitions root. All fields are pre-computed strings.
type Paths struct {
	Root string // .snomap/
	DB   string // .snomap/snomap.db

	LogDir    string // .snomap/log/
	DaemonLog string // .snomap/log/daemon.log
}

// NewPaths constructs all resolved paths from a definitions root directory.
func NewPaths(definitionsRoot string) *Paths {
	root := filepath.Join(definitionsRoot, ".snomap")
	return &Paths{
		Root: root,
		DB:   filepath.Join(root, "snomap.db"),

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),
	}
}

// EnsureDirs creates all subdirectories under .snomap/. Idempotent.
func (p *Paths) EnsureDirs() error {
	dirs := []string{
		p.Root,
		p.LogDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
