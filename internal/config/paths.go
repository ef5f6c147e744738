// Package config manages buildsync configuration and filesystem paths.
//
// All buildsync data lives under a single root directory (default:
// ~/.buildsync) containing the workspace registry, per-project java
// configuration and the settings database.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the filesystem paths used by buildsync.
type Paths struct {
	// Root is the base directory for all buildsync data (default: ~/.buildsync)
	Root string

	// Registry is the directory holding workspace project records
	Registry string

	// Java is the directory holding per-project java configuration
	Java string

	// SettingsDB is the path of the sqlite settings database
	SettingsDB string
}

// DefaultPaths returns the default paths for buildsync.
// The root can be overridden with the BUILDSYNC_ROOT environment variable.
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("BUILDSYNC_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".buildsync")
	}

	return &Paths{
		Root:       root,
		Registry:   filepath.Join(root, "registry"),
		Java:       filepath.Join(root, "java"),
		SettingsDB: filepath.Join(root, "settings.db"),
	}, nil
}

// EnsureDirectories creates the data directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Registry, p.Java} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
