// Package javax provides the structured dependency capability: a Java-like
// view over a workspace project carrying source language settings, source
// folders and a managed dependency container refreshed from the build model.
//
// The sync engine only depends on the Service interface; DiskService is the
// shipped implementation persisting the java configuration beside the
// workspace registry.
package javax

import (
	"github.com/mwpark/buildsync/internal/model"
)

// ContainerName identifies the managed dependency container attached to
// every configured project.
const ContainerName = "buildsync.dependencies"

// Config is the java configuration of one project.
type Config struct {
	// SourceSettings are the language level settings
	SourceSettings model.SourceSettings

	// SourceFolders are the project-relative source folders
	SourceFolders []string

	// Dependencies are the entries of the managed dependency container
	Dependencies []model.Dependency
}

// Service is the structured dependency capability the engine is
// constructed with. Projects are keyed by location so renames don't orphan
// their configuration.
type Service interface {
	// BeginUpdate opens a batched update scope so a sync run coalesces
	// configuration writes. The release function must run on every exit
	// path of the sync.
	BeginUpdate() (release func(), err error)

	// Inspect returns the project's java configuration, or nil if the
	// project has never been configured.
	Inspect(location string) (*Config, error)

	// Configure attaches the java view with an empty managed dependency
	// container. Configuring an already-configured project is a no-op.
	Configure(location string) error

	// SetSourceSettings applies the language level settings.
	SetSourceSettings(location string, s model.SourceSettings) error

	// SetSourceFolders replaces the source folder set.
	SetSourceFolders(location string, folders []string) error

	// SetDependencies refreshes the managed dependency container from the
	// build model.
	SetDependencies(location string, deps []model.Dependency) error

	// Remove drops the project's java configuration entirely.
	Remove(location string) error
}
