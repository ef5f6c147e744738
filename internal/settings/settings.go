// Package settings persists per-project sync configuration records.
//
// A record ties a managed workspace project to the build root that owns it
// and remembers which natures, linked resources and build commands the sync
// engine applied, so a later pass replaces only what it previously owned.
// Records are keyed by project location; a project that never materialized
// on disk has no record.
package settings

import (
	"context"
	"time"
)

// Record is the sync configuration persisted for one managed project.
type Record struct {
	// ProjectLocation is the project directory; the record key
	ProjectLocation string

	// RootLocation is the root directory of the build that owns the project
	RootLocation string

	// ManagedNatures are the natures the engine applied on the last pass
	ManagedNatures []string

	// ManagedLinks are the linked-resource names the engine applied
	ManagedLinks []string

	// ManagedCommands are the build-command names the engine applied
	ManagedCommands []string

	// SyncedAt is when the project last converged
	SyncedAt time.Time
}

// Store persists sync records.
type Store interface {
	// Read returns the record for the given project location, or nil if
	// none exists.
	Read(ctx context.Context, projectLocation string) (*Record, error)

	// Write inserts or replaces a record.
	Write(ctx context.Context, rec *Record) error

	// Delete removes the record for the given project location. Deleting a
	// missing record is a no-op.
	Delete(ctx context.Context, projectLocation string) error

	// All returns every persisted record.
	All(ctx context.Context) ([]*Record, error)
}
