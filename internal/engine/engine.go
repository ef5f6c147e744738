// Package engine implements the reconciliation of a desired build-project
// tree against the live workspace.
//
// One Sync run is a single logical transaction: it acquires workspace-wide
// exclusivity, classifies every project (stale / matched / missing),
// decouples the stale ones, then converges each desired project through an
// ordered, idempotent per-project pipeline. Projects are processed one at a
// time, parents before children; a failure in one project never aborts the
// others.
//
// Key components:
//   - Engine: orchestrator wired with the workspace, settings, java,
//     filesystem and clock capabilities
//   - Sync: whole-run entry point returning a partial-success summary
//   - reconcile: the per-project convergence pipeline
//   - decouple: reversal of all engine-owned marks on a stale project
package engine

import (
	"github.com/mwpark/buildsync/internal/clock"
	"github.com/mwpark/buildsync/internal/fsops"
	"github.com/mwpark/buildsync/internal/javax"
	"github.com/mwpark/buildsync/internal/settings"
	"github.com/mwpark/buildsync/internal/workspace"
)

// Engine orchestrates sync runs. It is the main API surface called by the CLI.
type Engine struct {
	workspace workspace.Store
	settings  settings.Store
	java      javax.Service
	fs        fsops.FS
	clock     clock.Clock
}

// New creates a new Engine with the given capabilities.
func New(
	ws workspace.Store,
	st settings.Store,
	java javax.Service,
	fs fsops.FS,
	clk clock.Clock,
) *Engine {
	return &Engine{
		workspace: ws,
		settings:  st,
		java:      java,
		fs:        fs,
		clock:     clk,
	}
}
