package engine

import (
	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/workspace"
)

// Policy decides what happens to desired projects that are not yet part of
// the workspace. It is supplied by the caller per sync run.
type Policy interface {
	// ShouldImport decides whether the desired project is brought into the
	// workspace at all. Declining is not an error; the project is skipped.
	ShouldImport(p *model.Project) bool

	// ShouldOverwriteDescriptor decides, when a descriptor already exists
	// at the desired location, whether to replace it with a fresh one
	// (true) or include the existing descriptor unchanged (false).
	ShouldOverwriteDescriptor(desc *workspace.Descriptor, p *model.Project) bool

	// AfterImport is invoked with the final project handle once a newly
	// materialized project has converged. This is the sole notification
	// point for collaborators reacting to new projects.
	AfterImport(wp *workspace.Project, p *model.Project)
}

// ImportAll imports every project, keeps existing descriptors and reacts to
// nothing. It is the default policy of the CLI.
type ImportAll struct{}

func (ImportAll) ShouldImport(*model.Project) bool { return true }

func (ImportAll) ShouldOverwriteDescriptor(*workspace.Descriptor, *model.Project) bool {
	return false
}

func (ImportAll) AfterImport(*workspace.Project, *model.Project) {}

// ProgressFunc observes per-project progress. It is called once per
// processed project and never affects control flow.
type ProgressFunc func(done, total int, name string)

// SyncRequest is one reconciliation run.
type SyncRequest struct {
	// Root is the desired build model tree; its Location is the build root
	Root *model.Project

	// Policy gates materialization; nil means ImportAll
	Policy Policy

	// Progress, if set, observes per-project progress
	Progress ProgressFunc
}

// Outcome statuses of one project within a sync run.
const (
	// StatusConverged: the project now matches the desired model
	StatusConverged = "converged"

	// StatusSkipped: the project was left untouched (closed, declined by
	// policy, or its directory does not exist)
	StatusSkipped = "skipped"

	// StatusFailed: a step failed; remaining steps were aborted
	StatusFailed = "failed"

	// StatusDecoupled: all engine-owned marks were removed
	StatusDecoupled = "decoupled"
)

// ProjectOutcome is the result of processing one project.
type ProjectOutcome struct {
	// Name is the project name (desired name for materialized projects)
	Name string

	// Location is the project location; may be empty for decoupled
	// projects that never materialized
	Location string

	// Status is one of the Status constants
	Status string

	// Reason explains skipped outcomes
	Reason string

	// Err is set for failed outcomes
	Err error
}

// SyncResult is the partial-success summary of one run. Mutations performed
// for already-converged projects are never undone by later failures.
type SyncResult struct {
	// Outcomes holds one entry per processed project, in processing order
	Outcomes []ProjectOutcome
}

// Converged returns the outcomes of projects that converged.
func (r *SyncResult) Converged() []ProjectOutcome { return r.withStatus(StatusConverged) }

// Skipped returns the outcomes of projects left untouched.
func (r *SyncResult) Skipped() []ProjectOutcome { return r.withStatus(StatusSkipped) }

// Failed returns the outcomes of projects that failed.
func (r *SyncResult) Failed() []ProjectOutcome { return r.withStatus(StatusFailed) }

// Decoupled returns the outcomes of projects that were decoupled.
func (r *SyncResult) Decoupled() []ProjectOutcome { return r.withStatus(StatusDecoupled) }

// HasFailures reports whether any project failed.
func (r *SyncResult) HasFailures() bool { return len(r.Failed()) > 0 }

func (r *SyncResult) withStatus(status string) []ProjectOutcome {
	var out []ProjectOutcome
	for _, o := range r.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
