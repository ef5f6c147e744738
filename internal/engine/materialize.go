package engine

import (
	"context"
	"fmt"

	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/workspace"
)

// materialize brings a desired project without a workspace counterpart into
// the workspace, then converges it through the regular pipeline. The policy
// gates the import; when a descriptor already exists at the location the
// policy also decides whether to keep or overwrite it. After convergence
// the policy's AfterImport hook receives the final project handle.
func (e *Engine) materialize(ctx context.Context, rootLocation string, desired *model.Project, policy Policy) ProjectOutcome {
	outcome := ProjectOutcome{Name: desired.Name, Location: desired.Location}

	exists, err := e.fs.DirExists(desired.Location)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = fmt.Errorf("failed to check project directory: %w", err)
		return outcome
	}
	if !exists {
		outcome.Status = StatusSkipped
		outcome.Reason = "project directory does not exist"
		return outcome
	}

	if !policy.ShouldImport(desired) {
		outcome.Status = StatusSkipped
		outcome.Reason = "declined by policy"
		return outcome
	}

	if err := e.ensureNameFree(desired); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	desc, err := e.workspace.FindDescriptor(desired.Location)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	var project *workspace.Project
	switch {
	case desc != nil && policy.ShouldOverwriteDescriptor(desc, desired):
		if err := e.workspace.DeleteDescriptor(desired.Location); err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			return outcome
		}
		project, err = e.workspace.Create(desired.Name, desired.Location)
	case desc != nil:
		project, err = e.workspace.Include(desc, desired.Location)
	default:
		project, err = e.workspace.Create(desired.Name, desired.Location)
	}
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	if err := e.reconcile(ctx, rootLocation, desired, project); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	final, err := e.workspace.FindByLocation(desired.Location)
	if err == nil && final != nil {
		policy.AfterImport(final, desired)
	}

	outcome.Status = StatusConverged
	return outcome
}
