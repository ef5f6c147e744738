package engine

import (
	"context"

	"github.com/mwpark/buildsync/internal/workspace"
)

// decouple reverses every engine-owned mark on a project that fell out of
// the desired tree: the managed nature is removed, folder marks are cleared
// and the persisted sync record is deleted. The project itself is never
// closed, moved or deleted; that decision stays with the caller. Decoupling
// an already-decoupled project is a no-op.
func (e *Engine) decouple(ctx context.Context, project *workspace.Project) error {
	if err := e.workspace.Refresh(project.Name); err != nil {
		return &SyncError{Location: project.Location, Step: StepRefresh, Err: err}
	}

	current, err := e.workspace.FindByName(project.Name)
	if err != nil {
		return &SyncError{Location: project.Location, Step: StepOwnership, Err: err}
	}
	if current == nil {
		return nil
	}

	if current.HasNature(workspace.ManagedNature) {
		if err := e.workspace.RemoveNature(current.Name, workspace.ManagedNature); err != nil {
			return &SyncError{Location: project.Location, Step: StepOwnership, Err: err}
		}
	}

	if len(current.DerivedFolders) > 0 {
		if err := e.workspace.SetDerivedFolders(current.Name, nil); err != nil {
			return &SyncError{Location: project.Location, Step: StepDerivedFolders, Err: err}
		}
	}
	if current.BuildFolder != "" {
		if err := e.workspace.SetBuildFolder(current.Name, ""); err != nil {
			return &SyncError{Location: project.Location, Step: StepDerivedFolders, Err: err}
		}
	}
	if len(current.SubProjectFolders) > 0 {
		if err := e.workspace.SetSubProjectFolders(current.Name, nil); err != nil {
			return &SyncError{Location: project.Location, Step: StepDerivedFolders, Err: err}
		}
	}

	// A project that never materialized has no record to delete.
	if current.Location != "" {
		if err := e.settings.Delete(ctx, current.Location); err != nil {
			return &SyncError{Location: project.Location, Step: StepSettings, Err: err}
		}
	}
	return nil
}
