package engine

import (
	"errors"
	"fmt"
)

// ErrNameConflict marks name conflict errors; use errors.Is to detect them.
var ErrNameConflict = errors.New("project name conflict")

// NameConflictError reports that a desired project name is already taken by
// an unrelated workspace project. The engine never renames silently; the
// conflict is surfaced so the caller can involve the user.
type NameConflictError struct {
	// Name is the contested project name
	Name string

	// Location is the desired project's location
	Location string

	// TakenBy is the location of the workspace project holding the name;
	// empty if that project never materialized on disk
	TakenBy string
}

func (e *NameConflictError) Error() string {
	if e.TakenBy == "" {
		return fmt.Sprintf("name %q wanted by %s is already taken", e.Name, e.Location)
	}
	return fmt.Sprintf("name %q wanted by %s is already taken by the project at %s", e.Name, e.Location, e.TakenBy)
}

func (e *NameConflictError) Unwrap() error {
	return ErrNameConflict
}

// SyncError reports that one reconciliation step failed for one project.
// The engine aborts the project's remaining steps and continues with the
// next project; prior steps are not rolled back since each is idempotent
// and a retry of the whole run converges.
type SyncError struct {
	// Location is the project the step failed for
	Location string

	// Step identifies the failed pipeline step
	Step string

	// Err is the underlying failure
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync of %s failed at step %q: %v", e.Location, e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Pipeline step identifiers carried by SyncError.
const (
	StepRefresh         = "refresh"
	StepRename          = "rename"
	StepOwnership       = "ownership"
	StepSettings        = "settings"
	StepLinkedResources = "linked-resources"
	StepDerivedFolders  = "derived-folders"
	StepJava            = "java"
	StepNatures         = "natures"
	StepBuildCommands   = "build-commands"
)
