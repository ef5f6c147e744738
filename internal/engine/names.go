package engine

import (
	"fmt"

	"github.com/mwpark/buildsync/internal/model"
)

// ensureNameFree verifies the desired project name is not held by a
// workspace project at a different location. Names are workspace-global;
// a collision is surfaced as a NameConflictError rather than resolved by
// silent renaming, which would desynchronize the visible name from disk.
func (e *Engine) ensureNameFree(desired *model.Project) error {
	existing, err := e.workspace.FindByName(desired.Name)
	if err != nil {
		return fmt.Errorf("failed to look up project name %q: %w", desired.Name, err)
	}
	if existing != nil && existing.Location != desired.Location {
		return &NameConflictError{
			Name:     desired.Name,
			Location: desired.Location,
			TakenBy:  existing.Location,
		}
	}
	return nil
}
