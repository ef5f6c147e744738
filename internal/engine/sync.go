package engine

import (
	"context"
	"fmt"

	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/planner"
	"github.com/mwpark/buildsync/internal/workspace"
)

// Sync reconciles the workspace with the desired build model.
//
// The run holds workspace-wide exclusivity and the java batch scope for its
// whole duration so no concurrent project creation or deletion can
// invalidate the classification. Stale projects are decoupled first, then
// every desired project is converged in tree order (parents before their
// children, since child folder marks depend on the parent project handle).
// Cancellation is checked between projects; already-processed projects keep
// their new consistent state and a later run resumes safely. Re-running on
// unchanged inputs mutates nothing.
func (e *Engine) Sync(ctx context.Context, req *SyncRequest) (*SyncResult, error) {
	if req.Root == nil {
		return nil, fmt.Errorf("%w: no root project", model.ErrInvalidModel)
	}

	index, err := model.BuildIndex(req.Root)
	if err != nil {
		return nil, err
	}

	policy := req.Policy
	if policy == nil {
		policy = ImportAll{}
	}

	release, err := e.workspace.Lock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock workspace: %w", err)
	}
	defer release()

	endUpdate, err := e.java.BeginUpdate()
	if err != nil {
		return nil, fmt.Errorf("failed to open java update scope: %w", err)
	}
	defer endUpdate()

	projects, err := e.workspace.Projects()
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace projects: %w", err)
	}

	ownerRoots := make(map[string]string)
	for _, p := range projects {
		if p.Location == "" {
			continue
		}
		rec, err := e.settings.Read(ctx, p.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to read sync record for %s: %w", p.Location, err)
		}
		if rec != nil {
			ownerRoots[p.Location] = rec.RootLocation
		}
	}

	desired := req.Root.All()
	plan := planner.Build(index, desired, projects, ownerRoots, req.Root.Location)

	result := &SyncResult{}
	total := len(plan.Decouple) + len(desired)
	done := 0
	report := func(name string) {
		done++
		if req.Progress != nil {
			req.Progress(done, total, name)
		}
	}

	for _, p := range plan.Decouple {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome := ProjectOutcome{Name: p.Name, Location: p.Location, Status: StatusDecoupled}
		if !p.Open {
			outcome.Status = StatusSkipped
			outcome.Reason = "project is closed"
		} else if err := e.decouple(ctx, p); err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
		}
		result.Outcomes = append(result.Outcomes, outcome)
		report(p.Name)
	}

	matched := make(map[string]*workspace.Project, len(plan.Update))
	for _, m := range plan.Update {
		matched[m.Desired.Location] = m.Existing
	}

	for _, d := range desired {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var outcome ProjectOutcome
		if existing, ok := matched[d.Location]; ok {
			outcome = ProjectOutcome{Name: d.Name, Location: d.Location, Status: StatusConverged}
			if !existing.Open {
				// Closed projects are matched but opaque: zero mutations.
				outcome.Status = StatusSkipped
				outcome.Reason = "project is closed"
			} else if err := e.reconcile(ctx, req.Root.Location, d, existing); err != nil {
				outcome.Status = StatusFailed
				outcome.Err = err
			}
		} else {
			outcome = e.materialize(ctx, req.Root.Location, d, policy)
		}
		result.Outcomes = append(result.Outcomes, outcome)
		report(d.Name)
	}

	return result, nil
}

// Decouple removes every engine-owned mark from the managed projects of the
// given build root, as if the desired tree had become empty. Projects stay
// in the workspace; only ownership, folder marks and sync records go away.
func (e *Engine) Decouple(ctx context.Context, rootLocation string) (*SyncResult, error) {
	release, err := e.workspace.Lock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock workspace: %w", err)
	}
	defer release()

	projects, err := e.workspace.Projects()
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace projects: %w", err)
	}

	result := &SyncResult{}
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !p.HasNature(workspace.ManagedNature) {
			continue
		}
		if p.Location != "" {
			rec, err := e.settings.Read(ctx, p.Location)
			if err != nil {
				return result, fmt.Errorf("failed to read sync record for %s: %w", p.Location, err)
			}
			if rec == nil || rec.RootLocation != rootLocation {
				continue
			}
		}

		outcome := ProjectOutcome{Name: p.Name, Location: p.Location, Status: StatusDecoupled}
		if !p.Open {
			outcome.Status = StatusSkipped
			outcome.Reason = "project is closed"
		} else if err := e.decouple(ctx, p); err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

// Plan classifies the workspace against the desired model without mutating
// anything. It is the dry-run used by the status command.
func (e *Engine) Plan(ctx context.Context, root *model.Project) (*planner.SyncPlan, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: no root project", model.ErrInvalidModel)
	}
	index, err := model.BuildIndex(root)
	if err != nil {
		return nil, err
	}

	projects, err := e.workspace.Projects()
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace projects: %w", err)
	}

	ownerRoots := make(map[string]string)
	for _, p := range projects {
		if p.Location == "" {
			continue
		}
		rec, err := e.settings.Read(ctx, p.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to read sync record for %s: %w", p.Location, err)
		}
		if rec != nil {
			ownerRoots[p.Location] = rec.RootLocation
		}
	}

	return planner.Build(index, root.All(), projects, ownerRoots, root.Location), nil
}
