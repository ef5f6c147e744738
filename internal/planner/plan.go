package planner

import (
	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/workspace"
)

// Match pairs a desired project with its existing workspace counterpart.
type Match struct {
	// Desired is the build-model node
	Desired *model.Project

	// Existing is the workspace project at the same location
	Existing *workspace.Project
}

// SyncPlan is the classification of one sync run. The three sets are
// disjoint; together they cover every desired project and every managed
// workspace project of the build root.
type SyncPlan struct {
	// Decouple are the managed workspace projects absent from the desired
	// tree; the engine reverses its marks on them
	Decouple []*workspace.Project

	// Update are desired projects with an existing workspace counterpart,
	// converged in place
	Update []Match

	// Materialize are desired projects without a workspace counterpart,
	// split at resolution time into import-existing-descriptor vs create-new
	Materialize []*model.Project
}

// Build classifies the workspace against the desired model.
//
// A workspace project is stale iff it carries the managed nature, its
// persisted owner root equals rootLocation, and it either has no location
// or its location is not part of the desired tree. Desired projects are
// matched to workspace projects by location only; names never participate
// in matching. ownerRoots maps project locations to their persisted owner
// root. desired must be in preorder (parents before children) and that
// order is preserved in Update and Materialize.
func Build(index model.Index, desired []*model.Project, projects []*workspace.Project, ownerRoots map[string]string, rootLocation string) *SyncPlan {
	plan := &SyncPlan{}

	byLocation := make(map[string]*workspace.Project, len(projects))
	for _, p := range projects {
		if p.Location != "" {
			byLocation[p.Location] = p
		}
	}

	for _, p := range projects {
		if !p.HasNature(workspace.ManagedNature) {
			continue
		}
		if p.Location == "" {
			// Never materialized: no record can attribute it to any build
			// root, and the managed nature alone puts it inside this
			// engine's ownership boundary.
			plan.Decouple = append(plan.Decouple, p)
			continue
		}
		if ownerRoots[p.Location] == rootLocation && !index.Contains(p.Location) {
			plan.Decouple = append(plan.Decouple, p)
		}
	}

	for _, d := range desired {
		if existing, ok := byLocation[d.Location]; ok {
			plan.Update = append(plan.Update, Match{Desired: d, Existing: existing})
		} else {
			plan.Materialize = append(plan.Materialize, d)
		}
	}

	return plan
}
