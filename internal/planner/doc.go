// Package planner classifies workspace state against the desired model.
//
// Classification is a pure function of its inputs: the flattened desired
// tree, the current workspace listing and the persisted owner-root
// associations. It produces a SyncPlan partitioning every project into
// exactly one of three sets (decouple, update, materialize) and performs
// no side effects.
//
// Key responsibilities:
//   - Detect stale managed projects that fell out of the desired tree
//   - Pair desired projects with their existing workspace counterparts
//   - Collect desired projects with no workspace counterpart
package planner
