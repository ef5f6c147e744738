// Package model defines the desired-state build project tree.
//
// A build tool computes a tree of projects (one node per build unit) and
// hands it to the sync engine as immutable data. The model carries
// everything the engine needs to converge a workspace project: location,
// name, source layout, linked resources, natures, build commands and the
// declared build output directory.
//
// Key concepts:
//   - Project: one node of the desired tree; Location is the natural key
//   - Index: flattened location lookup over a whole tree
//   - Manifest: YAML description of a tree, loaded by the CLI
package model

// Project describes one build unit's intended workspace representation.
// Locations are canonical absolute paths.
type Project struct {
	// Name is the project name the workspace should display
	Name string

	// Location is the canonical absolute path of the project directory
	Location string

	// Children are the nested sub-projects, in declaration order
	Children []*Project

	// SourceDirectories are project-relative source folder paths
	SourceDirectories []string

	// SourceSettings holds language level settings; nil for non-Java projects
	SourceSettings *SourceSettings

	// LinkedResources are folders outside the project tree exposed under it
	LinkedResources []LinkedResource

	// Natures are the project natures declared by the build model
	Natures []string

	// BuildCommands are the builders declared by the build model, in order
	BuildCommands []BuildCommand

	// BuildOutputLocation is the declared build output directory as an
	// absolute path; empty means the build declares none
	BuildOutputLocation string

	// Dependencies are the resolved entries for the managed dependency
	// container; the engine never resolves coordinates itself
	Dependencies []Dependency
}

// SourceSettings holds the source language level configuration of a project.
type SourceSettings struct {
	// SourceLevel is the language level of the sources (e.g. "17")
	SourceLevel string

	// TargetLevel is the bytecode target level
	TargetLevel string
}

// LinkedResource maps a project-local name to a location outside the
// project directory.
type LinkedResource struct {
	// Name is the folder name as seen under the project
	Name string

	// Target is the absolute path the link points at
	Target string
}

// BuildCommand is one builder invocation recorded on a project.
type BuildCommand struct {
	// Name identifies the builder
	Name string

	// Arguments are the builder arguments, if any
	Arguments map[string]string
}

// Dependency is one pre-resolved entry of the managed dependency container.
type Dependency struct {
	// Name is the display name of the entry
	Name string

	// Location is the absolute path of the artifact or project
	Location string
}

// All returns the project and all its descendants in preorder, so parents
// always precede their children. Sync processing relies on this order.
func (p *Project) All() []*Project {
	out := []*Project{p}
	for _, child := range p.Children {
		out = append(out, child.All()...)
	}
	return out
}

// IsJava reports whether the project declares source settings and therefore
// needs the structured dependency capability attached.
func (p *Project) IsJava() bool {
	return p.SourceSettings != nil
}
