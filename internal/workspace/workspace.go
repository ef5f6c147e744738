// Package workspace defines the mutable workspace of managed projects.
//
// The sync engine talks to the workspace exclusively through the Store
// interface: list and look up projects, create or include them, rename,
// toggle natures, reconcile linked resources and folder marks. DiskStore
// is the shipped implementation backed by YAML records; tests substitute
// in-memory fakes.
//
// Key concepts:
//   - Project: a point-in-time snapshot of one workspace project
//   - Descriptor: the on-disk project file at a project's location
//   - Store: the capability contract the engine is constructed with
package workspace

import (
	"slices"

	"github.com/mwpark/buildsync/internal/model"
)

const (
	// ManagedNature is the ownership mark: its presence means the sync
	// engine manages the project.
	ManagedNature = "buildsync.managed"

	// JavaNature marks a project that has the structured java view attached.
	JavaNature = "buildsync.java"
)

// Project is a snapshot of one workspace project. Mutations go through the
// Store; snapshots are never written back directly.
type Project struct {
	// Name is the workspace-unique project name
	Name string

	// Location is the project directory; empty if never materialized on disk
	Location string

	// Open reports whether the project is open; closed projects are opaque
	Open bool

	// Natures currently recorded on the project
	Natures []string

	// BuildCommands currently recorded on the project, in order
	BuildCommands []model.BuildCommand

	// LinkedResources currently recorded on the project
	LinkedResources []model.LinkedResource

	// DerivedFolders are the project-relative folders marked derived
	DerivedFolders []string

	// BuildFolder is the project-relative folder marked as build output;
	// empty if none is marked
	BuildFolder string

	// SubProjectFolders are the project-relative folders marked as nested
	// sub-projects
	SubProjectFolders []string
}

// HasNature reports whether the nature is recorded on the project.
func (p *Project) HasNature(id string) bool {
	return slices.Contains(p.Natures, id)
}

// Descriptor is the project file stored at a project's location. Including
// a descriptor adopts its recorded configuration unchanged.
type Descriptor struct {
	Name            string
	Natures         []string
	BuildCommands   []model.BuildCommand
	LinkedResources []model.LinkedResource
}

// Store is the workspace capability the sync engine is constructed with.
//
// Lookup methods return (nil, nil) when nothing matches. All mutation
// methods are keyed by project name and must be idempotent; mutating a
// closed project is an error.
type Store interface {
	// Lock acquires workspace-wide exclusive access for the duration of a
	// sync run. The returned release function must be called on every exit
	// path.
	Lock() (release func(), err error)

	// Projects lists all workspace projects.
	Projects() ([]*Project, error)

	// FindByLocation returns the project at the given location, if any.
	FindByLocation(location string) (*Project, error)

	// FindByName returns the project with the given name, if any.
	FindByName(name string) (*Project, error)

	// Create creates a new project at location with a fresh descriptor.
	Create(name, location string) (*Project, error)

	// Include adds a project to the workspace from an existing on-disk
	// descriptor, adopting the descriptor's configuration unchanged.
	Include(desc *Descriptor, location string) (*Project, error)

	// FindDescriptor returns the on-disk descriptor at location, if any.
	FindDescriptor(location string) (*Descriptor, error)

	// DeleteDescriptor removes the on-disk descriptor at location.
	DeleteDescriptor(location string) error

	// Refresh re-reads the project's on-disk state, picking up out-of-band
	// changes to its descriptor.
	Refresh(name string) error

	// Rename changes a project's name. The new name must be free.
	Rename(oldName, newName string) error

	// AddNature records a nature on the project if not already present.
	AddNature(name, nature string) error

	// RemoveNature removes a nature from the project if present.
	RemoveNature(name, nature string) error

	// SetNatures replaces the project's recorded natures.
	SetNatures(name string, natures []string) error

	// SetBuildCommands replaces the project's recorded build commands.
	SetBuildCommands(name string, commands []model.BuildCommand) error

	// SetLinkedResources replaces the project's linked resources.
	SetLinkedResources(name string, links []model.LinkedResource) error

	// SetDerivedFolders replaces the set of folders marked derived.
	SetDerivedFolders(name string, folders []string) error

	// SetBuildFolder marks the given project-relative folder as build
	// output; an empty folder clears the mark.
	SetBuildFolder(name, folder string) error

	// SetSubProjectFolders replaces the set of folders marked as nested
	// sub-projects.
	SetSubProjectFolders(name string, folders []string) error

	// FolderExists reports whether the project-relative folder exists on
	// disk under the project's location.
	FolderExists(name, folder string) (bool, error)
}
