package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mwpark/buildsync/internal/fsops"
	"github.com/mwpark/buildsync/internal/model"
)

// DescriptorFileName is the project file written at each project location.
const DescriptorFileName = ".bsproject"

const lockFileName = ".lock"

var (
	// ErrProjectNotFound indicates a mutation targeted an unknown project.
	ErrProjectNotFound = errors.New("project not found")

	// ErrProjectExists indicates a create or rename collided with an
	// existing project.
	ErrProjectExists = errors.New("project already exists")

	// ErrProjectClosed indicates a mutation targeted a closed project.
	ErrProjectClosed = errors.New("project is closed")

	// ErrWorkspaceLocked indicates another sync run holds the workspace lock.
	ErrWorkspaceLocked = errors.New("workspace is locked")
)

// projectRecord is the YAML shape of one registry entry.
type projectRecord struct {
	Name              string                `yaml:"name"`
	Location          string                `yaml:"location,omitempty"`
	Open              bool                  `yaml:"open"`
	Natures           []string              `yaml:"natures,omitempty"`
	BuildCommands     []commandRecord       `yaml:"buildCommands,omitempty"`
	LinkedResources   []linkedResourceEntry `yaml:"linkedResources,omitempty"`
	DerivedFolders    []string              `yaml:"derivedFolders,omitempty"`
	BuildFolder       string                `yaml:"buildFolder,omitempty"`
	SubProjectFolders []string              `yaml:"subProjectFolders,omitempty"`
}

// descriptorRecord is the YAML shape of the on-disk project file.
type descriptorRecord struct {
	Name            string                `yaml:"name"`
	Natures         []string              `yaml:"natures,omitempty"`
	BuildCommands   []commandRecord       `yaml:"buildCommands,omitempty"`
	LinkedResources []linkedResourceEntry `yaml:"linkedResources,omitempty"`
}

type commandRecord struct {
	Name      string            `yaml:"name"`
	Arguments map[string]string `yaml:"arguments,omitempty"`
}

type linkedResourceEntry struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

// DiskStore implements Store with one YAML record per project in a registry
// directory and a descriptor file at each project location.
type DiskStore struct {
	fs          fsops.FS
	registryDir string
}

// NewDiskStore creates a DiskStore over the given registry directory.
func NewDiskStore(fs fsops.FS, registryDir string) *DiskStore {
	return &DiskStore{fs: fs, registryDir: registryDir}
}

// Lock acquires the workspace lock file. The file is created exclusively;
// a second concurrent sync run fails with ErrWorkspaceLocked.
func (s *DiskStore) Lock() (func(), error) {
	path := filepath.Join(s.registryDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrWorkspaceLocked
		}
		return nil, fmt.Errorf("failed to acquire workspace lock: %w", err)
	}
	f.Close()
	return func() { _ = os.Remove(path) }, nil
}

// Projects lists all workspace projects.
func (s *DiskStore) Projects() ([]*Project, error) {
	entries, err := s.fs.ReadDir(s.registryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var projects []*Project
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		rec, err := s.loadRecord(strings.TrimSuffix(entry.Name(), ".yaml"))
		if err != nil {
			return nil, err
		}
		projects = append(projects, rec.toProject())
	}
	return projects, nil
}

// FindByLocation returns the project at the given location, if any.
func (s *DiskStore) FindByLocation(location string) (*Project, error) {
	projects, err := s.Projects()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.Location != "" && p.Location == location {
			return p, nil
		}
	}
	return nil, nil
}

// FindByName returns the project with the given name, if any.
func (s *DiskStore) FindByName(name string) (*Project, error) {
	rec, err := s.loadRecord(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec.toProject(), nil
}

// Create creates a new project at location and writes a fresh descriptor.
func (s *DiskStore) Create(name, location string) (*Project, error) {
	if err := fsops.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("invalid project name: %w", err)
	}
	existing, err := s.FindByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, name)
	}

	desc := &descriptorRecord{Name: name}
	if err := s.writeDescriptor(location, desc); err != nil {
		return nil, err
	}

	rec := &projectRecord{Name: name, Location: location, Open: true}
	if err := s.saveRecord(rec); err != nil {
		return nil, err
	}
	return rec.toProject(), nil
}

// Include adds a project from an existing on-disk descriptor, adopting the
// descriptor's configuration unchanged.
func (s *DiskStore) Include(desc *Descriptor, location string) (*Project, error) {
	if err := fsops.ValidateIdentifier(desc.Name); err != nil {
		return nil, fmt.Errorf("invalid project name: %w", err)
	}
	existing, err := s.FindByName(desc.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, desc.Name)
	}

	rec := &projectRecord{
		Name:            desc.Name,
		Location:        location,
		Open:            true,
		Natures:         desc.Natures,
		BuildCommands:   toCommandRecords(desc.BuildCommands),
		LinkedResources: toLinkEntries(desc.LinkedResources),
	}
	if err := s.saveRecord(rec); err != nil {
		return nil, err
	}
	return rec.toProject(), nil
}

// FindDescriptor returns the descriptor at location, if any.
func (s *DiskStore) FindDescriptor(location string) (*Descriptor, error) {
	path := filepath.Join(location, DescriptorFileName)
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var rec descriptorRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor at %s: %w", location, err)
	}
	return &Descriptor{
		Name:            rec.Name,
		Natures:         rec.Natures,
		BuildCommands:   fromCommandRecords(rec.BuildCommands),
		LinkedResources: fromLinkEntries(rec.LinkedResources),
	}, nil
}

// DeleteDescriptor removes the descriptor file at location.
func (s *DiskStore) DeleteDescriptor(location string) error {
	err := s.fs.Remove(filepath.Join(location, DescriptorFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete descriptor: %w", err)
	}
	return nil
}

// Refresh re-reads the project's descriptor from disk and folds any
// out-of-band changes into the registry record.
func (s *DiskStore) Refresh(name string) error {
	rec, err := s.loadRecord(name)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		}
		return err
	}
	if rec.Location == "" {
		return nil
	}

	desc, err := s.FindDescriptor(rec.Location)
	if err != nil {
		return err
	}
	if desc == nil {
		return nil
	}

	rec.Natures = desc.Natures
	rec.BuildCommands = toCommandRecords(desc.BuildCommands)
	rec.LinkedResources = toLinkEntries(desc.LinkedResources)
	return s.saveRecord(rec)
}

// Rename changes a project's name. The new name must be free.
func (s *DiskStore) Rename(oldName, newName string) error {
	if err := fsops.ValidateIdentifier(newName); err != nil {
		return fmt.Errorf("invalid project name: %w", err)
	}
	taken, err := s.FindByName(newName)
	if err != nil {
		return err
	}
	if taken != nil {
		return fmt.Errorf("%w: %s", ErrProjectExists, newName)
	}

	rec, err := s.mutableRecord(oldName)
	if err != nil {
		return err
	}
	rec.Name = newName
	if err := s.saveRecord(rec); err != nil {
		return err
	}
	if err := s.fs.Remove(s.recordPath(oldName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old registry entry: %w", err)
	}
	return s.syncDescriptor(rec)
}

// AddNature records a nature on the project if not already present.
func (s *DiskStore) AddNature(name, nature string) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	if slices.Contains(rec.Natures, nature) {
		return nil
	}
	rec.Natures = append(rec.Natures, nature)
	if err := s.saveRecord(rec); err != nil {
		return err
	}
	return s.syncDescriptor(rec)
}

// RemoveNature removes a nature from the project if present.
func (s *DiskStore) RemoveNature(name, nature string) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	idx := slices.Index(rec.Natures, nature)
	if idx < 0 {
		return nil
	}
	rec.Natures = slices.Delete(rec.Natures, idx, idx+1)
	if err := s.saveRecord(rec); err != nil {
		return err
	}
	return s.syncDescriptor(rec)
}

// SetNatures replaces the project's recorded natures.
func (s *DiskStore) SetNatures(name string, natures []string) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	rec.Natures = slices.Clone(natures)
	if err := s.saveRecord(rec); err != nil {
		return err
	}
	return s.syncDescriptor(rec)
}

// SetBuildCommands replaces the project's recorded build commands.
func (s *DiskStore) SetBuildCommands(name string, commands []model.BuildCommand) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	rec.BuildCommands = toCommandRecords(commands)
	if err := s.saveRecord(rec); err != nil {
		return err
	}
	return s.syncDescriptor(rec)
}

// SetLinkedResources replaces the project's linked resources.
func (s *DiskStore) SetLinkedResources(name string, links []model.LinkedResource) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	rec.LinkedResources = toLinkEntries(links)
	if err := s.saveRecord(rec); err != nil {
		return err
	}
	return s.syncDescriptor(rec)
}

// SetDerivedFolders replaces the set of folders marked derived.
func (s *DiskStore) SetDerivedFolders(name string, folders []string) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	rec.DerivedFolders = slices.Clone(folders)
	return s.saveRecord(rec)
}

// SetBuildFolder marks the folder as build output; empty clears the mark.
func (s *DiskStore) SetBuildFolder(name, folder string) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	rec.BuildFolder = folder
	return s.saveRecord(rec)
}

// SetSubProjectFolders replaces the set of nested sub-project folders.
func (s *DiskStore) SetSubProjectFolders(name string, folders []string) error {
	rec, err := s.mutableRecord(name)
	if err != nil {
		return err
	}
	rec.SubProjectFolders = slices.Clone(folders)
	return s.saveRecord(rec)
}

// FolderExists reports whether the project-relative folder exists on disk.
func (s *DiskStore) FolderExists(name, folder string) (bool, error) {
	rec, err := s.loadRecord(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		}
		return false, err
	}
	if rec.Location == "" {
		return false, nil
	}
	return s.fs.DirExists(filepath.Join(rec.Location, folder))
}

// mutableRecord loads a record for mutation, rejecting closed projects.
func (s *DiskStore) mutableRecord(name string) (*projectRecord, error) {
	rec, err := s.loadRecord(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		}
		return nil, err
	}
	if !rec.Open {
		return nil, fmt.Errorf("%w: %s", ErrProjectClosed, name)
	}
	return rec, nil
}

func (s *DiskStore) recordPath(name string) string {
	return filepath.Join(s.registryDir, name+".yaml")
}

func (s *DiskStore) loadRecord(name string) (*projectRecord, error) {
	data, err := s.fs.ReadFile(s.recordPath(name))
	if err != nil {
		return nil, err
	}
	var rec projectRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse registry entry %s: %w", name, err)
	}
	return &rec, nil
}

func (s *DiskStore) saveRecord(rec *projectRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal registry entry: %w", err)
	}
	if err := s.fs.AtomicWrite(s.recordPath(rec.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write registry entry: %w", err)
	}
	return nil
}

// syncDescriptor rewrites the on-disk descriptor from the registry record,
// keeping the two in agreement after configuration changes.
func (s *DiskStore) syncDescriptor(rec *projectRecord) error {
	if rec.Location == "" {
		return nil
	}
	return s.writeDescriptor(rec.Location, &descriptorRecord{
		Name:            rec.Name,
		Natures:         rec.Natures,
		BuildCommands:   rec.BuildCommands,
		LinkedResources: rec.LinkedResources,
	})
}

func (s *DiskStore) writeDescriptor(location string, desc *descriptorRecord) error {
	exists, err := s.fs.DirExists(location)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.fs.MkdirAll(location, 0755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}
	data, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	if err := s.fs.AtomicWrite(filepath.Join(location, DescriptorFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

func (r *projectRecord) toProject() *Project {
	return &Project{
		Name:              r.Name,
		Location:          r.Location,
		Open:              r.Open,
		Natures:           slices.Clone(r.Natures),
		BuildCommands:     fromCommandRecords(r.BuildCommands),
		LinkedResources:   fromLinkEntries(r.LinkedResources),
		DerivedFolders:    slices.Clone(r.DerivedFolders),
		BuildFolder:       r.BuildFolder,
		SubProjectFolders: slices.Clone(r.SubProjectFolders),
	}
}

func toCommandRecords(commands []model.BuildCommand) []commandRecord {
	var out []commandRecord
	for _, c := range commands {
		out = append(out, commandRecord{Name: c.Name, Arguments: c.Arguments})
	}
	return out
}

func fromCommandRecords(records []commandRecord) []model.BuildCommand {
	var out []model.BuildCommand
	for _, r := range records {
		out = append(out, model.BuildCommand{Name: r.Name, Arguments: r.Arguments})
	}
	return out
}

func toLinkEntries(links []model.LinkedResource) []linkedResourceEntry {
	var out []linkedResourceEntry
	for _, l := range links {
		out = append(out, linkedResourceEntry{Name: l.Name, Target: l.Target})
	}
	return out
}

func fromLinkEntries(entries []linkedResourceEntry) []model.LinkedResource {
	var out []model.LinkedResource
	for _, e := range entries {
		out = append(out, model.LinkedResource{Name: e.Name, Target: e.Target})
	}
	return out
}
