package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mwpark/buildsync/internal/clock"
	"github.com/mwpark/buildsync/internal/javax"
	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/settings"
	"github.com/mwpark/buildsync/internal/workspace"
)

// --- in-memory workspace store ---

type fakeWorkspace struct {
	projects    map[string]*workspace.Project
	descriptors map[string]*workspace.Descriptor
	folders     map[string]bool
	mutations   []string
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		projects:    make(map[string]*workspace.Project),
		descriptors: make(map[string]*workspace.Descriptor),
		folders:     make(map[string]bool),
	}
}

func (w *fakeWorkspace) record(op string) {
	w.mutations = append(w.mutations, op)
}

func (w *fakeWorkspace) addProject(p *workspace.Project) {
	w.projects[p.Name] = p
}

func (w *fakeWorkspace) addFolder(location, rel string) {
	w.folders[filepath.Join(location, rel)] = true
}

func (w *fakeWorkspace) Lock() (func(), error) {
	return func() {}, nil
}

func (w *fakeWorkspace) Projects() ([]*workspace.Project, error) {
	var out []*workspace.Project
	for _, p := range w.projects {
		out = append(out, cloneProject(p))
	}
	return out, nil
}

func (w *fakeWorkspace) FindByLocation(location string) (*workspace.Project, error) {
	for _, p := range w.projects {
		if p.Location != "" && p.Location == location {
			return cloneProject(p), nil
		}
	}
	return nil, nil
}

func (w *fakeWorkspace) FindByName(name string) (*workspace.Project, error) {
	if p, ok := w.projects[name]; ok {
		return cloneProject(p), nil
	}
	return nil, nil
}

func (w *fakeWorkspace) Create(name, location string) (*workspace.Project, error) {
	w.record("create:" + name)
	if _, ok := w.projects[name]; ok {
		return nil, fmt.Errorf("project already exists: %s", name)
	}
	p := &workspace.Project{Name: name, Location: location, Open: true}
	w.projects[name] = p
	w.descriptors[location] = &workspace.Descriptor{Name: name}
	return cloneProject(p), nil
}

func (w *fakeWorkspace) Include(desc *workspace.Descriptor, location string) (*workspace.Project, error) {
	w.record("include:" + desc.Name)
	if _, ok := w.projects[desc.Name]; ok {
		return nil, fmt.Errorf("project already exists: %s", desc.Name)
	}
	p := &workspace.Project{
		Name:            desc.Name,
		Location:        location,
		Open:            true,
		Natures:         slices.Clone(desc.Natures),
		BuildCommands:   slices.Clone(desc.BuildCommands),
		LinkedResources: slices.Clone(desc.LinkedResources),
	}
	w.projects[desc.Name] = p
	return cloneProject(p), nil
}

func (w *fakeWorkspace) FindDescriptor(location string) (*workspace.Descriptor, error) {
	if d, ok := w.descriptors[location]; ok {
		return d, nil
	}
	return nil, nil
}

func (w *fakeWorkspace) DeleteDescriptor(location string) error {
	w.record("delete-descriptor:" + location)
	delete(w.descriptors, location)
	return nil
}

func (w *fakeWorkspace) Refresh(name string) error {
	if _, ok := w.projects[name]; !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	return nil
}

func (w *fakeWorkspace) Rename(oldName, newName string) error {
	w.record("rename:" + oldName + ">" + newName)
	p, ok := w.projects[oldName]
	if !ok {
		return fmt.Errorf("project not found: %s", oldName)
	}
	if _, taken := w.projects[newName]; taken {
		return fmt.Errorf("project already exists: %s", newName)
	}
	delete(w.projects, oldName)
	p.Name = newName
	w.projects[newName] = p
	return nil
}

func (w *fakeWorkspace) AddNature(name, nature string) error {
	w.record("add-nature:" + name + ":" + nature)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	if !slices.Contains(p.Natures, nature) {
		p.Natures = append(p.Natures, nature)
	}
	return nil
}

func (w *fakeWorkspace) RemoveNature(name, nature string) error {
	w.record("remove-nature:" + name + ":" + nature)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	if idx := slices.Index(p.Natures, nature); idx >= 0 {
		p.Natures = slices.Delete(p.Natures, idx, idx+1)
	}
	return nil
}

func (w *fakeWorkspace) SetNatures(name string, natures []string) error {
	w.record("set-natures:" + name)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	p.Natures = slices.Clone(natures)
	return nil
}

func (w *fakeWorkspace) SetBuildCommands(name string, commands []model.BuildCommand) error {
	w.record("set-build-commands:" + name)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	p.BuildCommands = slices.Clone(commands)
	return nil
}

func (w *fakeWorkspace) SetLinkedResources(name string, links []model.LinkedResource) error {
	w.record("set-links:" + name)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	p.LinkedResources = slices.Clone(links)
	return nil
}

func (w *fakeWorkspace) SetDerivedFolders(name string, folders []string) error {
	w.record("set-derived:" + name)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	p.DerivedFolders = slices.Clone(folders)
	return nil
}

func (w *fakeWorkspace) SetBuildFolder(name, folder string) error {
	w.record("set-build-folder:" + name)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	p.BuildFolder = folder
	return nil
}

func (w *fakeWorkspace) SetSubProjectFolders(name string, folders []string) error {
	w.record("set-subprojects:" + name)
	p, ok := w.projects[name]
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}
	p.SubProjectFolders = slices.Clone(folders)
	return nil
}

func (w *fakeWorkspace) FolderExists(name, folder string) (bool, error) {
	p, ok := w.projects[name]
	if !ok {
		return false, fmt.Errorf("project not found: %s", name)
	}
	if p.Location == "" {
		return false, nil
	}
	return w.folders[filepath.Join(p.Location, folder)], nil
}

func cloneProject(p *workspace.Project) *workspace.Project {
	c := *p
	c.Natures = slices.Clone(p.Natures)
	c.BuildCommands = slices.Clone(p.BuildCommands)
	c.LinkedResources = slices.Clone(p.LinkedResources)
	c.DerivedFolders = slices.Clone(p.DerivedFolders)
	c.SubProjectFolders = slices.Clone(p.SubProjectFolders)
	return &c
}

// --- in-memory settings store ---

type fakeSettings struct {
	records map[string]*settings.Record
	writes  int
	deletes int
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{records: make(map[string]*settings.Record)}
}

func (s *fakeSettings) Read(ctx context.Context, location string) (*settings.Record, error) {
	if rec, ok := s.records[location]; ok {
		c := *rec
		return &c, nil
	}
	return nil, nil
}

func (s *fakeSettings) Write(ctx context.Context, rec *settings.Record) error {
	s.writes++
	c := *rec
	s.records[rec.ProjectLocation] = &c
	return nil
}

func (s *fakeSettings) Delete(ctx context.Context, location string) error {
	s.deletes++
	delete(s.records, location)
	return nil
}

func (s *fakeSettings) All(ctx context.Context) ([]*settings.Record, error) {
	var out []*settings.Record
	for _, rec := range s.records {
		c := *rec
		out = append(out, &c)
	}
	return out, nil
}

// --- in-memory java service ---

type fakeJava struct {
	configs map[string]*javax.Config
	writes  int
}

func newFakeJava() *fakeJava {
	return &fakeJava{configs: make(map[string]*javax.Config)}
}

func (j *fakeJava) BeginUpdate() (func(), error) {
	return func() {}, nil
}

func (j *fakeJava) Inspect(location string) (*javax.Config, error) {
	if cfg, ok := j.configs[location]; ok {
		c := *cfg
		return &c, nil
	}
	return nil, nil
}

func (j *fakeJava) Configure(location string) error {
	j.writes++
	if _, ok := j.configs[location]; !ok {
		j.configs[location] = &javax.Config{}
	}
	return nil
}

func (j *fakeJava) SetSourceSettings(location string, s model.SourceSettings) error {
	j.writes++
	j.configs[location].SourceSettings = s
	return nil
}

func (j *fakeJava) SetSourceFolders(location string, folders []string) error {
	j.writes++
	j.configs[location].SourceFolders = slices.Clone(folders)
	return nil
}

func (j *fakeJava) SetDependencies(location string, deps []model.Dependency) error {
	j.writes++
	j.configs[location].Dependencies = slices.Clone(deps)
	return nil
}

func (j *fakeJava) Remove(location string) error {
	j.writes++
	delete(j.configs, location)
	return nil
}

// --- in-memory filesystem ---

type fakeFS struct {
	dirs map[string]bool
}

func newFakeFS(dirs ...string) *fakeFS {
	fs := &fakeFS{dirs: make(map[string]bool)}
	for _, d := range dirs {
		fs.dirs[d] = true
	}
	return fs
}

func (f *fakeFS) Lstat(path string) (os.FileInfo, error) { return nil, os.ErrNotExist }

func (f *fakeFS) Exists(path string) (bool, error) { return f.dirs[path], nil }

func (f *fakeFS) DirExists(path string) (bool, error) { return f.dirs[path], nil }

func (f *fakeFS) ReadFile(path string) ([]byte, error) { return nil, os.ErrNotExist }

func (f *fakeFS) AtomicWrite(path string, data []byte, perm os.FileMode) error { return nil }

func (f *fakeFS) MkdirAll(path string, perm os.FileMode) error {
	f.dirs[path] = true
	return nil
}

func (f *fakeFS) Remove(path string) error { return nil }

func (f *fakeFS) ReadDir(path string) ([]os.DirEntry, error) { return nil, nil }

// --- harness ---

type harness struct {
	engine    *Engine
	workspace *fakeWorkspace
	settings  *fakeSettings
	java      *fakeJava
	fs        *fakeFS
	clock     *clock.FakeClock
}

func newHarness(dirs ...string) *harness {
	ws := newFakeWorkspace()
	st := newFakeSettings()
	java := newFakeJava()
	fs := newFakeFS(dirs...)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	return &harness{
		engine:    New(ws, st, java, fs, clk),
		workspace: ws,
		settings:  st,
		java:      java,
		fs:        fs,
		clock:     clk,
	}
}

func (h *harness) resetCounters() {
	h.workspace.mutations = nil
	h.settings.writes = 0
	h.settings.deletes = 0
	h.java.writes = 0
}
