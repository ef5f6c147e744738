package javax

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mwpark/buildsync/internal/fsops"
	"github.com/mwpark/buildsync/internal/model"
)

const configFileName = "java.yaml"

// DiskService implements Service with a single YAML file mapping project
// locations to their java configuration.
type DiskService struct {
	fs  fsops.FS
	dir string
}

// NewDiskService creates a DiskService storing its configuration under dir.
func NewDiskService(fs fsops.FS, dir string) *DiskService {
	return &DiskService{fs: fs, dir: dir}
}

type configFile struct {
	Projects map[string]*configEntry `yaml:"projects"`
}

type configEntry struct {
	SourceLevel   string      `yaml:"sourceLevel,omitempty"`
	TargetLevel   string      `yaml:"targetLevel,omitempty"`
	SourceFolders []string    `yaml:"sourceFolders,omitempty"`
	Container     string      `yaml:"container"`
	Dependencies  []configDep `yaml:"dependencies"`
}

type configDep struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// BeginUpdate opens a batched update scope. The disk implementation has no
// subsystem to initialize, so this only bounds the scope.
func (s *DiskService) BeginUpdate() (func(), error) {
	return func() {}, nil
}

// Inspect returns the project's java configuration, or nil if absent.
func (s *DiskService) Inspect(location string) (*Config, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	entry, ok := file.Projects[location]
	if !ok {
		return nil, nil
	}
	cfg := &Config{
		SourceSettings: model.SourceSettings{SourceLevel: entry.SourceLevel, TargetLevel: entry.TargetLevel},
		SourceFolders:  entry.SourceFolders,
	}
	for _, d := range entry.Dependencies {
		cfg.Dependencies = append(cfg.Dependencies, model.Dependency{Name: d.Name, Location: d.Location})
	}
	return cfg, nil
}

// Configure attaches the java view if the project has none yet.
func (s *DiskService) Configure(location string) error {
	return s.update(func(file *configFile) {
		if _, ok := file.Projects[location]; !ok {
			file.Projects[location] = newConfigEntry()
		}
	})
}

// SetSourceSettings applies the language level settings.
func (s *DiskService) SetSourceSettings(location string, settings model.SourceSettings) error {
	return s.update(func(file *configFile) {
		entry := s.entry(file, location)
		entry.SourceLevel = settings.SourceLevel
		entry.TargetLevel = settings.TargetLevel
	})
}

// SetSourceFolders replaces the source folder set.
func (s *DiskService) SetSourceFolders(location string, folders []string) error {
	return s.update(func(file *configFile) {
		s.entry(file, location).SourceFolders = folders
	})
}

// SetDependencies refreshes the managed dependency container.
func (s *DiskService) SetDependencies(location string, deps []model.Dependency) error {
	return s.update(func(file *configFile) {
		entry := s.entry(file, location)
		entry.Dependencies = []configDep{}
		for _, d := range deps {
			entry.Dependencies = append(entry.Dependencies, configDep{Name: d.Name, Location: d.Location})
		}
	})
}

// Remove drops the project's java configuration.
func (s *DiskService) Remove(location string) error {
	return s.update(func(file *configFile) {
		delete(file.Projects, location)
	})
}

func newConfigEntry() *configEntry {
	return &configEntry{Container: ContainerName, Dependencies: []configDep{}}
}

func (s *DiskService) entry(file *configFile, location string) *configEntry {
	entry, ok := file.Projects[location]
	if !ok {
		entry = newConfigEntry()
		file.Projects[location] = entry
	}
	return entry
}

func (s *DiskService) path() string {
	return filepath.Join(s.dir, configFileName)
}

func (s *DiskService) load() (*configFile, error) {
	data, err := s.fs.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return &configFile{Projects: map[string]*configEntry{}}, nil
		}
		return nil, fmt.Errorf("failed to read java configuration: %w", err)
	}
	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse java configuration: %w", err)
	}
	if file.Projects == nil {
		file.Projects = map[string]*configEntry{}
	}
	return &file, nil
}

func (s *DiskService) update(mutate func(*configFile)) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	mutate(file)
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal java configuration: %w", err)
	}
	if err := s.fs.AtomicWrite(s.path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write java configuration: %w", err)
	}
	return nil
}
