package model

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// manifestNode is the YAML shape of one project in a build manifest.
type manifestNode struct {
	Name     string            `yaml:"name"`
	Path     string            `yaml:"path"`
	BuildDir string            `yaml:"build-dir"`
	Natures  []string          `yaml:"natures"`
	Commands []manifestCommand `yaml:"commands"`
	Links    []manifestLink    `yaml:"links"`
	Source   *manifestSource   `yaml:"source"`
	Deps     []manifestDep     `yaml:"dependencies"`
	Children []manifestNode    `yaml:"children"`
}

type manifestCommand struct {
	Name      string            `yaml:"name"`
	Arguments map[string]string `yaml:"arguments"`
}

type manifestLink struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

type manifestSource struct {
	SourceLevel string   `yaml:"source-level"`
	TargetLevel string   `yaml:"target-level"`
	Directories []string `yaml:"directories"`
}

type manifestDep struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// LoadManifest reads a YAML build manifest and materializes the desired
// project tree. Relative paths in the manifest are resolved against the
// manifest's directory (for the root) or the parent project's location
// (for children), then cleaned to canonical absolute paths.
func LoadManifest(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var node manifestNode
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest directory: %w", err)
	}

	root, err := node.toProject(base)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// toProject converts a manifest node into a Project, resolving paths
// against base (the parent location, or manifest dir for the root).
func (n *manifestNode) toProject(base string) (*Project, error) {
	if n.Name == "" {
		return nil, fmt.Errorf("%w: manifest project without a name", ErrInvalidModel)
	}

	location := resolvePath(base, n.Path)
	p := &Project{
		Name:     n.Name,
		Location: location,
		Natures:  n.Natures,
	}

	if n.BuildDir != "" {
		p.BuildOutputLocation = resolvePath(location, n.BuildDir)
	}

	for _, c := range n.Commands {
		p.BuildCommands = append(p.BuildCommands, BuildCommand{Name: c.Name, Arguments: c.Arguments})
	}
	for _, l := range n.Links {
		p.LinkedResources = append(p.LinkedResources, LinkedResource{Name: l.Name, Target: resolvePath(location, l.Target)})
	}
	if n.Source != nil {
		p.SourceSettings = &SourceSettings{
			SourceLevel: n.Source.SourceLevel,
			TargetLevel: n.Source.TargetLevel,
		}
		p.SourceDirectories = n.Source.Directories
	}
	for _, d := range n.Deps {
		p.Dependencies = append(p.Dependencies, Dependency{Name: d.Name, Location: resolvePath(location, d.Location)})
	}

	for i := range n.Children {
		child, err := n.Children[i].toProject(location)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, child)
	}
	return p, nil
}

// resolvePath resolves rel against base unless rel is already absolute.
// An empty rel means base itself.
func resolvePath(base, rel string) string {
	if rel == "" || rel == "." {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Clean(filepath.Join(base, rel))
}
