package engine

import (
	"path/filepath"
	"strings"

	"github.com/mwpark/buildsync/internal/model"
)

// defaultBuildFolder is used when the model declares no build output
// location.
const defaultBuildFolder = "build"

// resolveBuildFolder locates the project's build output folder relative to
// the workspace project, in this precedence:
//
//  1. no declared location: the fixed relative path "build"
//  2. declared location nested under the project: that relative sub-path
//  3. declared location equal to a linked resource target: the link name
//  4. none of the above: no folder, no error
//
// Tier 4 is a legitimate configuration where the build output lives outside
// the project tree and cannot be represented as a project-relative folder;
// callers apply no build-folder marking in that case.
func resolveBuildFolder(p *model.Project) (string, bool) {
	if p.BuildOutputLocation == "" {
		return defaultBuildFolder, true
	}
	if rel, ok := relativeChildPath(p.Location, p.BuildOutputLocation); ok {
		return rel, true
	}
	for _, link := range p.LinkedResources {
		if link.Target == p.BuildOutputLocation {
			return link.Name, true
		}
	}
	return "", false
}

// relativeChildPath returns child's path relative to parent if child is a
// strict descendant of parent.
func relativeChildPath(parent, child string) (string, bool) {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	prefix := parent + string(filepath.Separator)
	if !strings.HasPrefix(child, prefix) {
		return "", false
	}
	return child[len(prefix):], true
}
