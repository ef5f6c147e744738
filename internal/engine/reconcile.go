package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mwpark/buildsync/internal/javax"
	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/settings"
	"github.com/mwpark/buildsync/internal/workspace"
)

// reconciliation carries the state of one project's convergence pipeline.
type reconciliation struct {
	engine  *Engine
	ctx     context.Context
	root    string
	desired *model.Project
	project *workspace.Project
	record  *settings.Record
}

// reconcile converges one open workspace project to the desired model. The
// pipeline is the same whether the project pre-existed, was imported from a
// descriptor or was freshly created. Steps run in a fixed order; the first
// failing step aborts the rest for this project and is reported as a
// SyncError tagged with the project location and step name. Every step only
// mutates when the observed state differs from the desired state, so a
// second run over converged state performs no mutation at all.
func (e *Engine) reconcile(ctx context.Context, rootLocation string, desired *model.Project, project *workspace.Project) error {
	r := &reconciliation{
		engine:  e,
		ctx:     ctx,
		root:    rootLocation,
		desired: desired,
		project: project,
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{StepRefresh, r.refresh},
		{StepRename, r.rename},
		{StepOwnership, r.ownership},
		{StepSettings, r.persistAssociation},
		{StepLinkedResources, r.linkedResources},
		{StepDerivedFolders, r.derivedFolders},
		{StepJava, r.java},
		{StepNatures, r.natures},
		{StepBuildCommands, r.buildCommands},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return &SyncError{Location: desired.Location, Step: step.name, Err: err}
		}
	}
	return nil
}

// reload refreshes the snapshot after a mutation so later steps diff
// against current state.
func (r *reconciliation) reload() error {
	p, err := r.engine.workspace.FindByLocation(r.desired.Location)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project at %s vanished from the workspace", r.desired.Location)
	}
	r.project = p
	return nil
}

// refresh picks up out-of-band disk changes before anything else reads the
// project's configuration.
func (r *reconciliation) refresh() error {
	if err := r.engine.workspace.Refresh(r.project.Name); err != nil {
		return err
	}
	return r.reload()
}

// rename applies the desired name. It precedes all path-relative steps
// because downstream lookups use the live project handle.
func (r *reconciliation) rename() error {
	if r.project.Name == r.desired.Name {
		return nil
	}
	if err := r.engine.ensureNameFree(r.desired); err != nil {
		return err
	}
	if err := r.engine.workspace.Rename(r.project.Name, r.desired.Name); err != nil {
		return err
	}
	return r.reload()
}

// ownership ensures the managed nature is present.
func (r *reconciliation) ownership() error {
	if r.project.HasNature(workspace.ManagedNature) {
		return nil
	}
	if err := r.engine.workspace.AddNature(r.project.Name, workspace.ManagedNature); err != nil {
		return err
	}
	return r.reload()
}

// persistAssociation records which build root owns this project.
func (r *reconciliation) persistAssociation() error {
	rec, err := r.engine.settings.Read(r.ctx, r.desired.Location)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &settings.Record{ProjectLocation: r.desired.Location, RootLocation: r.root}
		r.record = rec
		return r.saveRecord()
	}
	r.record = rec
	if rec.RootLocation != r.root {
		rec.RootLocation = r.root
		return r.saveRecord()
	}
	return nil
}

// linkedResources converges the linked resources to exactly the desired
// set: missing links are added, previously managed links no longer desired
// are removed, and links declared by neither side are left untouched.
func (r *reconciliation) linkedResources() error {
	desiredNames := make(map[string]bool, len(r.desired.LinkedResources))
	for _, l := range r.desired.LinkedResources {
		desiredNames[l.Name] = true
	}
	managed := stringSet(r.record.ManagedLinks)

	var next []model.LinkedResource
	for _, l := range r.project.LinkedResources {
		if managed[l.Name] || desiredNames[l.Name] {
			continue
		}
		next = append(next, l)
	}
	next = append(next, r.desired.LinkedResources...)

	if !sameLinkSet(r.project.LinkedResources, next) {
		if err := r.engine.workspace.SetLinkedResources(r.project.Name, next); err != nil {
			return err
		}
		if err := r.reload(); err != nil {
			return err
		}
	}

	names := linkNames(r.desired.LinkedResources)
	if !sameStringSet(r.record.ManagedLinks, names) {
		r.record.ManagedLinks = names
		return r.saveRecord()
	}
	return nil
}

// derivedFolders recomputes the folder marks from the desired model: every
// nested sub-project folder and the resolved build output folder. Marks are
// replaced wholesale, never accumulated across passes. Folder marks only
// apply to folders that exist on disk.
func (r *reconciliation) derivedFolders() error {
	var subFolders []string
	for _, child := range r.desired.Children {
		rel, ok := relativeChildPath(r.desired.Location, child.Location)
		if !ok {
			continue
		}
		exists, err := r.engine.workspace.FolderExists(r.project.Name, rel)
		if err != nil {
			return err
		}
		if exists {
			subFolders = append(subFolders, rel)
		}
	}

	derived := slices.Clone(subFolders)
	buildFolder, resolved := resolveBuildFolder(r.desired)
	if resolved && !slices.Contains(derived, buildFolder) {
		derived = append(derived, buildFolder)
	}

	if !sameStringSet(r.project.SubProjectFolders, subFolders) {
		if err := r.engine.workspace.SetSubProjectFolders(r.project.Name, subFolders); err != nil {
			return err
		}
	}

	buildMark := ""
	if resolved {
		exists, err := r.engine.workspace.FolderExists(r.project.Name, buildFolder)
		if err != nil {
			return err
		}
		if exists {
			buildMark = buildFolder
		}
	}
	if r.project.BuildFolder != buildMark {
		if err := r.engine.workspace.SetBuildFolder(r.project.Name, buildMark); err != nil {
			return err
		}
	}

	if !sameStringSet(r.project.DerivedFolders, derived) {
		if err := r.engine.workspace.SetDerivedFolders(r.project.Name, derived); err != nil {
			return err
		}
	}
	return r.reload()
}

// java attaches the structured dependency capability when the model
// declares source settings, then converges language levels, source folders
// and the managed dependency container.
func (r *reconciliation) java() error {
	if !r.desired.IsJava() {
		return nil
	}

	cfg, err := r.engine.java.Inspect(r.desired.Location)
	if err != nil {
		return err
	}
	if cfg == nil {
		if err := r.engine.java.Configure(r.desired.Location); err != nil {
			return err
		}
		cfg = &javax.Config{}
	}
	if !r.project.HasNature(workspace.JavaNature) {
		if err := r.engine.workspace.AddNature(r.project.Name, workspace.JavaNature); err != nil {
			return err
		}
		if err := r.reload(); err != nil {
			return err
		}
	}

	if cfg.SourceSettings != *r.desired.SourceSettings {
		if err := r.engine.java.SetSourceSettings(r.desired.Location, *r.desired.SourceSettings); err != nil {
			return err
		}
	}
	if !slices.Equal(cfg.SourceFolders, r.desired.SourceDirectories) {
		if err := r.engine.java.SetSourceFolders(r.desired.Location, r.desired.SourceDirectories); err != nil {
			return err
		}
	}
	if !slices.Equal(cfg.Dependencies, r.desired.Dependencies) {
		if err := r.engine.java.SetDependencies(r.desired.Location, r.desired.Dependencies); err != nil {
			return err
		}
	}
	return nil
}

// natures replaces the natures the engine previously applied with the
// model-declared set; natures recorded by anyone else stay untouched.
func (r *reconciliation) natures() error {
	managed := stringSet(r.record.ManagedNatures)
	desiredSet := stringSet(r.desired.Natures)

	var next []string
	for _, n := range r.project.Natures {
		if managed[n] || desiredSet[n] {
			continue
		}
		next = append(next, n)
	}
	next = append(next, r.desired.Natures...)

	if !sameStringSet(r.project.Natures, next) {
		if err := r.engine.workspace.SetNatures(r.project.Name, next); err != nil {
			return err
		}
		if err := r.reload(); err != nil {
			return err
		}
	}

	if !sameStringSet(r.record.ManagedNatures, r.desired.Natures) {
		r.record.ManagedNatures = slices.Clone(r.desired.Natures)
		return r.saveRecord()
	}
	return nil
}

// buildCommands replaces the build commands the engine previously applied
// with the model-declared sequence, preserving commands owned by others.
func (r *reconciliation) buildCommands() error {
	managed := stringSet(r.record.ManagedCommands)
	desiredNames := make(map[string]bool, len(r.desired.BuildCommands))
	for _, c := range r.desired.BuildCommands {
		desiredNames[c.Name] = true
	}

	var next []model.BuildCommand
	for _, c := range r.project.BuildCommands {
		if managed[c.Name] || desiredNames[c.Name] {
			continue
		}
		next = append(next, c)
	}
	next = append(next, r.desired.BuildCommands...)

	if !sameCommandSeq(r.project.BuildCommands, next) {
		if err := r.engine.workspace.SetBuildCommands(r.project.Name, next); err != nil {
			return err
		}
	}

	names := commandNames(r.desired.BuildCommands)
	if !sameStringSet(r.record.ManagedCommands, names) {
		r.record.ManagedCommands = names
		return r.saveRecord()
	}
	return nil
}

func (r *reconciliation) saveRecord() error {
	r.record.SyncedAt = r.engine.clock.Now()
	if err := r.engine.settings.Write(r.ctx, r.record); err != nil {
		return fmt.Errorf("failed to persist sync record: %w", err)
	}
	return nil
}

func stringSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return maps.Equal(stringSet(a), stringSet(b))
}

func sameLinkSet(a, b []model.LinkedResource) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[model.LinkedResource]bool, len(a))
	for _, l := range a {
		set[l] = true
	}
	for _, l := range b {
		if !set[l] {
			return false
		}
	}
	return true
}

func sameCommandSeq(a, b []model.BuildCommand) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !maps.Equal(a[i].Arguments, b[i].Arguments) {
			return false
		}
	}
	return true
}

func linkNames(links []model.LinkedResource) []string {
	var names []string
	for _, l := range links {
		names = append(names, l.Name)
	}
	return names
}

func commandNames(commands []model.BuildCommand) []string {
	var names []string
	for _, c := range commands {
		names = append(names, c.Name)
	}
	return names
}
