package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwpark/buildsync/internal/engine"
	"github.com/mwpark/buildsync/internal/model"
	"github.com/mwpark/buildsync/internal/workspace"
)

func TestSync_FullCycle(t *testing.T) {
	env := setupTestEngine(t)
	ctx := context.Background()

	rootDir := env.projectDir(t, "app")
	libDir := env.projectDir(t, "app/lib")

	root := &model.Project{
		Name:              "app",
		Location:          rootDir,
		Natures:           []string{"lang.java"},
		SourceSettings:    &model.SourceSettings{SourceLevel: "17", TargetLevel: "17"},
		SourceDirectories: []string{"src/main/java"},
		Dependencies:      []model.Dependency{{Name: "guava", Location: "/cache/guava.jar"}},
		Children: []*model.Project{
			{Name: "lib", Location: libDir},
		},
	}

	result, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: root})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Converged()) != 2 {
		t.Fatalf("expected 2 converged projects, got %+v", result.Outcomes)
	}

	// The workspace contains both projects with the ownership mark.
	app, err := env.workspace.FindByName("app")
	if err != nil || app == nil {
		t.Fatalf("app project missing: %v, %v", app, err)
	}
	if !app.HasNature(workspace.ManagedNature) || !app.HasNature(workspace.JavaNature) {
		t.Errorf("app natures incomplete: %v", app.Natures)
	}
	lib, err := env.workspace.FindByName("lib")
	if err != nil || lib == nil {
		t.Fatalf("lib project missing: %v, %v", lib, err)
	}

	// The parent marks the nested child folder.
	found := false
	for _, f := range app.SubProjectFolders {
		if f == "lib" {
			found = true
		}
	}
	if !found {
		t.Errorf("lib not marked as sub-project folder: %v", app.SubProjectFolders)
	}

	// Descriptors exist at both locations.
	for _, dir := range []string{rootDir, libDir} {
		desc, err := env.workspace.FindDescriptor(dir)
		if err != nil || desc == nil {
			t.Errorf("descriptor missing at %s: %v", dir, err)
		}
	}

	// The sync record attributes both projects to the root.
	for _, dir := range []string{rootDir, libDir} {
		rec, err := env.settings.Read(ctx, dir)
		if err != nil || rec == nil {
			t.Fatalf("sync record missing for %s: %v", dir, err)
		}
		if rec.RootLocation != rootDir {
			t.Errorf("wrong owner root for %s: %q", dir, rec.RootLocation)
		}
	}

	// The java configuration carries the declared settings.
	cfg, err := env.java.Inspect(rootDir)
	if err != nil || cfg == nil {
		t.Fatalf("java configuration missing: %v, %v", cfg, err)
	}
	if cfg.SourceSettings.SourceLevel != "17" {
		t.Errorf("source level not applied: %+v", cfg.SourceSettings)
	}
}

func TestSync_Idempotent(t *testing.T) {
	env := setupTestEngine(t)
	ctx := context.Background()

	root := &model.Project{
		Name:     "app",
		Location: env.projectDir(t, "app"),
		Natures:  []string{"lang.java"},
		BuildCommands: []model.BuildCommand{
			{Name: "compile", Arguments: map[string]string{"target": "all"}},
		},
	}

	if _, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: root}); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	rec, err := env.settings.Read(ctx, root.Location)
	if err != nil || rec == nil {
		t.Fatalf("sync record missing: %v", err)
	}
	firstSyncedAt := rec.SyncedAt

	// A later run over unchanged inputs must not rewrite anything.
	env.clock.Advance(time.Hour)
	result, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: root})
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if result.HasFailures() {
		t.Fatalf("second run failed: %+v", result.Failed())
	}

	rec, err = env.settings.Read(ctx, root.Location)
	if err != nil || rec == nil {
		t.Fatalf("sync record missing after second run: %v", err)
	}
	if !rec.SyncedAt.Equal(firstSyncedAt) {
		t.Errorf("record rewritten on an unchanged run: %v != %v", rec.SyncedAt, firstSyncedAt)
	}
}

func TestSync_DecoupleCycle(t *testing.T) {
	env := setupTestEngine(t)
	ctx := context.Background()

	rootDir := env.projectDir(t, "app")
	libDir := env.projectDir(t, "app/lib")
	full := &model.Project{
		Name:     "app",
		Location: rootDir,
		Children: []*model.Project{{Name: "lib", Location: libDir}},
	}
	if _, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: full}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// Shrink the tree: lib disappears from the model.
	shrunk := &model.Project{Name: "app", Location: rootDir}
	result, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: shrunk})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Decoupled()) != 1 {
		t.Fatalf("expected lib to be decoupled, got %+v", result.Outcomes)
	}

	lib, err := env.workspace.FindByName("lib")
	if err != nil || lib == nil {
		t.Fatalf("decoupled project must stay in the workspace: %v", err)
	}
	if lib.HasNature(workspace.ManagedNature) {
		t.Errorf("ownership mark still present: %v", lib.Natures)
	}
	rec, err := env.settings.Read(ctx, libDir)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if rec != nil {
		t.Errorf("sync record still present: %+v", rec)
	}

	// Growing the tree again re-adopts the same project.
	result, err = env.engine.Sync(ctx, &engine.SyncRequest{Root: full})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Converged()) != 2 {
		t.Fatalf("expected both projects to converge, got %+v", result.Outcomes)
	}
	lib, _ = env.workspace.FindByName("lib")
	if !lib.HasNature(workspace.ManagedNature) {
		t.Errorf("ownership mark not restored: %v", lib.Natures)
	}
}

func TestSync_WorkspaceLocked(t *testing.T) {
	env := setupTestEngine(t)

	release, err := env.workspace.Lock()
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	defer release()

	root := &model.Project{Name: "app", Location: env.projectDir(t, "app")}
	_, err = env.engine.Sync(context.Background(), &engine.SyncRequest{Root: root})
	if !errors.Is(err, workspace.ErrWorkspaceLocked) {
		t.Fatalf("expected ErrWorkspaceLocked, got %v", err)
	}
}

func TestSync_ImportsDescriptorLeftBehind(t *testing.T) {
	env := setupTestEngine(t)
	ctx := context.Background()

	rootDir := env.projectDir(t, "app")
	root := &model.Project{Name: "app", Location: rootDir}

	// First adoption writes a descriptor into the project directory.
	if _, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: root}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if _, err := env.workspace.FindDescriptor(rootDir); err != nil {
		t.Fatalf("descriptor missing: %v", err)
	}

	// Simulate a fresh workspace pointed at the same directory: the
	// descriptor survives and is imported rather than overwritten.
	fresh := setupTestEngine(t)
	result, err := fresh.engine.Sync(ctx, &engine.SyncRequest{Root: root})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Converged()) != 1 {
		t.Fatalf("expected convergence, got %+v", result.Outcomes)
	}
	p, err := fresh.workspace.FindByName("app")
	if err != nil || p == nil {
		t.Fatalf("imported project missing: %v", err)
	}
	if p.Location != rootDir {
		t.Errorf("imported project at wrong location: %q", p.Location)
	}
}

func TestDecouple_ByRoot(t *testing.T) {
	env := setupTestEngine(t)
	ctx := context.Background()

	// Two independent build roots.
	aDir := env.projectDir(t, "a")
	bDir := env.projectDir(t, "b")
	if _, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: &model.Project{Name: "a", Location: aDir}}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if _, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: &model.Project{Name: "b", Location: bDir}}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	result, err := env.engine.Decouple(ctx, aDir)
	if err != nil {
		t.Fatalf("Decouple() error = %v", err)
	}
	if len(result.Decoupled()) != 1 {
		t.Fatalf("expected only a's project, got %+v", result.Outcomes)
	}

	a, _ := env.workspace.FindByName("a")
	if a.HasNature(workspace.ManagedNature) {
		t.Error("a still managed after decouple")
	}
	b, _ := env.workspace.FindByName("b")
	if !b.HasNature(workspace.ManagedNature) {
		t.Error("b lost its ownership mark")
	}
}

func TestSync_StatusPlan(t *testing.T) {
	env := setupTestEngine(t)
	ctx := context.Background()

	rootDir := env.projectDir(t, "app")
	libDir := filepath.Join(env.base, "app", "lib")
	root := &model.Project{
		Name:     "app",
		Location: rootDir,
		Children: []*model.Project{{Name: "lib", Location: libDir}},
	}

	plan, err := env.engine.Plan(ctx, root)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Materialize) != 2 {
		t.Errorf("everything should be missing before the first sync: %+v", plan.Materialize)
	}

	if _, err := env.engine.Sync(ctx, &engine.SyncRequest{Root: root}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	plan, err = env.engine.Plan(ctx, root)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Update) == 0 || len(plan.Decouple) != 0 {
		t.Errorf("unexpected plan after convergence: %+v", plan)
	}
}
