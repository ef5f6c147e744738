package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwpark/buildsync/internal/clock"
	"github.com/mwpark/buildsync/internal/engine"
	"github.com/mwpark/buildsync/internal/fsops"
	"github.com/mwpark/buildsync/internal/javax"
	"github.com/mwpark/buildsync/internal/settings"
	"github.com/mwpark/buildsync/internal/workspace"
)

// testEnv wires the engine to the real disk-backed stores under a
// throwaway directory, the same way the CLI does.
type testEnv struct {
	engine    *engine.Engine
	workspace *workspace.DiskStore
	settings  *settings.SQLiteStore
	java      *javax.DiskService
	clock     *clock.FakeClock

	// base holds the project directories of the test
	base string
}

func setupTestEngine(t *testing.T) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	registry := filepath.Join(dataDir, "registry")
	javaDir := filepath.Join(dataDir, "java")
	for _, dir := range []string{registry, javaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	fs := fsops.NewRealFS()
	ws := workspace.NewDiskStore(fs, registry)
	java := javax.NewDiskService(fs, javaDir)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	st, err := settings.OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open settings store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return &testEnv{
		engine:    engine.New(ws, st, java, fs, clk),
		workspace: ws,
		settings:  st,
		java:      java,
		clock:     clk,
		base:      t.TempDir(),
	}
}

// projectDir creates (if needed) and returns a project directory under the
// test's base directory.
func (e *testEnv) projectDir(t *testing.T, rel string) string {
	t.Helper()
	dir := filepath.Join(e.base, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	return dir
}
