//go:build e2e

package e2e_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"go.trai.ch/stashsync/internal/adapters/persist"
	"go.trai.ch/stashsync/internal/core/domain"
)

var stashsyncBinary string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "stashsync-e2e-*")
	if err != nil {
		panic(err)
	}

	stashsyncBinary = filepath.Join(tmpDir, "stashsync")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build", "-o", stashsyncBinary, "./cmd/stashsync")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build stashsync binary: " + err.Error())
	}

	exitCode := m.Run()

	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"snapshot": cmdSnapshot,
		},
	})
}

// cmdSnapshot checks that the cache snapshot file holds an entry for every
// named resource, or with ! that it holds none of them.
//
//	snapshot <file> <resource>...
func cmdSnapshot(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) < 2 {
		ts.Fatalf("usage: snapshot file resource...")
	}

	snap, err := persist.NewFileStore(ts.MkAbs(args[0])).Load(context.Background())
	ts.Check(err)
	if snap == nil {
		ts.Fatalf("%s holds no snapshot", args[0])
	}
	if snap.Version != domain.SnapshotVersion {
		ts.Fatalf("snapshot version %d, want %d", snap.Version, domain.SnapshotVersion)
	}

	held := make(map[domain.ResourceName]bool, len(snap.Entries))
	for _, e := range snap.Entries {
		held[e.Key.Resource] = true
	}
	for _, r := range args[1:] {
		switch has := held[domain.ResourceName(r)]; {
		case has && neg:
			ts.Fatalf("snapshot unexpectedly holds %s", r)
		case !has && !neg:
			ts.Fatalf("snapshot has no entry for %s", r)
		}
	}
}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")
	env.Setenv("STASHSYNC_LOG_JSON", "false")

	binDir := filepath.Dir(stashsyncBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	return nil
}
