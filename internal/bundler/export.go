package bundler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultExportTimeout bounds the export subprocess wall-clock time.
const DefaultExportTimeout = 5 * time.Minute

// runExportCommand executes the export CLI in dir. Kept as a variable so
// tests can substitute a fake.
var runExportCommand = func(ctx context.Context, dir string, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("export timed out: %s", bytes.TrimSpace(stderr.Bytes()))
		}
		return fmt.Errorf("export failed: %v: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// ExportAdapter shells out to the Expo static-export CLI. The project needs
// a dependency tree first, so a pre-installed node_modules is copied in
// when the project lacks one.
type ExportAdapter struct {
	// NodeModulesDir is a pre-installed dependency tree shared across
	// builds. Empty means the project must already have node_modules.
	NodeModulesDir string
	// Command overrides the export argv; empty uses the expo default.
	Command []string
	// Timeout bounds the subprocess; zero uses DefaultExportTimeout.
	Timeout time.Duration
}

func (a *ExportAdapter) Name() string { return "expo-export" }

func (a *ExportAdapter) Bundle(ctx context.Context, projectDir, outDir string, progress ProgressFunc) error {
	modules := filepath.Join(projectDir, "node_modules")
	if _, err := os.Stat(modules); os.IsNotExist(err) {
		if a.NodeModulesDir == "" {
			return fmt.Errorf("project has no node_modules and no shared tree is configured")
		}
		progress.report(10, "copying dependencies")
		if err := copyDir(a.NodeModulesDir, modules); err != nil {
			return fmt.Errorf("copy node_modules: %w", err)
		}
	}

	argv := a.Command
	if len(argv) == 0 {
		argv = []string{"npx", "expo", "export", "--platform", "web", "--output-dir", "dist"}
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultExportTimeout
	}

	progress.report(30, "running export")
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := runExportCommand(ctx, projectDir, argv); err != nil {
		return err
	}

	dist := filepath.Join(projectDir, "dist")
	if _, err := os.Stat(dist); err != nil {
		return fmt.Errorf("export produced no dist directory: %w", err)
	}
	progress.report(80, "copying bundle")
	if err := copyDir(dist, outDir); err != nil {
		return fmt.Errorf("copy dist: %w", err)
	}
	return nil
}
