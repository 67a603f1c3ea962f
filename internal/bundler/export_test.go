package bundler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportAdapterCopiesDist(t *testing.T) {
	project := t.TempDir()
	out := filepath.Join(t.TempDir(), "bundle")
	if err := os.MkdirAll(filepath.Join(project, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}

	orig := runExportCommand
	defer func() { runExportCommand = orig }()
	var gotArgv []string
	runExportCommand = func(ctx context.Context, dir string, argv []string) error {
		gotArgv = argv
		dist := filepath.Join(dir, "dist")
		if err := os.MkdirAll(dist, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html></html>"), 0o644)
	}

	a := &ExportAdapter{}
	if err := a.Bundle(context.Background(), project, out, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); err != nil {
		t.Fatalf("dist not copied: %v", err)
	}
	if len(gotArgv) == 0 || gotArgv[0] != "npx" {
		t.Fatalf("unexpected argv: %v", gotArgv)
	}
}

func TestExportAdapterCopiesSharedNodeModules(t *testing.T) {
	project := t.TempDir()
	shared := t.TempDir()
	if err := os.WriteFile(filepath.Join(shared, "react.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	orig := runExportCommand
	defer func() { runExportCommand = orig }()
	runExportCommand = func(ctx context.Context, dir string, argv []string) error {
		if _, err := os.Stat(filepath.Join(dir, "node_modules", "react.js")); err != nil {
			t.Errorf("node_modules missing before export: %v", err)
		}
		return os.MkdirAll(filepath.Join(dir, "dist"), 0o755)
	}

	a := &ExportAdapter{NodeModulesDir: shared}
	if err := a.Bundle(context.Background(), project, t.TempDir(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestExportAdapterWithoutDependencies(t *testing.T) {
	a := &ExportAdapter{}
	err := a.Bundle(context.Background(), t.TempDir(), t.TempDir(), nil)
	if err == nil || !strings.Contains(err.Error(), "node_modules") {
		t.Fatalf("expected missing node_modules error, got %v", err)
	}
}

func TestFindEntryProbeOrder(t *testing.T) {
	dir := t.TempDir()
	if _, err := findEntry(dir); err == nil {
		t.Fatal("empty project must have no entry point")
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "index.tsx"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.js"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := findEntry(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "index.js") {
		t.Fatalf("probe order broken: %q", got)
	}
}

func TestESBuildAdapterBundlesPlainProject(t *testing.T) {
	project := t.TempDir()
	out := filepath.Join(t.TempDir(), "bundle")
	src := `const greeting = "hello";
document.title = greeting;
`
	if err := os.WriteFile(filepath.Join(project, "index.js"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	a := &ESBuildAdapter{}
	if err := a.Bundle(context.Background(), project, out, nil); err != nil {
		t.Fatal(err)
	}
	bundle, err := os.ReadFile(filepath.Join(out, "bundle.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bundle), "hello") {
		t.Fatal("bundle does not contain the source")
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); err != nil {
		t.Fatalf("html wrapper missing: %v", err)
	}
}
