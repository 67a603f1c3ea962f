package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"app.json":     `{"expo":{"name":"template","slug":"template"}}`,
		"package.json": `{"name":"template"}`,
		"src/App.js":   "export default null;",
	}
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig() map[string]any {
	return map[string]any{
		"appName": "demo",
		"appFrame": map[string]any{
			"brand": "acme", "mode": "light", "apiBase": "https://api.example.com",
		},
		"components": []any{
			map[string]any{
				"nodeId":        "1:1",
				"componentName": "Section",
				"properties": map[string]any{
					"id": "summary", "sectionType": "main-carousel",
					"isHome": true, "sectionHomeOption": "summary",
				},
			},
			map[string]any{
				"nodeId":        "1:2",
				"componentName": "Section",
				"properties": map[string]any{
					"id": "cards", "sectionType": "slide-panel",
					"isHome": true, "sectionHomeOption": "cards",
				},
			},
			map[string]any{
				"nodeId":        "1:3",
				"componentName": "Section",
				"properties":    map[string]any{"id": "detail"},
			},
		},
	}
}

func TestExecuteBuildLocal(t *testing.T) {
	out := t.TempDir()
	res := ExecuteBuild(Options{
		BuildType:   BuildLocal,
		RawConfig:   testConfig(),
		OutputBase:  out,
		TemplateDir: testTemplate(t),
	})
	if !res.Success {
		t.Fatalf("build failed: %s / %s", res.Error, res.Details)
	}
	if res.OutputPath != filepath.Join(out, "demo") {
		t.Fatalf("output path: %q", res.OutputPath)
	}
	// 3 routes: routes*2 + 3 router files.
	if res.Summary.GeneratedFiles != 3*2+3 {
		t.Fatalf("generatedFiles = %d, want 9", res.Summary.GeneratedFiles)
	}
	for _, rel := range []string{
		"src/modules/summary.js",
		"src/modules/cards.js",
		"src/modules/detail.js",
		"src/navigation/carouselRoutes.js",
		"src/navigation/bottomNavRoutes.js",
		"src/navigation/childRoutes.js",
		"app.json",
	} {
		if _, err := os.Stat(filepath.Join(res.OutputPath, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
}

func TestExecuteBuildDuplicateIDsWarnInsteadOfFailing(t *testing.T) {
	cfg := testConfig()
	cfg["components"] = append(cfg["components"].([]any), map[string]any{
		"nodeId":        "1:4",
		"componentName": "Section",
		"properties":    map[string]any{"id": "detail"},
	})

	res := ExecuteBuild(Options{
		BuildType:   BuildLocal,
		RawConfig:   cfg,
		OutputBase:  t.TempDir(),
		TemplateDir: testTemplate(t),
	})
	if !res.Success {
		t.Fatalf("duplicate ids must not fail the build: %s / %s", res.Error, res.Details)
	}
	// Still 3 unique routes after dedup.
	if res.Summary.GeneratedFiles != 3*2+3 {
		t.Fatalf("generatedFiles = %d, want 9", res.Summary.GeneratedFiles)
	}
	found := false
	for _, w := range res.Summary.Warnings {
		if strings.Contains(w, "duplicate component id") {
			found = true
		}
	}
	if !found {
		t.Fatalf("duplicate-id warning missing: %v", res.Summary.Warnings)
	}
}

func TestExecuteBuildDryRun(t *testing.T) {
	res := ExecuteBuild(Options{
		BuildType:  BuildLocal,
		RawConfig:  testConfig(),
		OutputBase: t.TempDir(),
		// No template dir: a dry run must not touch the filesystem.
		DryRun: true,
	})
	if !res.Success {
		t.Fatalf("dry run failed: %s / %s", res.Error, res.Details)
	}
	if res.Summary.GeneratedFiles != 9 {
		t.Fatalf("estimate = %d, want 9", res.Summary.GeneratedFiles)
	}
	if _, err := os.Stat(res.OutputPath); !os.IsNotExist(err) {
		t.Fatal("dry run must not create the output directory")
	}
}

func TestExecuteBuildValidationFailure(t *testing.T) {
	cfg := testConfig()
	delete(cfg, "appFrame")
	res := ExecuteBuild(Options{
		BuildType:  BuildLocal,
		RawConfig:  cfg,
		OutputBase: t.TempDir(),
	})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "config validation failed" {
		t.Fatalf("error: %q", res.Error)
	}
	if len(res.ValidationErrors) == 0 {
		t.Fatal("validation errors must be attached")
	}
}

func TestPrototypeOutputPathSanitized(t *testing.T) {
	opts := Options{
		BuildType:     BuildPrototype,
		PublicRoot:    "/public/prototypes",
		AppName:       "My App!",
		FigmaFileName: "Design File (v2)",
		FigmaPageName: "Page 1",
	}
	got, err := opts.OutputPath()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/public/prototypes", "design-file--v2-", "page-1", "my-app-", "temp")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"My App":       "my-app",
		"file_v2":      "file_v2",
		"Hello World!": "hello-world-",
		"UPPER":        "upper",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
