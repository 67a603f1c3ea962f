package codegen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"appforge/internal/appconfig"
	"appforge/internal/routes"
)

func TestPascalCase(t *testing.T) {
	cases := map[string]string{
		"account-summary": "AccountSummary",
		"summary":         "Summary",
		"core_journey":    "CoreJourney",
		"2fa-setup":       "Screen2FaSetup",
		"":                "Screen",
	}
	for in, want := range cases {
		if got := PascalCase(in); got != want {
			t.Errorf("PascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKebabCase(t *testing.T) {
	cases := map[string]string{
		"AccountSummary": "account-summary",
		"summary":        "summary",
		"core_journey":   "core-journey",
		"My App":         "my-app",
	}
	for in, want := range cases {
		if got := KebabCase(in); got != want {
			t.Errorf("KebabCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func sampleRoutes() *routes.Categorised {
	comp := func(id string) *appconfig.NormalisedComponent {
		return &appconfig.NormalisedComponent{
			ID:          id,
			Name:        id,
			SectionType: appconfig.SectionSlide,
			Properties:  map[string]any{"heading": id},
		}
	}
	return &routes.Categorised{
		Carousel: []routes.Route{
			{ID: "c-summary", RouteID: "summary", Name: "Summary", Component: comp("c-summary")},
		},
		BottomNav: []routes.Route{
			{ID: "t-cards", RouteID: "cards", Name: "Cards", Type: routes.TypeTab, Component: comp("t-cards")},
		},
		Child: []routes.Route{
			{ID: "detail", RouteID: "detail", Name: "Detail", Title: "Detail view", Type: routes.TypeSlide, Component: comp("detail")},
		},
	}
}

func TestGenerateModulesAndRouters(t *testing.T) {
	out := t.TempDir()
	modulesDir := filepath.Join(out, "src", "modules")
	navDir := filepath.Join(out, "src", "navigation")

	cat := sampleRoutes()
	all := cat.AllRoutes()

	modRes := GenerateModules(all, modulesDir)
	if !modRes.OK() {
		t.Fatalf("module generation failed: %+v", modRes.Failed)
	}
	if len(modRes.Written) != len(all) {
		t.Fatalf("wrote %d modules, want %d", len(modRes.Written), len(all))
	}

	routerRes := GenerateRouters(cat, navDir, modulesDir)
	if !routerRes.OK() {
		t.Fatalf("router generation failed: %+v", routerRes.Failed)
	}
	if len(routerRes.Written) != 3 {
		t.Fatalf("wrote %d routers, want 3", len(routerRes.Written))
	}

	if err := VerifyGenerated(append(modRes.Written, routerRes.Written...)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := VerifyRouterImports(filepath.Join(navDir, "carouselRoutes.js"), 1); err != nil {
		t.Fatalf("carousel imports: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(navDir, "bottomNavRoutes.js"))
	if err != nil {
		t.Fatal(err)
	}
	src := string(raw)
	if !strings.Contains(src, "{ id: 'home', name: 'Home', type: 'tab', component: null },") {
		t.Fatalf("synthetic home entry missing:\n%s", src)
	}
	homeIdx := strings.Index(src, "id: 'home'")
	cardsIdx := strings.Index(src, "id: 'cards'")
	if homeIdx < 0 || cardsIdx < 0 || homeIdx > cardsIdx {
		t.Fatalf("home entry must come first:\n%s", src)
	}
	if !strings.Contains(src, "import TCards from '../modules/t-cards';") {
		t.Fatalf("module import wrong:\n%s", src)
	}

	modSrc, err := os.ReadFile(filepath.Join(modulesDir, "detail.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(modSrc), "export default function Detail()") {
		t.Fatalf("module component name wrong:\n%s", modSrc)
	}
	if !strings.Contains(string(modSrc), "ScreenBuilder config={config}") {
		t.Fatalf("module must render ScreenBuilder:\n%s", modSrc)
	}
}

func TestGenerateModulesIsolatesFailures(t *testing.T) {
	out := t.TempDir()
	modulesDir := filepath.Join(out, "mods")
	if err := os.MkdirAll(filepath.Join(modulesDir, "blocked.js"), 0o755); err != nil {
		t.Fatal(err)
	}
	all := []routes.Route{
		{ID: "blocked", RouteID: "blocked", Name: "Blocked"},
		{ID: "fine", RouteID: "fine", Name: "Fine"},
	}
	res := GenerateModules(all, modulesDir)
	if len(res.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %+v", res.Failed)
	}
	if len(res.Written) != 1 || !strings.HasSuffix(res.Written[0], "fine.js") {
		t.Fatalf("one file must still be written, got %+v", res.Written)
	}
}

func TestCopyTemplateSkipsArtifactsAndRewritesManifest(t *testing.T) {
	template := t.TempDir()
	out := filepath.Join(t.TempDir(), "app")

	mustWrite := func(rel, content string) {
		p := filepath.Join(template, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("app.json", `{"expo":{"name":"template","slug":"template"}}`)
	mustWrite("package.json", `{"name":"template"}`)
	mustWrite("package-lock.json", `{}`)
	mustWrite("node_modules/react/index.js", "module.exports = {};")
	mustWrite("src/App.js", "export default null;")

	res, err := CopyTemplate(template, out, "My Bank")
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if res.CopiedFiles != 3 {
		t.Fatalf("copied %d files, want 3", res.CopiedFiles)
	}
	if _, err := os.Stat(filepath.Join(out, "node_modules")); !os.IsNotExist(err) {
		t.Fatal("node_modules must be skipped")
	}
	if _, err := os.Stat(filepath.Join(out, "package-lock.json")); !os.IsNotExist(err) {
		t.Fatal("lockfiles must be skipped")
	}

	raw, err := os.ReadFile(filepath.Join(out, "app.json"))
	if err != nil {
		t.Fatal(err)
	}
	var manifest struct {
		Expo struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"expo"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatal(err)
	}
	if manifest.Expo.Name != "My Bank" || manifest.Expo.Slug != "my-bank" {
		t.Fatalf("manifest rewrite wrong: %+v", manifest)
	}
}
