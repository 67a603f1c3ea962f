package codegen

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"appforge/internal/routes"
)

// RouterFiles are the three navigation tables every generated app carries.
var RouterFiles = []string{"carouselRoutes.js", "bottomNavRoutes.js", "childRoutes.js"}

// GenerateRouters writes the three router definition files into navDir,
// importing every generated screen module and exporting ordered route
// tables in the order categorisation established. Each file is attempted
// independently.
func GenerateRouters(c *routes.Categorised, navDir, modulesDir string) *GenResult {
	res := &GenResult{}
	if err := os.MkdirAll(navDir, 0o755); err != nil {
		res.Failed = append(res.Failed, FileFailure{Path: navDir, Err: err.Error()})
		return res
	}

	importBase, err := moduleImportBase(navDir, modulesDir)
	if err != nil {
		res.Failed = append(res.Failed, FileFailure{Path: navDir, Err: err.Error()})
		return res
	}

	write := func(file, exportName string, list []routes.Route, synthetic []string) {
		p := filepath.Join(navDir, file)
		res.record(p, os.WriteFile(p, []byte(routerSource(exportName, list, synthetic, importBase)), 0o644))
	}

	write("carouselRoutes.js", "carouselRoutes", c.Carousel, nil)
	// The synthetic home entry carries no component: selecting it shows the
	// carousel itself.
	write("bottomNavRoutes.js", "bottomNavRoutes", c.BottomNav,
		[]string{"  { id: 'home', name: 'Home', type: 'tab', component: null },"})
	write("childRoutes.js", "childRoutes", c.Child, nil)
	return res
}

// moduleImportBase computes the module import prefix as seen from the
// router directory, e.g. "../modules".
func moduleImportBase(navDir, modulesDir string) (string, error) {
	rel, err := filepath.Rel(navDir, modulesDir)
	if err != nil {
		return "", fmt.Errorf("module import path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

func routerSource(exportName string, list []routes.Route, synthetic []string, importBase string) string {
	var b strings.Builder
	b.WriteString(generatedHeader)

	seen := map[string]struct{}{}
	for _, route := range list {
		name := PascalCase(route.ID)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		b.WriteString("import " + name + " from '" + path.Join(importBase, KebabCase(route.ID)) + "';\n")
	}

	b.WriteString("\nexport const " + exportName + " = [\n")
	for _, line := range synthetic {
		b.WriteString(line + "\n")
	}
	for _, route := range list {
		b.WriteString("  { id: " + jsString(route.RouteID) + ", name: " + jsString(route.Name))
		if route.Title != "" {
			b.WriteString(", title: " + jsString(route.Title))
		}
		if route.Type != "" {
			b.WriteString(", type: " + jsString(string(route.Type)))
		}
		b.WriteString(", component: " + PascalCase(route.ID) + " },\n")
	}
	b.WriteString("];\n")
	return b.String()
}

func jsString(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}
