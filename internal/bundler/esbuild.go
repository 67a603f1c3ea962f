package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// entryCandidates is the probe order for the project entry point.
var entryCandidates = []string{"index.js", "index.tsx", "App.tsx", "src/index.tsx"}

// ESBuildAdapter bundles the generated project in-process. It targets the
// browser and patches a handful of native-only import paths that the
// generated template drags in but that cannot run on web.
type ESBuildAdapter struct {
	// Minify controls whitespace/identifier minification of the output.
	Minify bool
}

func (a *ESBuildAdapter) Name() string { return "esbuild" }

func (a *ESBuildAdapter) Bundle(ctx context.Context, projectDir, outDir string, progress ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// esbuild requires absolute working and output paths.
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return err
	}
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return err
	}
	entry, err := findEntry(projectDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}

	progress.report(10, "bundling application")
	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Outfile:           filepath.Join(outDir, "bundle.js"),
		Write:             true,
		AbsWorkingDir:     projectDir,
		Platform:          api.PlatformBrowser,
		Format:            api.FormatIIFE,
		Target:            api.ES2018,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  a.Minify,
		MinifyIdentifiers: a.Minify,
		Loader: map[string]api.Loader{
			".js":  api.LoaderJSX,
			".jsx": api.LoaderJSX,
			".ts":  api.LoaderTS,
			".tsx": api.LoaderTSX,
			".png": api.LoaderDataURL,
			".jpg": api.LoaderDataURL,
			".svg": api.LoaderText,
			".ttf": api.LoaderDataURL,
		},
		Define: map[string]string{
			"process.env.NODE_ENV": `"production"`,
			"__DEV__":              "false",
		},
		Alias: map[string]string{
			"react-native": "react-native-web",
		},
		Plugins: []api.Plugin{patchPlugin()},
	})
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild: %s", formatMessages(result.Errors))
	}

	progress.report(80, "writing bundle wrapper")
	if err := writeBundleHTML(outDir); err != nil {
		return err
	}
	return nil
}

func findEntry(projectDir string) (string, error) {
	for _, candidate := range entryCandidates {
		p := filepath.Join(projectDir, candidate)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no bundle entry point found in %s (tried %s)",
		projectDir, strings.Join(entryCandidates, ", "))
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%s:%d: %s", m.Location.File, m.Location.Line, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}

// patchRule declares one import rewrite. Rules resolve matching import
// paths into a private namespace whose loader serves the replacement
// source, so no file on disk is ever modified.
type patchRule struct {
	name      string
	filter    string // import-path regex handed to OnResolve
	importer  string // only applies when the importer path contains this
	namespace string
	contents  string
}

var patchRules = []patchRule{
	{
		// The SVG library imports bare react-native for its native-module
		// registry; on web that registry must exist but can be empty.
		name:      "svg-native-shim",
		filter:    `^react-native$`,
		importer:  "react-native-svg",
		namespace: "rn-web-shim",
		contents: `export * from 'react-native-web';
export { default } from 'react-native-web';
export const NativeModules = new Proxy({}, { get: () => ({}) });
`,
	},
	{
		// Ships CommonJS with no default export marker; re-wrap it so
		// default imports in the template keep working.
		name:      "cjs-interop",
		filter:    `^deprecated-react-native-prop-types$`,
		namespace: "cjs-interop",
		contents: `const mod = require('deprecated-react-native-prop-types/index.js');
module.exports = mod && mod.__esModule ? mod : Object.assign({ default: mod }, mod);
`,
	},
	{
		// Native-only internals have no web equivalent at all; stub them
		// with a proxy that answers every access with a no-op.
		name:      "native-stub",
		filter:    `^(react-native/Libraries/|@react-native/|expo-asset$)`,
		namespace: "native-stub",
		contents: `module.exports = new Proxy({}, { get: () => () => null });
`,
	},
}

func patchPlugin() api.Plugin {
	return api.Plugin{
		Name: "native-import-patches",
		Setup: func(build api.PluginBuild) {
			for _, rule := range patchRules {
				rule := rule
				build.OnResolve(api.OnResolveOptions{Filter: rule.filter},
					func(args api.OnResolveArgs) (api.OnResolveResult, error) {
						// Requires issued from inside a patched module go
						// through normal resolution.
						if args.Namespace == rule.namespace {
							return api.OnResolveResult{}, nil
						}
						if rule.importer != "" && !strings.Contains(args.Importer, rule.importer) {
							return api.OnResolveResult{}, nil
						}
						return api.OnResolveResult{
							Path:       args.Path,
							Namespace:  rule.namespace,
							PluginData: args.ResolveDir,
						}, nil
					})
				contents := rule.contents
				build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: rule.namespace},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						res := api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}
						if dir, ok := args.PluginData.(string); ok {
							res.ResolveDir = dir
						}
						return res, nil
					})
			}
		},
	}
}

// writeBundleHTML emits the static page that loads bundle.js; the viewer
// iframe points here.
func writeBundleHTML(outDir string) error {
	const page = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>App</title>
<style>html, body, #root { margin: 0; height: 100%; }</style>
</head>
<body>
<div id="root"></div>
<script src="./bundle.js"></script>
</body>
</html>
`
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), []byte(page), 0o644); err != nil {
		return fmt.Errorf("write bundle html: %w", err)
	}
	return nil
}
