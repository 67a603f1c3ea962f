package codegen

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"appforge/internal/util/jsonutil"
)

// Directory and file names never copied from the base template. Build
// artifacts and lockfiles belong to the template checkout, not to a
// generated app.
var (
	skipDirs  = map[string]struct{}{"node_modules": {}, "dist": {}, "build": {}, ".expo": {}, ".git": {}}
	skipFiles = map[string]struct{}{"package-lock.json": {}, "yarn.lock": {}, "pnpm-lock.yaml": {}}
)

// CopyResult reports what the template copy did.
type CopyResult struct {
	CopiedFiles int
}

// CopyTemplate materialises the base project skeleton into outDir and
// rewrites the project manifest name to appName. A failure mid-walk leaves
// already-copied files on disk; the orchestrator reports the failure and
// does not roll back.
func CopyTemplate(templateDir, outDir, appName string) (*CopyResult, error) {
	info, err := os.Stat(templateDir)
	if err != nil {
		return nil, fmt.Errorf("template dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template dir %s is not a directory", templateDir)
	}

	res := &CopyResult{}
	err = filepath.WalkDir(templateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(templateDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(outDir, 0o755)
		}
		name := d.Name()
		if d.IsDir() {
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(outDir, rel), 0o755)
		}
		if _, skip := skipFiles[name]; skip {
			return nil
		}
		if err := copyFile(path, filepath.Join(outDir, rel)); err != nil {
			return err
		}
		res.CopiedFiles++
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("copy template: %w", err)
	}

	if err := rewriteManifestName(filepath.Join(outDir, "app.json"), appName); err != nil {
		return res, err
	}
	return res, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// rewriteManifestName sets the app name and slug in the copied app.json.
// A template without a manifest is fine; a malformed one is not.
func rewriteManifestName(manifestPath, appName string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read manifest: %w", err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	if expo, ok := manifest["expo"].(map[string]any); ok {
		expo["name"] = appName
		expo["slug"] = KebabCase(appName)
	} else {
		manifest["name"] = appName
	}

	out, err := jsonutil.MarshalNoEscapeIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, append(out, '\n'), 0o644)
}
