package bundler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ProgressFunc receives step-level progress while a bundle is produced.
// Adapters call it with coarse percentages; nil is allowed.
type ProgressFunc func(percent int, step string)

func (f ProgressFunc) report(percent int, step string) {
	if f != nil {
		f(percent, step)
	}
}

// Adapter turns an assembled project directory into browser-servable
// artifacts under outDir. Implementations are interchangeable; the
// prototype builder picks one by configuration.
type Adapter interface {
	Name() string
	Bundle(ctx context.Context, projectDir, outDir string, progress ProgressFunc) error
}

// copyDir copies src into dst recursively, preserving relative layout.
// Symlinks are skipped; bundle trees should not contain any.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
