package safeio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeReadFileWithinRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "bundle"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "bundle", "index.html"), []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs, err := NewSafeFS(root)
	if err != nil {
		t.Fatal(err)
	}
	got, err := fs.SafeReadFile("a/bundle/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ok" {
		t.Fatalf("content: %q", got)
	}
}

func TestSafeReadFileBlocksTraversal(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(outside, "public")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	fs, err := NewSafeFS(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.SafeReadFile("../secret.txt"); err == nil {
		t.Fatal("relative traversal must be rejected")
	}
	if _, err := fs.SafeReadFile(secret); err == nil {
		t.Fatal("absolute path outside the root must be rejected")
	}
}

func TestSafeReadFileBlocksSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(outside, "public")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(secret, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	fs, err := NewSafeFS(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.SafeReadFile("link.txt"); err == nil {
		t.Fatal("symlink escaping the root must be rejected")
	}
}
