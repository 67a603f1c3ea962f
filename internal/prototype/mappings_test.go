package prototype

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStorePutGet(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "mappings.json"))
	m := Mapping{Path: "design/page/app", FigmaFileID: "fig-1", CreatedAt: time.Now()}
	if err := s.Put("uuid-1", m); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get("uuid-1")
	if !ok {
		t.Fatal("mapping not found")
	}
	if got.Path != "design/page/app" || got.FigmaFileID != "fig-1" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("unknown uuid must not be found")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	s := NewStore(path)
	if err := s.Put("uuid-1", Mapping{Path: "a/b/c", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.IncrementViews("uuid-1"); !ok {
		t.Fatal("increment failed")
	}

	reopened := NewStore(path)
	got, ok := reopened.Get("uuid-1")
	if !ok {
		t.Fatal("mapping lost across reopen")
	}
	if got.Views != 1 {
		t.Fatalf("views = %d, want 1", got.Views)
	}
	if got.LastViewed == nil {
		t.Fatal("lastViewed must be persisted")
	}
}

func TestConcurrentIncrementsCountExactly(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "mappings.json"))
	if err := s.Put("uuid-1", Mapping{Path: "a/b/c", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.IncrementViews("uuid-1"); !ok {
				t.Error("increment failed")
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get("uuid-1")
	if got.Views != 10 {
		t.Fatalf("views = %d, want exactly 10", got.Views)
	}
}

func TestIncrementUnknownUUID(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "mappings.json"))
	if _, ok := s.IncrementViews("nope"); ok {
		t.Fatal("increment of unknown uuid must fail")
	}
}
