package prototype

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Mapping is the persisted record behind one shareable prototype UUID.
type Mapping struct {
	Path        string     `json:"path"`
	FigmaFileID string     `json:"figmaFileId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Views       int64      `json:"views"`
	LastViewed  *time.Time `json:"lastViewed,omitempty"`
}

// Store maps prototype UUIDs to their public directory. The default backend
// is a single mappings.json file; setting MAPPINGS_PG_DSN switches to
// Postgres. All mutations are serialized through the store, so concurrent
// view increments never lose updates.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.Mutex
	byUUID   map[string]Mapping

	schemaOnce sync.Once
	schemaErr  error
}

// NewStore opens a file-backed store at path (e.g. public/prototypes/mappings.json).
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		byUUID: map[string]Mapping{},
	}
}

// NewPostgres opens a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewFromEnv picks the backend: Postgres when MAPPINGS_PG_DSN is set and
// reachable, the mappings file otherwise.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("MAPPINGS_PG_DSN"))
	if dsn == "" {
		return NewStore(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		log.Printf("mappings: postgres unavailable (%v), falling back to %s", err, path)
		return NewStore(path)
	}
	return s
}

// Put registers a new mapping under uuid.
func (s *Store) Put(uuid string, m Mapping) error {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return fmt.Errorf("uuid is required")
	}
	if s.db != nil {
		return s.putDB(uuid, m)
	}
	return s.putFile(uuid, m)
}

// Get returns the mapping for uuid, if known.
func (s *Store) Get(uuid string) (Mapping, bool) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return Mapping{}, false
	}
	if s.db != nil {
		return s.getDB(uuid)
	}
	return s.getFile(uuid)
}

// IncrementViews bumps the view counter and the last-viewed timestamp.
// The whole read-modify-write runs under the store's lock (or a single SQL
// statement), so N concurrent increments always count N.
func (s *Store) IncrementViews(uuid string) (Mapping, bool) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return Mapping{}, false
	}
	if s.db != nil {
		return s.incrementDB(uuid)
	}
	return s.incrementFile(uuid)
}

// --- file backend -----------------------------------------------------------

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var byUUID map[string]Mapping
		if err := json.Unmarshal(raw, &byUUID); err != nil {
			log.Printf("mappings: %s is corrupt (%v), starting empty", s.path, err)
			return
		}
		s.mu.Lock()
		s.byUUID = byUUID
		s.mu.Unlock()
	})
}

func (s *Store) putFile(uuid string, m Mapping) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUUID[uuid] = m
	return s.saveLocked()
}

func (s *Store) getFile(uuid string) (Mapping, bool) {
	s.ensureLoadedFile()
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byUUID[uuid]
	return m, ok
}

func (s *Store) incrementFile(uuid string) (Mapping, bool) {
	s.ensureLoadedFile()
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byUUID[uuid]
	if !ok {
		return Mapping{}, false
	}
	now := time.Now()
	m.Views++
	m.LastViewed = &now
	s.byUUID[uuid] = m
	if err := s.saveLocked(); err != nil {
		log.Printf("mappings: persist failed: %v", err)
	}
	return m, true
}

// saveLocked writes the whole mappings file atomically (tmp + rename).
func (s *Store) saveLocked() error {
	raw, err := json.MarshalIndent(s.byUUID, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// --- postgres backend -------------------------------------------------------

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
			CREATE TABLE IF NOT EXISTS prototype_mappings (
				uuid          TEXT PRIMARY KEY,
				path          TEXT NOT NULL,
				figma_file_id TEXT NOT NULL DEFAULT '',
				created_at    TIMESTAMPTZ NOT NULL,
				views         BIGINT NOT NULL DEFAULT 0,
				last_viewed   TIMESTAMPTZ
			)`)
	})
	return s.schemaErr
}

func (s *Store) putDB(uuid string, m Mapping) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO prototype_mappings (uuid, path, figma_file_id, created_at, views, last_viewed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uuid) DO UPDATE SET
			path = EXCLUDED.path,
			figma_file_id = EXCLUDED.figma_file_id`,
		uuid, m.Path, m.FigmaFileID, m.CreatedAt, m.Views, m.LastViewed)
	return err
}

func (s *Store) getDB(uuid string) (Mapping, bool) {
	if err := s.ensureSchema(); err != nil {
		return Mapping{}, false
	}
	var m Mapping
	err := s.db.QueryRow(`
		SELECT path, figma_file_id, created_at, views, last_viewed
		FROM prototype_mappings WHERE uuid = $1`, uuid).
		Scan(&m.Path, &m.FigmaFileID, &m.CreatedAt, &m.Views, &m.LastViewed)
	if err != nil {
		return Mapping{}, false
	}
	return m, true
}

func (s *Store) incrementDB(uuid string) (Mapping, bool) {
	if err := s.ensureSchema(); err != nil {
		return Mapping{}, false
	}
	var m Mapping
	err := s.db.QueryRow(`
		UPDATE prototype_mappings
		SET views = views + 1, last_viewed = NOW()
		WHERE uuid = $1
		RETURNING path, figma_file_id, created_at, views, last_viewed`, uuid).
		Scan(&m.Path, &m.FigmaFileID, &m.CreatedAt, &m.Views, &m.LastViewed)
	if err != nil {
		return Mapping{}, false
	}
	return m, true
}
