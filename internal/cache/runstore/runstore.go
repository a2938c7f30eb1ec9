// Package runstore records completed analysis runs. It writes to Postgres
// when CARTOGRAPH_PG_DSN is set and falls back to a local JSON file
// otherwise, so the CLI works without any infrastructure.
package runstore

import (
	"database/sql"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Run is one completed analysis.
type Run struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"project_name"`
	Root        string    `json:"root"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	TotalFiles  int       `json:"total_files"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
}

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	runs     []Run

	schemaOnce sync.Once
	schemaErr  error
}

func New(path string) *Store {
	return &Store{path: path}
}

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

// NewFromEnv prefers Postgres via CARTOGRAPH_PG_DSN and falls back to the
// JSON file at path when the DSN is absent or unreachable.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("CARTOGRAPH_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Record(run Run) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.recordDB(run)
	}
	return s.recordFile(run)
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if s.db != nil {
		return s.recentDB(limit)
	}
	return s.recentFile(limit), nil
}
