// Package store persists the stash tab settings in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver (pure Go)
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite WASM binary
	"github.com/pancsta/sway-stashgrid/internal/logging"
	"github.com/pancsta/sway-stashgrid/internal/types"
)

var ErrNotFound = errors.New("stash tab not found")

const schema = `
CREATE TABLE IF NOT EXISTS stash_tabs (
	name       TEXT PRIMARY KEY,
	in_folder  INTEGER NOT NULL DEFAULT 0,
	tab_type   TEXT NOT NULL DEFAULT 'regular',
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stash_tabs_type ON stash_tabs(tab_type);
`

type Store struct {
	db *sql.DB
}

// Open opens (and creates) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	const dirPerm = 0o750
	log := logging.FromContext(ctx)

	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Str("path", path).Msg("database connection established")

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tab returns the settings of a single tab, or ErrNotFound.
func (s *Store) Tab(ctx context.Context, name string) (types.StashTab, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, in_folder, tab_type FROM stash_tabs WHERE name = ?`, name)

	tab, err := scanTab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StashTab{}, ErrNotFound
	}
	if err != nil {
		return types.StashTab{}, fmt.Errorf("get tab %q: %w", name, err)
	}
	return tab, nil
}

// UpsertTab inserts or replaces the settings of a tab.
func (s *Store) UpsertTab(ctx context.Context, tab types.StashTab) error {
	logging.FromContext(ctx).Debug().
		Str("tab", tab.Name).
		Bool("in_folder", tab.InFolder).
		Stringer("type", tab.TabType).
		Msg("saving stash tab")

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stash_tabs (name, in_folder, tab_type, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			in_folder = excluded.in_folder,
			tab_type = excluded.tab_type,
			updated_at = excluded.updated_at`,
		tab.Name, tab.InFolder, tab.TabType.String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save tab %q: %w", tab.Name, err)
	}
	return nil
}

// Tabs lists all the tabs ordered by name.
func (s *Store) Tabs(ctx context.Context) ([]types.StashTab, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, in_folder, tab_type FROM stash_tabs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	defer rows.Close()

	var ret []types.StashTab
	for rows.Next() {
		tab, err := scanTab(rows)
		if err != nil {
			return nil, fmt.Errorf("list tabs: %w", err)
		}
		ret = append(ret, tab)
	}
	return ret, rows.Err()
}

// QuadTabNames lists the names of the quad tabs.
func (s *Store) QuadTabNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM stash_tabs WHERE tab_type = ? ORDER BY name`, types.Quad.String())
	if err != nil {
		return nil, fmt.Errorf("list quad tabs: %w", err)
	}
	defer rows.Close()

	var ret []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		ret = append(ret, name)
	}
	return ret, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTab(row scanner) (types.StashTab, error) {
	var (
		tab      types.StashTab
		inFolder bool
		tabType  string
	)
	if err := row.Scan(&tab.Name, &inFolder, &tabType); err != nil {
		return tab, err
	}

	typ, err := types.ParseStashTabType(tabType)
	if err != nil {
		return tab, err
	}
	tab.InFolder = inFolder
	tab.TabType = typ
	return tab, nil
}
