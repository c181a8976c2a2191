// Package tilestore keeps rendered map tiles in a SQLite database keyed by
// region grid coordinates.
package tilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no tile is stored for a region.
var ErrNotFound = errors.New("tilestore: tile not found")

// Tile is one stored map tile.
type Tile struct {
	X          int
	Y          int
	Format     string
	Data       []byte
	RenderedAt time.Time
	// Drawn and Faces are the object-volume counts of the render.
	Drawn int
	Faces int
}

// Info is a tile row without its image bytes.
type Info struct {
	X          int
	Y          int
	Format     string
	Size       int
	RenderedAt time.Time
}

// Store is a SQLite-backed tile store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the tile database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("tilestore: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("tilestore: mkdir %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: open %s: %w", path, err)
	}
	// One writer; batch workers queue on the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tilestore: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tilestore: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tiles (
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			format TEXT NOT NULL,
			data BLOB NOT NULL,
			size INTEGER NOT NULL,
			drawn INTEGER NOT NULL DEFAULT 0,
			faces INTEGER NOT NULL DEFAULT 0,
			rendered_at INTEGER NOT NULL,
			PRIMARY KEY (x, y)
		);`,
		`CREATE INDEX IF NOT EXISTS tiles_rendered_at ON tiles(rendered_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores t, replacing any tile for the same region. A zero RenderedAt
// is stamped with the current time.
func (s *Store) Put(ctx context.Context, t Tile) error {
	if t.RenderedAt.IsZero() {
		t.RenderedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tiles (x, y, format, data, size, drawn, faces, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(x, y) DO UPDATE SET
			format=excluded.format, data=excluded.data, size=excluded.size,
			drawn=excluded.drawn, faces=excluded.faces, rendered_at=excluded.rendered_at`,
		t.X, t.Y, t.Format, t.Data, len(t.Data), t.Drawn, t.Faces, t.RenderedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("tilestore: put %d,%d: %w", t.X, t.Y, err)
	}
	return nil
}

// Get returns the tile for region (x, y) or ErrNotFound.
func (s *Store) Get(ctx context.Context, x, y int) (Tile, error) {
	t := Tile{X: x, Y: y}
	var ms int64
	err := s.db.QueryRowContext(ctx,
		`SELECT format, data, drawn, faces, rendered_at FROM tiles WHERE x=? AND y=?`, x, y,
	).Scan(&t.Format, &t.Data, &t.Drawn, &t.Faces, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return Tile{}, ErrNotFound
	}
	if err != nil {
		return Tile{}, fmt.Errorf("tilestore: get %d,%d: %w", x, y, err)
	}
	t.RenderedAt = time.UnixMilli(ms)
	return t, nil
}

// List returns every stored tile without image data, ordered by region.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, format, size, rendered_at FROM tiles ORDER BY x, y`)
	if err != nil {
		return nil, fmt.Errorf("tilestore: list: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info Info
			ms   int64
		)
		if err := rows.Scan(&info.X, &info.Y, &info.Format, &info.Size, &ms); err != nil {
			return nil, fmt.Errorf("tilestore: list: %w", err)
		}
		info.RenderedAt = time.UnixMilli(ms)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tilestore: list: %w", err)
	}
	return out, nil
}

// Delete removes the tile for region (x, y). Deleting a missing tile
// returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, x, y int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tiles WHERE x=? AND y=?`, x, y)
	if err != nil {
		return fmt.Errorf("tilestore: delete %d,%d: %w", x, y, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
