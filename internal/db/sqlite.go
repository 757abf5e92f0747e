package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps video metadata in a local SQLite file. It uses the same
// schema and migrations as the Postgres store.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single writer; keeps :memory: databases on one connection as well.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		slog.Warn("failed to close sqlite db", "path", s.path, "error", err)
	}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, "sqlite3")
}

func (s *SQLiteStore) VideoExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM videos WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup video %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLiteStore) InsertVideo(ctx context.Context, arg *InsertVideoParams) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, title, description, created_date, hls_path, thumbnail_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Title, nullString(arg.Description), nullTime(arg.CreatedDate), arg.HlsPath, arg.ThumbnailPath,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("insert video %s: %w: %w", arg.ID, ErrDuplicateVideo, err)
		}
		return fmt.Errorf("insert video %s: %w", arg.ID, err)
	}
	return nil
}

func (s *SQLiteStore) FindVideo(ctx context.Context, id string) (*Video, error) {
	var (
		v           Video
		description sql.NullString
		createdDate sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_date, hls_path, thumbnail_path, ingested_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&v.ID, &v.Title, &description, &createdDate, &v.HlsPath, &v.ThumbnailPath, &v.IngestedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	if description.Valid {
		v.Description = &description.String
	}
	if createdDate.Valid {
		t := createdDate.Time.UTC()
		v.CreatedDate = &t
	}
	return &v, nil
}

// CountVideos returns the number of recorded videos.
func (s *SQLiteStore) CountVideos(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM videos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
