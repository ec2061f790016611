package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteTimeLayout has fixed-width fractional seconds so text order matches
// time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	uid        TEXT PRIMARY KEY,
	email      TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS watchlist (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id            TEXT NOT NULL,
	asteroid_id         TEXT NOT NULL,
	name                TEXT NOT NULL,
	notes               TEXT NOT NULL DEFAULT '',
	saved_at            TEXT NOT NULL,
	diameter_max_meters TEXT,
	miss_distance_au    TEXT,
	velocity_kps        TEXT,
	UNIQUE (owner_id, asteroid_id)
);

CREATE INDEX IF NOT EXISTS watchlist_owner_saved_idx ON watchlist (owner_id, saved_at DESC);
`

// SQLite is a single-file store for local and single-replica deployments.
type SQLite struct {
	db *sql.DB
	q  queries
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps ":memory:" on a single shared connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLite{
		db: db,
		q: newQueries(sq.Question, func(v any) any {
			if t, ok := v.(time.Time); ok {
				return t.UTC().Format(sqliteTimeLayout)
			}
			return v
		}),
	}, nil
}

func (s *SQLite) List(ctx context.Context, owner string) ([]domain.WatchlistEntry, error) {
	query, args, err := s.q.listEntries(owner)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	entries := []domain.WatchlistEntry{}
	for rows.Next() {
		var (
			e             domain.WatchlistEntry
			savedAt       string
			diam, au, kps sql.NullString
		)
		if err := rows.Scan(&e.OwnerID, &e.AsteroidID, &e.Name, &e.Notes, &savedAt, &diam, &au, &kps); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		if e.SavedAt, err = time.Parse(sqliteTimeLayout, savedAt); err != nil {
			return nil, fmt.Errorf("parse saved_at: %w", err)
		}
		e.Snapshot = domain.StoredObject{
			DiameterMaxMeters: quantity(nullString(diam)),
			MissDistanceAU:    quantity(nullString(au)),
			VelocityKps:       quantity(nullString(kps)),
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, nil
}

func (s *SQLite) Add(ctx context.Context, e domain.WatchlistEntry) error {
	query, args, err := s.q.insertEntry(e)
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isSQLiteUnique(err) {
			return domain.ErrAlreadyWatched
		}
		return fmt.Errorf("add to watchlist: %w", err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, owner, asteroidID string) error {
	query, args, err := s.q.deleteEntry(owner, asteroidID)
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	if n == 0 {
		return domain.ErrNotWatched
	}
	return nil
}

func (s *SQLite) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	query, args, err := s.q.upsertUser(u)
	if err != nil {
		return domain.User{}, fmt.Errorf("build upsert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, u.UID)
}

func (s *SQLite) GetUser(ctx context.Context, uid string) (domain.User, error) {
	query, args, err := s.q.getUser(uid)
	if err != nil {
		return domain.User{}, fmt.Errorf("build user query: %w", err)
	}

	var (
		u                domain.User
		created, updated string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&u.UID, &u.Email, &u.Name, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return domain.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return domain.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return u, nil
}

// Ping reports whether the database is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
