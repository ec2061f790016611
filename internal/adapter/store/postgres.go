package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

// Postgres is the store for multi-replica deployments.
type Postgres struct {
	pool   *pgxpool.Pool
	q      queries
	logger *slog.Logger
}

// OpenPostgres applies pending migrations, then opens a connection pool and
// verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	logger.Info("postgres store ready", "max_conns", poolCfg.MaxConns)
	return &Postgres{pool: pool, q: newQueries(sq.Dollar, nil), logger: logger}, nil
}

// RunMigrations applies the embedded migrations. No pending migrations is
// not an error.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("postgres: create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: run migrations up: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, owner string) ([]domain.WatchlistEntry, error) {
	query, args, err := p.q.listEntries(owner)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	entries := []domain.WatchlistEntry{}
	for rows.Next() {
		var (
			e             domain.WatchlistEntry
			diam, au, kps *string
		)
		if err := rows.Scan(&e.OwnerID, &e.AsteroidID, &e.Name, &e.Notes, &e.SavedAt, &diam, &au, &kps); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		e.SavedAt = e.SavedAt.UTC()
		e.Snapshot = domain.StoredObject{
			DiameterMaxMeters: quantity(diam),
			MissDistanceAU:    quantity(au),
			VelocityKps:       quantity(kps),
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, nil
}

func (p *Postgres) Add(ctx context.Context, e domain.WatchlistEntry) error {
	query, args, err := p.q.insertEntry(e)
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyWatched
		}
		return fmt.Errorf("add to watchlist: %w", err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, owner, asteroidID string) error {
	query, args, err := p.q.deleteEntry(owner, asteroidID)
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotWatched
	}
	return nil
}

func (p *Postgres) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	query, args, err := p.q.upsertUser(u)
	if err != nil {
		return domain.User{}, fmt.Errorf("build upsert query: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return p.GetUser(ctx, u.UID)
}

func (p *Postgres) GetUser(ctx context.Context, uid string) (domain.User, error) {
	query, args, err := p.q.getUser(uid)
	if err != nil {
		return domain.User{}, fmt.Errorf("build user query: %w", err)
	}

	var u domain.User
	err = p.pool.QueryRow(ctx, query, args...).Scan(&u.UID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return u, nil
}

// Ping reports whether the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
