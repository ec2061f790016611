//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/store"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresWatchlist(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	s, err := store.OpenPostgres(ctx, dsn, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(ctx))

	// Migrations are idempotent.
	require.NoError(t, store.RunMigrations(dsn))

	savedAt := time.Date(2024, time.March, 10, 15, 30, 0, 123456000, time.UTC)
	eros := domain.NewWatchlistEntry("alice", feedObject(t, "2000433", "433 Eros (A898 PA)", "2024-03-11", "36000", `"0.15"`, `"5.9"`, false), "big one")
	eros.SavedAt = savedAt
	pk9 := domain.NewWatchlistEntry("alice", feedObject(t, "3542519", "(2010 PK9)", "2024-03-11", "480.5", `"0.0200"`, `"21.5"`, true), "")
	pk9.SavedAt = savedAt.Add(time.Minute)

	require.NoError(t, s.Add(ctx, eros))
	require.NoError(t, s.Add(ctx, pk9))
	require.NoError(t, s.Add(ctx, domain.NewWatchlistEntry("bob", feedObject(t, "2000433", "433 Eros (A898 PA)", "2024-03-11", "36000", `"0.15"`, `"5.9"`, false), "")))

	err = s.Add(ctx, eros)
	require.ErrorIs(t, err, domain.ErrAlreadyWatched)

	entries, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3542519", entries[0].AsteroidID, "newest first")
	assert.Equal(t, "2000433", entries[1].AsteroidID)
	assert.True(t, savedAt.Equal(entries[1].SavedAt), "saved_at %v", entries[1].SavedAt)
	assert.Equal(t, "big one", entries[1].Notes)

	// The snapshot keeps its original text, so scores survive storage.
	raw, _ := entries[0].Snapshot.MissDistanceAU.Raw()
	assert.Equal(t, "0.0200", raw)
	for i, want := range []domain.WatchlistEntry{pk9, eros} {
		assert.Equal(t, domain.ScoreEntry(want).RiskScore, domain.ScoreEntry(entries[i]).RiskScore, want.AsteroidID)
	}

	require.NoError(t, s.Remove(ctx, "alice", "2000433"))
	require.ErrorIs(t, s.Remove(ctx, "alice", "2000433"), domain.ErrNotWatched)

	entries, err = s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	bobs, err := s.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobs, 1, "other owners unaffected")
}

func TestPostgresUsers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s, err := store.OpenPostgres(ctx, startPostgres(ctx, t), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.GetUser(ctx, "uid-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	created := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	u, err := s.UpsertUser(ctx, domain.User{UID: "uid-1", Email: "ada@example.com", Name: "Ada", CreatedAt: created, UpdatedAt: created})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)

	later := created.Add(time.Hour)
	u, err = s.UpsertUser(ctx, domain.User{UID: "uid-1", Email: "ada@example.com", Name: "Ada L.", CreatedAt: later, UpdatedAt: later})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", u.Name)
	assert.True(t, created.Equal(u.CreatedAt), "created_at is kept on update")
	assert.True(t, later.Equal(u.UpdatedAt))

	got, err := s.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
}
