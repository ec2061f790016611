package store

import (
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries_Placeholders(t *testing.T) {
	pg := newQueries(sq.Dollar, nil)
	lite := newQueries(sq.Question, nil)

	query, args, err := pg.deleteEntry("alice", "1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM watchlist WHERE asteroid_id = $1 AND owner_id = $2", query)
	assert.Equal(t, []any{"1", "alice"}, args)

	query, _, err = lite.deleteEntry("alice", "1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM watchlist WHERE asteroid_id = ? AND owner_id = ?", query)
}

func TestQueries_InsertNullsAbsentReadings(t *testing.T) {
	q := newQueries(sq.Dollar, nil)
	e := domain.WatchlistEntry{
		OwnerID:    "alice",
		AsteroidID: "1",
		SavedAt:    time.Unix(0, 0).UTC(),
		Snapshot:   domain.StoredObject{VelocityKps: domain.ParseQuantity("12.5")},
	}

	_, args, err := q.insertEntry(e)
	require.NoError(t, err)
	require.Len(t, args, 8)
	assert.Nil(t, args[5])
	assert.Nil(t, args[6])
	require.NotNil(t, args[7])
	assert.Equal(t, "12.5", *args[7].(*string))
}
