// Package store persists watchlists and user profiles in Postgres or SQLite.
//
// The risk score is never stored. Each watchlist row keeps the three scoring
// readings as the text they arrived in (NULL when absent), so the score is
// recomputed on read and always matches the live feed.
package store

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
)

const (
	watchlistTable = "watchlist"
	usersTable     = "users"
)

var (
	entryColumns = []string{
		"owner_id", "asteroid_id", "name", "notes", "saved_at",
		"diameter_max_meters", "miss_distance_au", "velocity_kps",
	}
	userColumns = []string{"uid", "email", "name", "created_at", "updated_at"}
)

// queries builds the SQL shared by both drivers; only placeholders and the
// time encoding differ.
type queries struct {
	sb     sq.StatementBuilderType
	encode func(any) any
}

func newQueries(ph sq.PlaceholderFormat, encodeTime func(any) any) queries {
	if encodeTime == nil {
		encodeTime = func(v any) any { return v }
	}
	return queries{sb: sq.StatementBuilder.PlaceholderFormat(ph), encode: encodeTime}
}

func (q queries) listEntries(owner string) (string, []any, error) {
	return q.sb.Select(entryColumns...).
		From(watchlistTable).
		Where(sq.Eq{"owner_id": owner}).
		OrderBy("saved_at DESC", "id DESC").
		ToSql()
}

func (q queries) insertEntry(e domain.WatchlistEntry) (string, []any, error) {
	return q.sb.Insert(watchlistTable).
		Columns(entryColumns...).
		Values(
			e.OwnerID, e.AsteroidID, e.Name, e.Notes, q.encode(e.SavedAt),
			nullable(e.Snapshot.DiameterMaxMeters),
			nullable(e.Snapshot.MissDistanceAU),
			nullable(e.Snapshot.VelocityKps),
		).
		ToSql()
}

func (q queries) deleteEntry(owner, asteroidID string) (string, []any, error) {
	return q.sb.Delete(watchlistTable).
		Where(sq.Eq{"owner_id": owner, "asteroid_id": asteroidID}).
		ToSql()
}

func (q queries) upsertUser(u domain.User) (string, []any, error) {
	return q.sb.Insert(usersTable).
		Columns(userColumns...).
		Values(u.UID, u.Email, u.Name, q.encode(u.CreatedAt), q.encode(u.UpdatedAt)).
		Suffix("ON CONFLICT (uid) DO UPDATE SET email = excluded.email, name = excluded.name, updated_at = excluded.updated_at").
		ToSql()
}

func (q queries) getUser(uid string) (string, []any, error) {
	return q.sb.Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"uid": uid}).
		ToSql()
}

// nullable maps an absent reading to NULL and a present one to its text.
func nullable(qty domain.Quantity) *string {
	raw, ok := qty.Raw()
	if !ok {
		return nil
	}
	return &raw
}

func quantity(s *string) domain.Quantity {
	if s == nil {
		return domain.Quantity{}
	}
	return domain.ParseQuantity(*s)
}
