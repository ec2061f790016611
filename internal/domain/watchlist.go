package domain

import (
	"context"
	"time"
)

// WatchlistEntry is one asteroid saved by one user. Snapshot holds the three
// scoring readings captured when the entry was saved; the score itself is
// never stored and is recomputed on read.
type WatchlistEntry struct {
	OwnerID    string       `json:"owner_id"`
	AsteroidID string       `json:"asteroid_id"`
	Name       string       `json:"name"`
	Notes      string       `json:"notes,omitempty"`
	SavedAt    time.Time    `json:"saved_at"`
	Snapshot   StoredObject `json:"snapshot"`
}

// NewWatchlistEntry builds an entry for owner from a looked-up feed object.
func NewWatchlistEntry(owner string, obj FeedObject, notes string) WatchlistEntry {
	return WatchlistEntry{
		OwnerID:    owner,
		AsteroidID: obj.ID,
		Name:       obj.Name,
		Notes:      notes,
		SavedAt:    clock.Now().UTC(),
		Snapshot:   obj.Snapshot(),
	}
}

// ScoredEntry is a watchlist entry with its freshly computed risk.
type ScoredEntry struct {
	WatchlistEntry
	DisplayName string    `json:"display_name"`
	RiskScore   int       `json:"risk_score"`
	RiskLevel   RiskLevel `json:"risk_level"`
	HighRisk    bool      `json:"high_risk"`
	Anomalies   []string  `json:"anomalies,omitempty"`
}

// ScoreEntry normalizes the stored snapshot and scores it.
func ScoreEntry(e WatchlistEntry) ScoredEntry {
	a := Assess(NormalizeStored(e.Snapshot), false)
	return ScoredEntry{
		WatchlistEntry: e,
		DisplayName:    DisplayName(e.Name),
		RiskScore:      a.Score,
		RiskLevel:      a.Level,
		HighRisk:       a.HighRisk,
		Anomalies:      a.Anomalies,
	}
}

// User is the profile synced from the identity provider.
type User struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WatchlistStore persists watchlist entries.
type WatchlistStore interface {
	// List returns owner's entries, newest first.
	List(ctx context.Context, owner string) ([]WatchlistEntry, error)
	// Add inserts an entry, returning ErrAlreadyWatched on a duplicate.
	Add(ctx context.Context, e WatchlistEntry) error
	// Remove deletes an entry, returning ErrNotWatched when absent.
	Remove(ctx context.Context, owner, asteroidID string) error
}

// UserStore persists user profiles.
type UserStore interface {
	// UpsertUser creates or updates a profile and returns the stored row.
	UpsertUser(ctx context.Context, u User) (User, error)
	// GetUser returns ErrNotFound for unknown uids.
	GetUser(ctx context.Context, uid string) (User, error)
}
