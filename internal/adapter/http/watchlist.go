package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/cosmic-watch-service/internal/auth"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
)

const maxNotesLen = 1000

type addWatchlistRequest struct {
	AsteroidID string `json:"asteroidId"`
	Name       string `json:"name"`
	Notes      string `json:"notes"`
}

type syncUserRequest struct {
	Name string `json:"name"`
}

func (a *api) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	entries, err := a.deps.Watchlist.List(r.Context(), claims.UID())
	if err != nil {
		a.watchlistOp("list", err)
		writeError(w, r, a.logger, err, http.StatusInternalServerError)
		return
	}
	a.watchlistOp("list", nil)
	writeJSON(w, http.StatusOK, a.deps.Scorer.ScoreEntries(entries))
}

func (a *api) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req addWatchlistRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, a.logger, err, http.StatusBadRequest)
		return
	}
	req.AsteroidID = strings.TrimSpace(req.AsteroidID)
	if req.AsteroidID == "" {
		writeError(w, r, a.logger, fmt.Errorf("%w: asteroidId is required", errBadRequest), http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Notes) > maxNotesLen {
		writeError(w, r, a.logger, fmt.Errorf("%w: notes exceed %d characters", errBadRequest, maxNotesLen), http.StatusBadRequest)
		return
	}

	obj, err := a.deps.Feed.Lookup(r.Context(), req.AsteroidID)
	if err != nil {
		writeError(w, r, a.logger, err, http.StatusBadGateway)
		return
	}
	entry := domain.NewWatchlistEntry(claims.UID(), obj, strings.TrimSpace(req.Notes))
	if entry.Name == "" {
		entry.Name = strings.TrimSpace(req.Name)
	}

	if err := a.deps.Watchlist.Add(r.Context(), entry); err != nil {
		a.watchlistOp("add", err)
		writeError(w, r, a.logger, err, http.StatusInternalServerError)
		return
	}
	a.watchlistOp("add", nil)
	a.logger.Info("watchlist entry added", "owner_id", entry.OwnerID, "asteroid_id", entry.AsteroidID)
	writeJSON(w, http.StatusCreated, a.deps.Scorer.ScoreEntries([]domain.WatchlistEntry{entry})[0])
}

func (a *api) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := a.deps.Watchlist.Remove(r.Context(), claims.UID(), r.PathValue("asteroidId")); err != nil {
		a.watchlistOp("remove", err)
		writeError(w, r, a.logger, err, http.StatusInternalServerError)
		return
	}
	a.watchlistOp("remove", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSyncUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req syncUserRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, a.logger, err, http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = claims.Name
	}

	now := domain.Now().UTC()
	u, err := a.deps.Users.UpsertUser(r.Context(), domain.User{
		UID:       claims.UID(),
		Email:     claims.Email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		writeError(w, r, a.logger, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	u, err := a.deps.Users.GetUser(r.Context(), claims.UID())
	if err != nil {
		writeError(w, r, a.logger, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *api) watchlistOp(op string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyWatched):
		outcome = "duplicate"
	case errors.Is(err, domain.ErrNotWatched):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	a.deps.Metrics.WatchlistOps.WithLabelValues(op, outcome).Inc()
}
