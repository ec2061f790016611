package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
)

type api struct {
	deps   Deps
	logger *slog.Logger
}

type feedResponse struct {
	StartDate        string                   `json:"start_date"`
	EndDate          string                   `json:"end_date"`
	ElementCount     int                      `json:"element_count"`
	NearEarthObjects []domain.NearEarthObject `json:"near_earth_objects"`
}

type analyticsResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	domain.Analytics
}

// scoredFeed fetches the requested range, scores it, and applies the
// search and sort parameters.
func (a *api) scoredFeed(r *http.Request) ([]domain.NearEarthObject, time.Time, time.Time, error) {
	q := r.URL.Query()
	start, end, err := domain.ParseRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		return nil, start, end, err
	}
	query, err := domain.ParseQuery(q.Get("q"), q.Get("sort"), q.Get("order"))
	if err != nil {
		return nil, start, end, err
	}
	objs, err := a.deps.Feed.Feed(r.Context(), start, end)
	if err != nil {
		return nil, start, end, err
	}
	return query.Apply(a.deps.Scorer.ScoreFeed(objs)), start, end, nil
}

func (a *api) handleFeed(w http.ResponseWriter, r *http.Request) {
	neos, start, end, err := a.scoredFeed(r)
	if err != nil {
		writeError(w, r, a.logger, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{
		StartDate:        start.Format(domain.DateLayout),
		EndDate:          end.Format(domain.DateLayout),
		ElementCount:     len(neos),
		NearEarthObjects: neos,
	})
}

func (a *api) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	neos, start, end, err := a.scoredFeed(r)
	if err != nil {
		writeError(w, r, a.logger, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		StartDate: start.Format(domain.DateLayout),
		EndDate:   end.Format(domain.DateLayout),
		Analytics: domain.Summarize(neos),
	})
}

func (a *api) handleLookup(w http.ResponseWriter, r *http.Request) {
	obj, err := a.deps.Feed.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, a.logger, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, a.deps.Scorer.ScoreFeed([]domain.FeedObject{obj})[0])
}
