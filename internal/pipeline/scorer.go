package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
)

// Scorer runs batches of objects through the risk scorer. A malformed record
// is scored with defaults and logged; it never aborts the batch.
type Scorer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewScorer creates a Scorer.
func NewScorer(logger *slog.Logger, metrics *observability.Metrics) *Scorer {
	return &Scorer{logger: logger, metrics: metrics}
}

// ScoreFeed normalizes and scores feed objects, preserving order.
func (s *Scorer) ScoreFeed(objs []domain.FeedObject) []domain.NearEarthObject {
	out := make([]domain.NearEarthObject, len(objs))
	for i, o := range objs {
		neo := domain.NewNearEarthObject(o)
		s.observe("feed", neo.ID, neo.RiskScore, neo.Anomalies)
		out[i] = neo
	}
	return out
}

// ScoreEntries recomputes the risk of stored watchlist snapshots.
func (s *Scorer) ScoreEntries(entries []domain.WatchlistEntry) []domain.ScoredEntry {
	out := make([]domain.ScoredEntry, len(entries))
	for i, e := range entries {
		scored := domain.ScoreEntry(e)
		s.observe("stored", e.AsteroidID, scored.RiskScore, scored.Anomalies)
		out[i] = scored
	}
	return out
}

func (s *Scorer) observe(shape, id string, score int, anomalies []string) {
	s.metrics.ObjectsScored.WithLabelValues(shape).Inc()
	s.metrics.RiskScores.Observe(float64(score))
	if len(anomalies) == 0 {
		return
	}
	s.metrics.ScoreAnomalies.WithLabelValues(shape).Inc()
	s.logger.Warn("scored with defaulted readings",
		"asteroid_id", id,
		"shape", shape,
		"risk_score", score,
		"anomalies", anomalies,
	)
}
