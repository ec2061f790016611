// Command genmock reads a saved NeoWs feed response and generates mock data
// fixtures for the service and dashboard test suites. It uses the service's
// domain package so the scored output matches what the API returns.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -feed data/mock/neows_feed_240310.json \
//	  -stored-out data/mock/watchlist_snapshots_240310.json \
//	  -scored-out data/mock/neo_scored_240310.json
//
// A feed response can be captured with:
//
//	curl -o data/mock/neows_feed_240310.json \
//	  'https://api.nasa.gov/neo/rest/v1/feed?start_date=2024-03-10&end_date=2024-03-12&api_key=DEMO_KEY'
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixedNow stamps SavedAt on every generated watchlist entry.
var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

// feedDump is the NeoWs /feed response body.
type feedDump struct {
	ElementCount     int                          `json:"element_count"`
	NearEarthObjects map[string][]json.RawMessage `json:"near_earth_objects"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedPath := flag.String("feed", "", "path to a saved NeoWs feed response")
	storedOut := flag.String("stored-out", "", "output path for flattened watchlist fixture")
	scoredOut := flag.String("scored-out", "", "output path for scored feed fixture")
	owner := flag.String("owner", "mock-user", "owner id stamped on watchlist entries")
	flag.Parse()

	if *feedPath == "" || *storedOut == "" || *scoredOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -feed, -stored-out, -scored-out")
	}

	// Fixed clock for reproducible SavedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	objs, err := loadFeed(*feedPath)
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}
	log.Printf("feed: %d objects", len(objs))

	entries := make([]domain.WatchlistEntry, 0, len(objs))
	scored := make([]domain.NearEarthObject, 0, len(objs))
	for _, o := range objs {
		entries = append(entries, domain.NewWatchlistEntry(*owner, o, ""))
		scored = append(scored, domain.NewNearEarthObject(o))
	}

	if err := writeJSON(*storedOut, entries); err != nil {
		return fmt.Errorf("writing watchlist fixture: %w", err)
	}
	log.Printf("wrote watchlist fixture: %s", *storedOut)

	if err := writeJSON(*scoredOut, scored); err != nil {
		return fmt.Errorf("writing scored fixture: %w", err)
	}
	log.Printf("wrote scored fixture: %s", *scoredOut)

	printStats(scored)
	return nil
}

// loadFeed decodes every object in the dump, ordered by approach date then
// feed position.
func loadFeed(path string) ([]domain.FeedObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dump feedDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(dump.NearEarthObjects) == 0 {
		return nil, fmt.Errorf("no near_earth_objects in %s", path)
	}

	dates := make([]string, 0, len(dump.NearEarthObjects))
	for d := range dump.NearEarthObjects {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var objs []domain.FeedObject
	for _, d := range dates {
		for i, raw := range dump.NearEarthObjects[d] {
			o, err := domain.DecodeFeedObject(raw)
			if err != nil {
				log.Printf("skipping %s[%d]: %v", d, i, err)
				continue
			}
			objs = append(objs, o)
		}
	}
	if dump.ElementCount != 0 && dump.ElementCount != len(objs) {
		log.Printf("warning: element_count %d, decoded %d", dump.ElementCount, len(objs))
	}
	return objs, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

type statsResult struct {
	levels    map[domain.RiskLevel]int
	highRisk  int
	flagOnly  int
	degraded  int
	minScore  int
	maxScore  int
	analytics domain.Analytics
}

func collectStats(objs []domain.NearEarthObject) statsResult {
	s := statsResult{
		levels:    map[domain.RiskLevel]int{},
		minScore:  100,
		analytics: domain.Summarize(objs),
	}
	for _, o := range objs {
		s.levels[o.RiskLevel]++
		if o.HighRisk {
			s.highRisk++
			if o.RiskLevel != domain.RiskHazardous {
				s.flagOnly++
			}
		}
		if len(o.Anomalies) > 0 {
			s.degraded++
		}
		s.minScore = min(s.minScore, o.RiskScore)
		s.maxScore = max(s.maxScore, o.RiskScore)
	}
	if len(objs) == 0 {
		s.minScore = 0
	}
	return s
}

func printStats(objs []domain.NearEarthObject) {
	s := collectStats(objs)

	fmt.Println()
	fmt.Println("=== Fixture Stats ===")
	fmt.Printf("objects:   %d\n", len(objs))
	fmt.Printf("scores:    %d-%d\n", s.minScore, s.maxScore)
	fmt.Printf("safe:      %d\n", s.levels[domain.RiskSafe])
	fmt.Printf("moderate:  %d\n", s.levels[domain.RiskModerate])
	fmt.Printf("hazardous: %d\n", s.levels[domain.RiskHazardous])
	fmt.Printf("high risk: %d (%d by upstream flag only)\n", s.highRisk, s.flagOnly)
	fmt.Printf("degraded:  %d\n", s.degraded)
	fmt.Printf("assessment: %s (%.1f%% high risk)\n", s.analytics.Assessment, s.analytics.HighRiskPercent)

	if s.analytics.Closest != nil {
		fmt.Printf("closest:   %s (%.0f km)\n", s.analytics.Closest.Name, s.analytics.Closest.Value)
	}
	if s.analytics.Largest != nil {
		fmt.Printf("largest:   %s (%.0f m)\n", s.analytics.Largest.Name, s.analytics.Largest.Value)
	}

	printTop(objs, 5)
}

func printTop(objs []domain.NearEarthObject, n int) {
	top := make([]domain.NearEarthObject, len(objs))
	copy(top, objs)
	sort.SliceStable(top, func(i, j int) bool { return top[i].RiskScore > top[j].RiskScore })
	if len(top) > n {
		top = top[:n]
	}

	fmt.Println()
	fmt.Println("--- Top by risk score ---")
	for _, o := range top {
		fmt.Printf("  %3d  %-10s %-28s %8.1f m  %.4f AU  %5.2f km/s\n",
			o.RiskScore, o.RiskLevel, o.DisplayName, o.DiameterMeters, o.MissDistanceAU, o.VelocityKps)
	}
}
