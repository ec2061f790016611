// Command validate performs data integrity checks across the mock data
// fixtures produced by genmock: the saved NeoWs feed response, the flattened
// watchlist fixture, and the scored feed fixture. It verifies score bounds,
// level consistency, and that both object shapes score identically.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -feed data/mock/neows_feed_240310.json \
//	  -stored data/mock/watchlist_snapshots_240310.json \
//	  -scored data/mock/neo_scored_240310.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// fixedNow matches genmock so regenerated entries compare equal.
var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type feedDump struct {
	ElementCount     int                          `json:"element_count"`
	NearEarthObjects map[string][]json.RawMessage `json:"near_earth_objects"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "", "path to a saved NeoWs feed response")
	storedPath := flag.String("stored", "", "path to the flattened watchlist fixture")
	scoredPath := flag.String("scored", "", "path to the scored feed fixture")
	flag.Parse()

	if *feedPath == "" || *storedPath == "" || *scoredPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*feedPath, *storedPath, *scoredPath); code != 0 {
		os.Exit(code)
	}
}

func run(feedPath, storedPath, scoredPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	fmt.Println("=== NEO Fixture Integrity Validation ===")
	fmt.Println()

	dump, err := loadJSON[feedDump](feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load feed: %v\n", err)
		return 1
	}
	raws := flatten(dump)

	entries, err := loadJSON[[]domain.WatchlistEntry](storedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load watchlist fixture: %v\n", err)
		return 1
	}

	scored, err := loadJSON[[]domain.NearEarthObject](scoredPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load scored fixture: %v\n", err)
		return 1
	}

	objs, decodePhase := validateFeedDecode(dump, raws)

	phases := []*phase{
		decodePhase,
		validateScoreBounds(scored),
		validateScoredFixture(scored, objs),
		validateShapeEquivalence(objs, entries),
		validateUntypedDetection(objs),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d feed, %d watchlist, %d scored\n", len(raws), len(entries), len(scored))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}

// flatten returns raw payloads ordered by date then feed position, the same
// order genmock writes.
func flatten(dump feedDump) []json.RawMessage {
	dates := make([]string, 0, len(dump.NearEarthObjects))
	for d := range dump.NearEarthObjects {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var out []json.RawMessage
	for _, d := range dates {
		out = append(out, dump.NearEarthObjects[d]...)
	}
	return out
}

// ── Phase 1: feed decode ──

func validateFeedDecode(dump feedDump, raws []json.RawMessage) ([]domain.FeedObject, *phase) {
	p := &phase{name: "Feed decode"}

	if dump.ElementCount != 0 && dump.ElementCount != len(raws) {
		p.errorf("element_count %d, payloads %d", dump.ElementCount, len(raws))
	}

	objs := make([]domain.FeedObject, 0, len(raws))
	ids := make(map[string]int, len(raws))
	for i, raw := range raws {
		o, err := domain.DecodeFeedObject(raw)
		if err != nil {
			p.errorf("payload %d: %v", i, err)
			continue
		}
		if o.DecodeErr() != nil {
			p.errorf("payload %d (%s): recovered leniently: %v", i, o.ID, o.DecodeErr())
		}
		if o.ID == "" {
			p.errorf("payload %d: missing id", i)
		}
		if prev, dup := ids[o.ID]; dup && o.ID != "" {
			p.errorf("payload %d: id %s duplicates payload %d", i, o.ID, prev)
		}
		ids[o.ID] = i
		objs = append(objs, o)
	}
	return objs, p
}

// ── Phase 2: score bounds ──

func validateScoreBounds(scored []domain.NearEarthObject) *phase {
	p := &phase{name: "Score bounds and levels"}

	for _, o := range scored {
		if o.RiskScore < 0 || o.RiskScore > 100 {
			p.errorf("%s: score %d out of range", o.ID, o.RiskScore)
		}
		if want := domain.LevelFor(o.RiskScore); o.RiskLevel != want {
			p.errorf("%s: level %s, score %d implies %s", o.ID, o.RiskLevel, o.RiskScore, want)
		}
		if want := domain.IsHighRisk(o.RiskScore, o.IsPotentiallyHazardous); o.HighRisk != want {
			p.errorf("%s: high_risk %v, want %v", o.ID, o.HighRisk, want)
		}
		if o.DisplayName != domain.DisplayName(o.Name) {
			p.errorf("%s: display_name %q does not match name %q", o.ID, o.DisplayName, o.Name)
		}
		for field, v := range map[string]float64{
			"diameter_meters":  o.DiameterMeters,
			"miss_distance_au": o.MissDistanceAU,
			"velocity_kps":     o.VelocityKps,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				p.errorf("%s: %s is %v", o.ID, field, v)
			}
		}
	}
	return p
}

// ── Phase 3: scored fixture matches current scoring ──

func validateScoredFixture(scored []domain.NearEarthObject, objs []domain.FeedObject) *phase {
	p := &phase{name: "Scored fixture vs feed"}

	if len(scored) != len(objs) {
		p.errorf("scored fixture has %d objects, feed has %d", len(scored), len(objs))
	}
	byID := make(map[string]domain.NearEarthObject, len(scored))
	for _, o := range scored {
		byID[o.ID] = o
	}

	for _, o := range objs {
		got, ok := byID[o.ID]
		if !ok {
			p.errorf("%s: missing from scored fixture", o.ID)
			continue
		}
		want := domain.NewNearEarthObject(o)
		if got.RiskScore != want.RiskScore {
			p.errorf("%s: fixture score %d, recomputed %d", o.ID, got.RiskScore, want.RiskScore)
		}
		if got.HighRisk != want.HighRisk {
			p.errorf("%s: fixture high_risk %v, recomputed %v", o.ID, got.HighRisk, want.HighRisk)
		}
		if got.DiameterMeters != want.DiameterMeters || got.MissDistanceAU != want.MissDistanceAU ||
			got.VelocityKps != want.VelocityKps {
			p.errorf("%s: readings drifted from feed", o.ID)
		}
	}
	return p
}

// ── Phase 4: nested vs flattened shape ──

func validateShapeEquivalence(objs []domain.FeedObject, entries []domain.WatchlistEntry) *phase {
	p := &phase{name: "Feed vs watchlist shape equivalence"}

	if len(entries) != len(objs) {
		p.errorf("watchlist fixture has %d entries, feed has %d", len(entries), len(objs))
	}
	byID := make(map[string]domain.WatchlistEntry, len(entries))
	for _, e := range entries {
		byID[e.AsteroidID] = e
	}

	for _, o := range objs {
		e, ok := byID[o.ID]
		if !ok {
			p.errorf("%s: missing from watchlist fixture", o.ID)
			continue
		}

		feedIn := domain.NormalizeFeed(o)
		storedIn := domain.NormalizeStored(e.Snapshot)
		if feedIn.DiameterMeters != storedIn.DiameterMeters ||
			feedIn.MissDistanceAU != storedIn.MissDistanceAU ||
			feedIn.VelocityKps != storedIn.VelocityKps {
			p.errorf("%s: feed readings %v/%v/%v, snapshot %v/%v/%v", o.ID,
				feedIn.DiameterMeters, feedIn.MissDistanceAU, feedIn.VelocityKps,
				storedIn.DiameterMeters, storedIn.MissDistanceAU, storedIn.VelocityKps)
		}

		feedScore := domain.RiskScore(feedIn)
		if entryScore := domain.ScoreEntry(e).RiskScore; entryScore != feedScore {
			p.errorf("%s: feed score %d, watchlist score %d", o.ID, feedScore, entryScore)
		}
		if fresh := o.Snapshot(); !sameSnapshot(fresh, e.Snapshot) {
			p.errorf("%s: snapshot text differs from feed", o.ID)
		}
	}
	return p
}

func sameSnapshot(a, b domain.StoredObject) bool {
	return a.DiameterMaxMeters.String() == b.DiameterMaxMeters.String() &&
		a.MissDistanceAU.String() == b.MissDistanceAU.String() &&
		a.VelocityKps.String() == b.VelocityKps.String()
}

// ── Phase 5: untyped shape detection ──

// validateUntypedDetection checks that ParseRiskInput picks the right shape
// for both the raw feed payload and a marshaled snapshot.
func validateUntypedDetection(objs []domain.FeedObject) *phase {
	p := &phase{name: "Untyped shape detection"}

	for _, o := range objs {
		want := domain.RiskScore(domain.NormalizeFeed(o))

		if got := domain.RiskScore(domain.ParseRiskInput(o.Raw)); got != want {
			p.errorf("%s: untyped feed document scored %d, want %d", o.ID, got, want)
		}

		snap, err := json.Marshal(o.Snapshot())
		if err != nil {
			p.errorf("%s: marshal snapshot: %v", o.ID, err)
			continue
		}
		if got := domain.RiskScore(domain.ParseRiskInput(snap)); got != want {
			p.errorf("%s: untyped snapshot document scored %d, want %d", o.ID, got, want)
		}
	}
	return p
}
