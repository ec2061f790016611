// Package domain models near-Earth object (NEO) close-approach data from the
// NASA NeoWs API and the risk heuristics derived from it.
//
// # Data Source
//
// Objects originate from the NeoWs feed endpoint
// (https://api.nasa.gov/neo/rest/v1/feed), which groups objects by calendar
// date under "near_earth_objects". A feed request covers at most seven days.
// Each object carries size estimates in several units and one or more
// close-approach events.
//
// # NeoWs Data Conventions
//
// Numeric encoding (varies by field):
//
//	estimated_diameter.meters.estimated_diameter_max   JSON number, meters
//	close_approach_data[].miss_distance.astronomical    numeric string, AU
//	close_approach_data[].miss_distance.kilometers      numeric string, km
//	close_approach_data[].relative_velocity.*           numeric string, km/s and km/h
//
// [Quantity] accepts either encoding and keeps the original text so a value
// copied into storage parses back to the identical float64.
//
// Names:
//
//	Provisional designations arrive wrapped in parentheses, e.g. "(2024 AB1)"
//	or "433 Eros (A898 PA)". [DisplayName] strips the parenthesis characters
//	for display and sorting. Scoring never looks at the name.
//
// Only the first close-approach event is considered; the feed orders events
// by the requested window, so the first entry is the approach that placed the
// object in the feed.
//
// # Risk Score
//
// [RiskScore] sums three independently capped components over the canonical
// [RiskInput]:
//
//	size:      min(40, diameter_m / 1000 * 40)
//	proximity: 40 * (1 - distance_au / 0.05) when distance_au < 0.05, else 0
//	speed:     min(20, velocity_kps / 40 * 20)
//
// and rounds the total half away from zero, giving an integer in [0, 100].
// The proximity cutoff is a hard edge: exactly 0.05 AU contributes nothing.
//
// Two input shapes normalize to the same [RiskInput]: the nested feed shape
// ([NormalizeFeed]) and the flattened shape stored with watchlist entries
// ([NormalizeStored]). [ParseRiskInput] detects the shape of an untyped
// document. Missing readings default toward "not dangerous" (diameter 0,
// distance 100 AU, speed 0). Unparseable, non-finite, or negative readings
// take the same defaults and are recorded in RiskInput.Anomalies so callers
// can tell a degraded score from a legitimately low one.
//
// Missing structure in the feed shape is stricter than a missing reading:
//
//	no estimated_diameter.meters           all defaults, score 0
//	first approach lacks miss_distance     all defaults, score 0
//	  or relative_velocity
//	no close-approach event                size only
//
// [FeedObject.Snapshot] applies the same rules, so an object and its stored
// snapshot always score the same.
//
// # Risk Levels
//
// A single scale, derived from the score only:
//
//	safe:      score < 20
//	moderate:  20 <= score < 50
//	hazardous: score >= 50
//
// An object is high risk when it is hazardous or when NeoWs flags it as
// potentially hazardous. Analytics and alerting use the same rule.
package domain
