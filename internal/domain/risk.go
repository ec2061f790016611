package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Scoring constants. Component caps sum to 100.
const (
	sizeCapPoints        = 40.0
	sizeSaturationMeters = 1000.0

	proximityCapPoints  = 40.0
	proximityCutoffAU   = 0.05
	defaultMissDistance = 100.0 // AU, "far"

	speedCapPoints     = 20.0
	speedSaturationKps = 40.0
)

// Level thresholds on the risk score.
const (
	ModerateRiskThreshold = 20
	HighRiskThreshold     = 50
)

// RiskLevel is the single display/alerting scale derived from a risk score.
type RiskLevel string

const (
	RiskSafe      RiskLevel = "safe"
	RiskModerate  RiskLevel = "moderate"
	RiskHazardous RiskLevel = "hazardous"
)

// RiskInput is the canonical record both object shapes normalize to.
type RiskInput struct {
	DiameterMeters float64
	MissDistanceAU float64
	VelocityKps    float64

	// Anomalies lists readings that were malformed or structurally absent and
	// replaced by their default. Empty for clean input.
	Anomalies []string
}

// Degraded reports whether any reading was replaced because it was malformed.
func (in RiskInput) Degraded() bool { return len(in.Anomalies) > 0 }

// Assessment is a scored RiskInput.
type Assessment struct {
	Score     int
	Level     RiskLevel
	HighRisk  bool
	Anomalies []string
}

// RiskScore returns the composite danger score in [0, 100]. It is pure and
// safe for concurrent use. Out-of-domain values (negative or non-finite) are
// treated as their "not dangerous" default rather than propagated.
func RiskScore(in RiskInput) int {
	d := finiteNonNegative(in.DiameterMeters, 0)
	au := finiteNonNegative(in.MissDistanceAU, defaultMissDistance)
	v := finiteNonNegative(in.VelocityKps, 0)

	size := (d / sizeSaturationMeters) * sizeCapPoints
	if size > sizeCapPoints {
		size = sizeCapPoints
	}

	var proximity float64
	if au < proximityCutoffAU {
		proximity = proximityCapPoints * (1 - au/proximityCutoffAU)
	}

	speed := (v / speedSaturationKps) * speedCapPoints
	if speed > speedCapPoints {
		speed = speedCapPoints
	}

	return int(math.Round(size + proximity + speed))
}

// LevelFor maps a risk score onto the unified scale.
func LevelFor(score int) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHazardous
	case score >= ModerateRiskThreshold:
		return RiskModerate
	default:
		return RiskSafe
	}
}

// IsHighRisk applies the display and alerting policy: a hazardous score or
// the upstream potentially-hazardous flag.
func IsHighRisk(score int, hazardousFlag bool) bool {
	return score >= HighRiskThreshold || hazardousFlag
}

// Assess scores in and classifies the result.
func Assess(in RiskInput, hazardousFlag bool) Assessment {
	score := RiskScore(in)
	return Assessment{
		Score:     score,
		Level:     LevelFor(score),
		HighRisk:  IsHighRisk(score, hazardousFlag),
		Anomalies: in.Anomalies,
	}
}

// NormalizeFeed extracts the scoring readings from the nested feed shape.
// Without a meter estimate the object is not scored at all, and a first
// approach lacking its distance or velocity voids every reading. Both cases
// score with all defaults and record the missing structure as an anomaly. A
// meter estimate with no approach event still scores on size.
func NormalizeFeed(o FeedObject) RiskInput {
	if o.decodeErr != nil {
		in := ParseRiskInput(o.Raw)
		in.Anomalies = append([]string{"decode: " + o.decodeErr.Error()}, in.Anomalies...)
		return in
	}

	s, cov, missing := feedReadings(o)
	in := RiskInput{}
	for _, field := range missing {
		in.note(field, ErrMissingQuantity)
	}
	in.DiameterMeters = in.read("estimated_diameter_max", s.DiameterMaxMeters, 0, cov >= coverDiameter)
	in.MissDistanceAU = in.read("miss_distance.astronomical", s.MissDistanceAU, defaultMissDistance, cov == coverApproach)
	in.VelocityKps = in.read("relative_velocity.kilometers_per_second", s.VelocityKps, 0, cov == coverApproach)
	return in
}

// feedCoverage is how far the structural checks on a feed object got.
type feedCoverage int

const (
	coverNone feedCoverage = iota
	coverDiameter
	coverApproach
)

// feedReadings copies the readings that take part in scoring out of a feed
// object, leaving out everything a structural gap voids. missing names the
// absent structures.
func feedReadings(o FeedObject) (s StoredObject, cov feedCoverage, missing []string) {
	if o.EstimatedDiameter == nil || o.EstimatedDiameter.Meters == nil {
		return StoredObject{}, coverNone, []string{"estimated_diameter.meters"}
	}

	ca, ok := o.FirstApproach()
	if !ok {
		s.DiameterMaxMeters = o.EstimatedDiameter.Meters.Max
		return s, coverDiameter, []string{"close_approach_data"}
	}
	if ca.MissDistance == nil {
		missing = append(missing, "miss_distance")
	}
	if ca.RelativeVelocity == nil {
		missing = append(missing, "relative_velocity")
	}
	if len(missing) > 0 {
		return StoredObject{}, coverNone, missing
	}

	s.DiameterMaxMeters = o.EstimatedDiameter.Meters.Max
	s.MissDistanceAU = ca.MissDistance.Astronomical
	s.VelocityKps = ca.RelativeVelocity.KilometersPerSecond
	return s, coverApproach, nil
}

// NormalizeStored extracts the scoring readings from the flattened shape.
// Missing fields are expected here and default silently; present but
// malformed fields default and are recorded as anomalies.
func NormalizeStored(s StoredObject) RiskInput {
	in := RiskInput{}
	diameter := s.DiameterMaxMeters
	field := "diameter_max_meters"
	if !diameter.IsSet() {
		diameter = s.Diameter
		field = "diameter"
	}
	in.DiameterMeters = in.read(field, diameter, 0, false)
	in.MissDistanceAU = in.read("miss_distance_astronomical", s.MissDistanceAU, defaultMissDistance, false)
	in.VelocityKps = in.read("velocity_kps", s.VelocityKps, 0, false)
	return in
}

// riskDocument is the union of both shapes, used for shape detection.
type riskDocument struct {
	EstimatedDiameter json.RawMessage `json:"estimated_diameter"`
	CloseApproachData json.RawMessage `json:"close_approach_data"`
	StoredObject
}

// detectedShape is an untyped document resolved to one of the two shapes.
// At most one of feed and stored is set.
type detectedShape struct {
	feed      *FeedObject
	stored    *StoredObject
	anomalies []string
}

// ParseRiskInput detects the shape of an untyped document and normalizes it.
// The feed shape wins when estimated_diameter.meters is present; otherwise
// the flattened shape is used when any of its fields is present. Anything
// else scores with all defaults and an anomaly.
func ParseRiskInput(data []byte) RiskInput {
	d := detectShape(data)
	var in RiskInput
	switch {
	case d.feed != nil:
		in = NormalizeFeed(*d.feed)
	case d.stored != nil:
		in = NormalizeStored(*d.stored)
	default:
		in = RiskInput{MissDistanceAU: defaultMissDistance}
	}
	in.Anomalies = append(in.Anomalies, d.anomalies...)
	return in
}

// snapshotDocument is Snapshot for an untyped document: it keeps exactly the
// readings ParseRiskInput would score.
func snapshotDocument(data []byte) StoredObject {
	d := detectShape(data)
	switch {
	case d.feed != nil:
		return d.feed.Snapshot()
	case d.stored != nil:
		s := *d.stored
		if !s.DiameterMaxMeters.IsSet() {
			s.DiameterMaxMeters = s.Diameter
		}
		s.Diameter = Quantity{}
		return s
	default:
		return StoredObject{}
	}
}

func detectShape(data []byte) detectedShape {
	var d detectedShape
	var doc riskDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		d.anomalies = append(d.anomalies, "document: "+err.Error())
		return d
	}

	if meters, ok := metersEstimate(doc.EstimatedDiameter); ok {
		obj := FeedObject{EstimatedDiameter: &DiameterEstimates{}}
		var rng DiameterRange
		if err := json.Unmarshal(meters, &rng); err != nil {
			d.anomalies = append(d.anomalies, "estimated_diameter.meters: "+err.Error())
		} else {
			obj.EstimatedDiameter.Meters = &rng
		}
		if len(doc.CloseApproachData) > 0 {
			if err := json.Unmarshal(doc.CloseApproachData, &obj.CloseApproachData); err != nil {
				d.anomalies = append(d.anomalies, "close_approach_data: "+err.Error())
			}
		}
		d.feed = &obj
		return d
	}

	s := doc.StoredObject
	if s.DiameterMaxMeters.IsSet() || s.Diameter.IsSet() || s.MissDistanceAU.IsSet() || s.VelocityKps.IsSet() {
		d.stored = &s
		return d
	}

	d.anomalies = append(d.anomalies, "shape: unrecognized object shape")
	return d
}

// read parses q, recording an anomaly and returning def when it is malformed
// or negative. Absence is an anomaly only when missingIsAnomaly is set.
func (in *RiskInput) read(field string, q Quantity, def float64, missingIsAnomaly bool) float64 {
	if !q.IsSet() {
		if missingIsAnomaly {
			in.note(field, ErrMissingQuantity)
		}
		return def
	}
	v, err := q.Float64()
	if err != nil {
		in.note(field, err)
		return def
	}
	if v < 0 {
		in.note(field, fmt.Errorf("negative value %q", q.String()))
		return def
	}
	return v
}

// metersEstimate returns estimated_diameter.meters when the key is present
// and not null.
func metersEstimate(raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var est map[string]json.RawMessage
	if err := json.Unmarshal(raw, &est); err != nil {
		return nil, false
	}
	m, ok := est["meters"]
	if !ok || string(m) == "null" {
		return nil, false
	}
	return m, true
}

func (in *RiskInput) note(field string, err error) {
	in.Anomalies = append(in.Anomalies, field+": "+err.Error())
}

func finiteNonNegative(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return def
	}
	return v
}
