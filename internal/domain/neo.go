package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// KilometersPerAU is the IAU definition of the astronomical unit.
const KilometersPerAU = 149_597_870.7

// FeedObject is a single object as returned by the NeoWs feed and lookup
// endpoints (nested shape).
type FeedObject struct {
	ID                     string             `json:"id"`
	NeoReferenceID         string             `json:"neo_reference_id,omitempty"`
	Name                   string             `json:"name"`
	NasaJPLURL             string             `json:"nasa_jpl_url,omitempty"`
	EstimatedDiameter      *DiameterEstimates `json:"estimated_diameter,omitempty"`
	IsPotentiallyHazardous bool               `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData      []CloseApproach    `json:"close_approach_data"`
	IsSentryObject         bool               `json:"is_sentry_object"`

	// Raw is the payload the object was decoded from, when known.
	Raw json.RawMessage `json:"-"`

	// decodeErr is set when the payload did not fit the typed shape and the
	// object was recovered leniently from Raw.
	decodeErr error
}

// DiameterEstimates holds the size estimate ranges per unit.
type DiameterEstimates struct {
	Kilometers *DiameterRange `json:"kilometers,omitempty"`
	Meters     *DiameterRange `json:"meters,omitempty"`
}

// DiameterRange is a min/max size estimate in one unit.
type DiameterRange struct {
	Min Quantity `json:"estimated_diameter_min"`
	Max Quantity `json:"estimated_diameter_max"`
}

// CloseApproach is one recorded pass near a body.
type CloseApproach struct {
	Date             string        `json:"close_approach_date"`
	DateFull         string        `json:"close_approach_date_full,omitempty"`
	RelativeVelocity *Velocity     `json:"relative_velocity,omitempty"`
	MissDistance     *MissDistance `json:"miss_distance,omitempty"`
	OrbitingBody     string        `json:"orbiting_body,omitempty"`
}

// Velocity is the relative velocity at closest approach.
type Velocity struct {
	KilometersPerSecond Quantity `json:"kilometers_per_second"`
	KilometersPerHour   Quantity `json:"kilometers_per_hour"`
}

// MissDistance is the closest-approach distance in several units.
type MissDistance struct {
	Astronomical Quantity `json:"astronomical"`
	Lunar        Quantity `json:"lunar"`
	Kilometers   Quantity `json:"kilometers"`
}

// StoredObject is the flattened shape persisted alongside watchlist entries.
// Diameter is accepted as a generic fallback when DiameterMaxMeters is absent.
type StoredObject struct {
	DiameterMaxMeters Quantity `json:"diameter_max_meters"`
	Diameter          Quantity `json:"diameter"`
	MissDistanceAU    Quantity `json:"miss_distance_astronomical"`
	VelocityKps       Quantity `json:"velocity_kps"`
}

// DecodeFeedObject decodes one NeoWs object. A payload that is a JSON object
// but does not fit the typed shape is still returned: its id and name are
// recovered and scoring falls back to ParseRiskInput over the raw payload.
// Only payloads that are not JSON objects at all produce an error.
func DecodeFeedObject(data []byte) (FeedObject, error) {
	var obj FeedObject
	err := json.Unmarshal(data, &obj)
	if err == nil {
		obj.Raw = data
		return obj, nil
	}

	var head map[string]any
	if jerr := json.Unmarshal(data, &head); jerr != nil {
		return FeedObject{}, fmt.Errorf("decode feed object: %w", jerr)
	}
	return FeedObject{
		ID:        scalarString(head["id"]),
		Name:      scalarString(head["name"]),
		Raw:       data,
		decodeErr: err,
	}, nil
}

// DecodeErr reports why the object was recovered leniently, or nil.
func (o FeedObject) DecodeErr() error { return o.decodeErr }

// FirstApproach returns the first close-approach event, if any.
func (o FeedObject) FirstApproach() (CloseApproach, bool) {
	if len(o.CloseApproachData) == 0 {
		return CloseApproach{}, false
	}
	return o.CloseApproachData[0], true
}

// Snapshot copies the scoring readings into the flattened shape. The
// original text is kept and readings voided by missing structure are left
// out, so the snapshot scores identically to the object. A leniently
// recovered object is snapshotted from its raw payload.
func (o FeedObject) Snapshot() StoredObject {
	if o.decodeErr != nil {
		return snapshotDocument(o.Raw)
	}
	s, _, _ := feedReadings(o)
	return s
}

// NearEarthObject is the scored, display-ready form of a feed object.
type NearEarthObject struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	DisplayName            string    `json:"display_name"`
	NasaJPLURL             string    `json:"nasa_jpl_url,omitempty"`
	DiameterMeters         float64   `json:"diameter_meters"`
	MissDistanceAU         float64   `json:"miss_distance_au"`
	MissDistanceKm         float64   `json:"miss_distance_km"`
	VelocityKps            float64   `json:"velocity_kps"`
	VelocityKph            float64   `json:"velocity_kph"`
	CloseApproachDate      string    `json:"close_approach_date,omitempty"`
	IsPotentiallyHazardous bool      `json:"is_potentially_hazardous_asteroid"`
	RiskScore              int       `json:"risk_score"`
	RiskLevel              RiskLevel `json:"risk_level"`
	HighRisk               bool      `json:"high_risk"`
	Anomalies              []string  `json:"anomalies,omitempty"`
}

// NewNearEarthObject normalizes and scores a feed object.
func NewNearEarthObject(o FeedObject) NearEarthObject {
	in := NormalizeFeed(o)
	a := Assess(in, o.IsPotentiallyHazardous)

	neo := NearEarthObject{
		ID:                     o.ID,
		Name:                   o.Name,
		DisplayName:            DisplayName(o.Name),
		NasaJPLURL:             o.NasaJPLURL,
		DiameterMeters:         in.DiameterMeters,
		MissDistanceAU:         in.MissDistanceAU,
		MissDistanceKm:         in.MissDistanceAU * KilometersPerAU,
		VelocityKps:            in.VelocityKps,
		VelocityKph:            in.VelocityKps * 3600,
		IsPotentiallyHazardous: o.IsPotentiallyHazardous,
		RiskScore:              a.Score,
		RiskLevel:              a.Level,
		HighRisk:               a.HighRisk,
		Anomalies:              a.Anomalies,
	}
	if ca, ok := o.FirstApproach(); ok {
		neo.CloseApproachDate = ca.Date
		if ca.MissDistance != nil {
			neo.MissDistanceKm = ca.MissDistance.Kilometers.Float64Or(neo.MissDistanceKm)
		}
		if ca.RelativeVelocity != nil {
			neo.VelocityKph = ca.RelativeVelocity.KilometersPerHour.Float64Or(neo.VelocityKph)
		}
	}
	return neo
}

var parenStripper = strings.NewReplacer("(", "", ")", "")

// DisplayName strips decorative parentheses from a NeoWs designation.
func DisplayName(name string) string {
	return strings.TrimSpace(parenStripper.Replace(name))
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
