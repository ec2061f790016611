package domain

import "time"

// HazardAlert is published when a high-risk object is first seen in the
// alert window.
type HazardAlert struct {
	AsteroidID             string    `json:"asteroid_id"`
	Name                   string    `json:"name"`
	CloseApproachDate      string    `json:"close_approach_date"`
	RiskScore              int       `json:"risk_score"`
	RiskLevel              RiskLevel `json:"risk_level"`
	DiameterMeters         float64   `json:"diameter_meters"`
	MissDistanceKm         float64   `json:"miss_distance_km"`
	VelocityKps            float64   `json:"velocity_kps"`
	IsPotentiallyHazardous bool      `json:"is_potentially_hazardous_asteroid"`
	DetectedAt             time.Time `json:"detected_at"`
}

// NewHazardAlert builds an alert for a scored object.
func NewHazardAlert(o NearEarthObject) HazardAlert {
	return HazardAlert{
		AsteroidID:             o.ID,
		Name:                   o.DisplayName,
		CloseApproachDate:      o.CloseApproachDate,
		RiskScore:              o.RiskScore,
		RiskLevel:              o.RiskLevel,
		DiameterMeters:         o.DiameterMeters,
		MissDistanceKm:         o.MissDistanceKm,
		VelocityKps:            o.VelocityKps,
		IsPotentiallyHazardous: o.IsPotentiallyHazardous,
		DetectedAt:             clock.Now().UTC(),
	}
}

// DedupeKey identifies one approach of one object.
func (a HazardAlert) DedupeKey() string {
	return a.AsteroidID + "|" + a.CloseApproachDate
}
