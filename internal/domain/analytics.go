package domain

// Fleet assessment bands on the high-risk percentage.
const (
	criticalPercent = 20.0
	warningPercent  = 5.0
)

// Assessment labels for Analytics.Assessment.
const (
	AssessmentCritical = "critical"
	AssessmentWarning  = "warning"
	AssessmentClear    = "clear"
)

// ObjectRef identifies the object behind an extreme in Analytics.
type ObjectRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Analytics summarizes a scored listing.
type Analytics struct {
	Total              int               `json:"total"`
	HighRiskCount      int               `json:"high_risk_count"`
	SafeCount          int               `json:"safe_count"`
	HighRiskPercent    float64           `json:"high_risk_percent"`
	LevelCounts        map[RiskLevel]int `json:"level_counts"`
	Closest            *ObjectRef        `json:"closest,omitempty"`
	Largest            *ObjectRef        `json:"largest,omitempty"`
	AverageVelocityKps float64           `json:"average_velocity_kps"`
	AverageVelocityKph float64           `json:"average_velocity_kph"`
	Assessment         string            `json:"assessment"`
}

// Summarize computes fleet statistics. High risk follows IsHighRisk, so the
// hazardous count here matches what the listing and alerts flag.
func Summarize(objs []NearEarthObject) Analytics {
	a := Analytics{
		Total: len(objs),
		LevelCounts: map[RiskLevel]int{
			RiskSafe:      0,
			RiskModerate:  0,
			RiskHazardous: 0,
		},
		Assessment: AssessmentClear,
	}
	if len(objs) == 0 {
		return a
	}

	var sumKps, sumKph float64
	for _, o := range objs {
		if o.HighRisk {
			a.HighRiskCount++
		}
		a.LevelCounts[o.RiskLevel]++
		sumKps += o.VelocityKps
		sumKph += o.VelocityKph

		if a.Closest == nil || o.MissDistanceKm < a.Closest.Value {
			a.Closest = &ObjectRef{ID: o.ID, Name: o.DisplayName, Value: o.MissDistanceKm}
		}
		if a.Largest == nil || o.DiameterMeters > a.Largest.Value {
			a.Largest = &ObjectRef{ID: o.ID, Name: o.DisplayName, Value: o.DiameterMeters}
		}
	}

	n := float64(len(objs))
	a.SafeCount = a.Total - a.HighRiskCount
	a.HighRiskPercent = float64(a.HighRiskCount) / n * 100
	a.AverageVelocityKps = sumKps / n
	a.AverageVelocityKph = sumKph / n

	switch {
	case a.HighRiskPercent > criticalPercent:
		a.Assessment = AssessmentCritical
	case a.HighRiskPercent > warningPercent:
		a.Assessment = AssessmentWarning
	}
	return a
}
