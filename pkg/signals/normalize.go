package signals

import "math"

// Bounds of the location priority multiplier.
const (
	MinMultiplier = 0.9
	MaxMultiplier = 1.5
	MaxBoost      = 30
)

// Normalize returns a copy of b with every numeric field clamped to its
// declared range. Out-of-range input is a best-effort signal, not an error.
func (b Bundle) Normalize() Bundle {
	out := b

	od := &out.ObjectDetection
	if od.Count < 0 {
		od.Count = 0
	}
	od.CoverageRatio = clamp01(od.CoverageRatio)
	od.Density = nonNegative(od.Density)

	sc := &out.SceneClassification
	sc.Dirtiness = clamp01(sc.Dirtiness)
	sc.Confidence = clamp01(sc.Confidence)
	sc.DirtyIndicator = clamp01(sc.DirtyIndicator)
	sc.CleanIndicator = clamp01(sc.CleanIndicator)

	if b.Location != nil {
		loc := *b.Location
		loc.PriorityMultiplier = clamp(loc.PriorityMultiplier, MinMultiplier, MaxMultiplier)
		if loc.ZoneType == "" {
			loc.ZoneType = ZoneCommercial
		}
		loc.NearbyLocations = append([]NearbyLocation(nil), b.Location.NearbyLocations...)
		for i := range loc.NearbyLocations {
			loc.NearbyLocations[i].DistanceMeters = nonNegative(loc.NearbyLocations[i].DistanceMeters)
		}
		out.Location = &loc
	}

	if b.Text != nil {
		txt := *b.Text
		txt.SentimentScore = clamp01(txt.SentimentScore)
		txt.RiskScore = clamp01(txt.RiskScore)
		if txt.SeverityBoost < 0 {
			txt.SeverityBoost = 0
		}
		if txt.SeverityBoost > MaxBoost {
			txt.SeverityBoost = MaxBoost
		}
		switch txt.UrgencyLevel {
		case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		default:
			txt.UrgencyLevel = UrgencyLow
		}
		if txt.RiskClass == "" {
			txt.RiskClass = RiskNone
		}
		txt.Keywords = append([]string(nil), b.Text.Keywords...)
		out.Text = &txt
	}

	if out.Social.UpvoteCount < 0 {
		out.Social.UpvoteCount = 0
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
