package features

import "math"

// ModelView is the 7-value projection consumed by trained predictors.
type ModelView [NumModel]float64

// NumModel is the size of the model view.
const NumModel = 7

// Model view indexes.
const (
	MObjectCount = iota
	MCoverage
	MDirtiness
	MLocationMultiplier
	MTextSeverity
	MSocial
	MRisk
)

// ModelNames lists the model view features in order.
var ModelNames = [NumModel]string{
	"object_count",
	"coverage_ratio",
	"dirtiness",
	"location_multiplier",
	"text_severity_combined",
	"normalized_social_score",
	"risk_factor",
}

// Project derives the model view from a display view.
func Project(d Display) ModelView {
	return ModelView{
		MObjectCount:        d.ObjectCount,
		MCoverage:           d.CoverageArea,
		MDirtiness:          d.DirtinessScore,
		MLocationMultiplier: d.LocationMultiplier,
		MTextSeverity:       d.TextBoostNormalized,
		MSocial:             d.UpvoteCountNormalized,
		MRisk:               math.Max(d.HasOverflow, math.Max(d.IsOpenDump, d.UrgencyCritical)),
	}
}

// ModelView projects the vector's display view.
func (v Vector) ModelView() ModelView {
	return Project(v.Display)
}
