// Package scoring implements the Hotspot severity fusion engine.
// It fuses normalized report features into an explainable 0-100 severity
// score, optionally deferring to a trained model with fixed calibration.
package scoring

import (
	"time"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// Method records which score source produced a result.
type Method string

const (
	MethodRuleBased    Method = "rule_based"
	MethodTrainedModel Method = "trained_model"
)

// SeverityResult is the complete output of scoring one report.
// Immutable once computed.
type SeverityResult struct {
	RawScore           float64            `json:"rawScore"`
	SeverityScore      int                `json:"severityScore"`
	Category           string             `json:"category"`
	Confidence         float64            `json:"confidence"`
	PredictionMethod   Method             `json:"predictionMethod"`
	ComponentScores    map[string]float64 `json:"componentScores"`
	Explanation        string             `json:"explanation"`
	LocationMultiplier float64            `json:"locationMultiplier"`
	ZoneType           signals.Zone       `json:"zoneType"`

	Profile            string           `json:"profile"`
	Breakdown          []ComponentScore `json:"breakdown"`
	RuleBased          *RuleBasedView   `json:"ruleBased,omitempty"` // trained_model only
	ModelType          string           `json:"modelType,omitempty"`
	Calibrated         bool             `json:"calibrated"`
	CalibrationVersion string           `json:"calibrationVersion,omitempty"`
	Features           features.Display `json:"features"`
	ScoredAt           time.Time        `json:"scoredAt"`
}

// RuleBasedView is the rule-based result kept next to a model prediction
// for side-by-side comparison.
type RuleBasedView struct {
	Score       int     `json:"score"`
	RawScore    float64 `json:"rawScore"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// ComponentScore is the output of a single scoring component.
type ComponentScore struct {
	Key          string   `json:"key"`          // machine key: "image_analysis"
	Name         string   `json:"name"`         // human name: "Image analysis"
	Score        float64  `json:"score"`        // 0-100 sub-score
	Weight       float64  `json:"weight"`       // fusion weight
	Contribution float64  `json:"contribution"` // Score x Weight
	Evidence     []string `json:"evidence,omitempty"`
}

// Calculation is what a Calculator produces before category mapping.
type Calculation struct {
	RawScore   float64
	Score      int
	Components []ComponentScore
	Confidence float64
}

// ComponentMap flattens components into the "<key>_score" mapping exposed
// on SeverityResult, rounded to one decimal.
func (c Calculation) ComponentMap() map[string]float64 {
	m := make(map[string]float64, len(c.Components))
	for _, cs := range c.Components {
		m[cs.Key+"_score"] = round1(cs.Score)
	}
	return m
}
