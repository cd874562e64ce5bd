package scoring

import (
	"fmt"
	"math"
)

// Component keys of the rule-based calculator.
const (
	KeyImage    = "image_analysis"
	KeyLocation = "location_context"
	KeyText     = "text_sentiment"
	KeySocial   = "social_signals"
	KeyRisk     = "risk_factors"
)

// Weights holds the rule-based fusion weights. They must sum to 1.0.
type Weights map[string]float64

// DefaultWeights returns the default rule-based fusion weights.
func DefaultWeights() Weights {
	return Weights{
		KeyImage:    0.40,
		KeyLocation: 0.25,
		KeyText:     0.20,
		KeySocial:   0.10,
		KeyRisk:     0.05,
	}
}

// Validate checks every component has a non-negative weight and the total is 1.0.
func (w Weights) Validate() error {
	var sum float64
	for _, key := range []string{KeyImage, KeyLocation, KeyText, KeySocial, KeyRisk} {
		v, ok := w[key]
		if !ok {
			return fmt.Errorf("missing weight %q", key)
		}
		if v < 0 {
			return fmt.Errorf("weight %q is negative", key)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %.4f, want 1.0", sum)
	}
	return nil
}

// ImageWeights splits the image component into its sub-scores.
type ImageWeights struct {
	Coverage  float64
	Dirtiness float64
	Count     float64
}

// DefaultImageWeights returns the default image sub-weights.
func DefaultImageWeights() ImageWeights {
	return ImageWeights{Coverage: 0.375, Dirtiness: 0.375, Count: 0.25}
}

// Boosts holds the post-fusion adjustments of the rule-based calculator.
type Boosts struct {
	UrgencyCritical float64 // flat points
	UrgencyHigh     float64 // flat points

	OpenDumpFactor       float64 // multiplier when open dump near a sensitive location
	OpenDumpMinLocation  float64 // location multiplier above which OpenDumpFactor applies
	RiskAcceptThreshold  float64 // classified risk must exceed this to count
	OverflowPoints       float64
	OpenDumpPoints       float64
	ClassifiedRiskPoints float64
	DangerousRiskPoints  float64
}

// DefaultBoosts returns the default adjustments.
func DefaultBoosts() Boosts {
	return Boosts{
		UrgencyCritical:      15,
		UrgencyHigh:          10,
		OpenDumpFactor:       1.1,
		OpenDumpMinLocation:  1.2,
		RiskAcceptThreshold:  0.6,
		OverflowPoints:       40,
		OpenDumpPoints:       40,
		ClassifiedRiskPoints: 30,
		DangerousRiskPoints:  20,
	}
}

// DangerousRisks are risk classes that earn extra risk points.
var DangerousRisks = map[string]bool{
	"fire hazard":    true,
	"toxic chemical": true,
	"medical waste":  true,
}

// FormulaCoefficients configures the hybrid formula calculator. Each
// coefficient multiplies the corresponding model-view feature scaled to 0-100.
type FormulaCoefficients struct {
	Coverage  float64
	Dirtiness float64
	Text      float64
	Location  float64
	Social    float64
	Risk      float64

	CoverageBoostAbove float64
	CoverageBoost      float64
	RiskFloorAbove     float64
	RiskFloor          float64
	CleanCoverageBelow float64
	CleanDirtBelow     float64
	CleanFactor        float64
}

// DefaultFormulaCoefficients returns the tuned garbage-profile coefficients.
func DefaultFormulaCoefficients() FormulaCoefficients {
	return FormulaCoefficients{
		Coverage:  0.45,
		Dirtiness: 0.35,
		Text:      0.10,
		Location:  0.20,
		Social:    0.10,
		Risk:      0.20,

		CoverageBoostAbove: 0.4,
		CoverageBoost:      1.25,
		RiskFloorAbove:     0.8,
		RiskFloor:          85,
		CleanCoverageBelow: 0.1,
		CleanDirtBelow:     0.15,
		CleanFactor:        0.1,
	}
}
