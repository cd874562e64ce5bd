package scoring

import (
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// Calculator turns a feature vector into a severity score. The two
// implementations are alternate scoring profiles selected per report domain.
type Calculator interface {
	// Name returns the machine-readable calculator identifier.
	Name() string
	// Calculate scores the vector. It is pure and never fails.
	Calculate(fv features.Vector) Calculation
}

// Component is one weighted sub-score of the rule-based calculator.
type Component interface {
	// Key returns the machine-readable component identifier.
	Key() string
	// Name returns the human-readable component name.
	Name() string
	// Evaluate computes the 0-100 sub-score for a vector.
	Evaluate(fv features.Vector) ComponentScore
}

// RuleCalculator fuses weighted component sub-scores, then applies location
// amplification, urgency boosts and open-dump escalation.
type RuleCalculator struct {
	components []Component
	weights    Weights
	boosts     Boosts
}

// NewRuleCalculator creates a rule-based calculator. Weights are looked up
// by component key.
func NewRuleCalculator(weights Weights, boosts Boosts, components ...Component) *RuleCalculator {
	return &RuleCalculator{components: components, weights: weights, boosts: boosts}
}

func (c *RuleCalculator) Name() string { return "rule_based" }

func (c *RuleCalculator) Calculate(fv features.Vector) Calculation {
	d := fv.Display
	var calc Calculation
	var base float64

	for _, comp := range c.components {
		cs := comp.Evaluate(fv)
		cs.Weight = c.weights[cs.Key]
		cs.Contribution = cs.Score * cs.Weight
		base += cs.Contribution
		calc.Components = append(calc.Components, cs)
	}

	severity := base * d.LocationMultiplier

	switch {
	case d.UrgencyCritical > 0:
		severity += c.boosts.UrgencyCritical
	case d.UrgencyHigh > 0:
		severity += c.boosts.UrgencyHigh
	}

	if d.IsOpenDump > 0 && d.LocationMultiplier > c.boosts.OpenDumpMinLocation {
		severity *= c.boosts.OpenDumpFactor
	}

	calc.RawScore = clamp(severity, 0, 100)
	calc.Score = clampInt(int(math.Round(severity)), 0, 100)
	calc.Confidence = blendConfidence(fv)
	return calc
}
