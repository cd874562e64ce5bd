package scoring

import (
	"fmt"
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// FormulaCalculator scores the 7 model-view features directly with a tuned
// linear combination and three threshold rules: a boost for wide coverage,
// a damping override for clean scenes and a floor for high risk.
type FormulaCalculator struct {
	coef FormulaCoefficients
}

// NewFormulaCalculator creates a formula calculator.
func NewFormulaCalculator(coef FormulaCoefficients) *FormulaCalculator {
	return &FormulaCalculator{coef: coef}
}

func (c *FormulaCalculator) Name() string { return "hybrid_formula" }

func (c *FormulaCalculator) Calculate(fv features.Vector) Calculation {
	raw, components := c.Evaluate(fv.ModelView())
	return Calculation{
		RawScore:   clamp(raw, 0, 100),
		Score:      clampInt(int(math.Round(raw)), 0, 100),
		Components: components,
		Confidence: blendConfidence(fv),
	}
}

// Evaluate applies the formula to a model view and returns the unclamped
// score with its per-term breakdown.
func (c *FormulaCalculator) Evaluate(mv features.ModelView) (float64, []ComponentScore) {
	k := c.coef

	terms := []struct {
		key, name string
		value     float64
		weight    float64
	}{
		{"coverage", "Coverage", mv[features.MCoverage], k.Coverage},
		{"dirtiness", "Dirtiness", mv[features.MDirtiness], k.Dirtiness},
		{"text_severity", "Text severity", mv[features.MTextSeverity], k.Text},
		{"location", "Location multiplier", mv[features.MLocationMultiplier], k.Location},
		{"social", "Social", mv[features.MSocial], k.Social},
		{"risk", "Risk factor", mv[features.MRisk], k.Risk},
	}

	components := make([]ComponentScore, 0, len(terms))
	var s float64
	for _, t := range terms {
		cs := ComponentScore{
			Key:    t.key,
			Name:   t.name,
			Score:  t.value * 100,
			Weight: t.weight,
		}
		cs.Contribution = cs.Score * cs.Weight
		s += cs.Contribution
		components = append(components, cs)
	}

	coverage, dirt, risk := mv[features.MCoverage], mv[features.MDirtiness], mv[features.MRisk]
	if coverage > k.CoverageBoostAbove {
		s *= k.CoverageBoost
		components[0].Evidence = append(components[0].Evidence,
			fmt.Sprintf("coverage above %.0f%%: x%.2f", k.CoverageBoostAbove*100, k.CoverageBoost))
	}
	// The clean override runs before the risk floor so a hazard is never damped.
	if coverage < k.CleanCoverageBelow && dirt < k.CleanDirtBelow {
		s *= k.CleanFactor
		components[1].Evidence = append(components[1].Evidence, "clean scene override")
	}
	if risk > k.RiskFloorAbove && s < k.RiskFloor {
		s = k.RiskFloor
		components[5].Evidence = append(components[5].Evidence,
			fmt.Sprintf("risk above %.1f: floor %.0f", k.RiskFloorAbove, k.RiskFloor))
	}

	return s, components
}
