package scoring

import (
	"fmt"
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// RiskComponent adds points for overflow, open dumping and classified hazards.
type RiskComponent struct {
	Boosts Boosts
}

func (c *RiskComponent) Key() string  { return KeyRisk }
func (c *RiskComponent) Name() string { return "Risk factors" }

func (c *RiskComponent) Evaluate(fv features.Vector) ComponentScore {
	result := ComponentScore{Key: c.Key(), Name: c.Name()}
	var score float64

	if fv.Display.HasOverflow > 0 {
		score += c.Boosts.OverflowPoints
		result.Evidence = append(result.Evidence, "overflow detected")
	}
	if fv.Display.IsOpenDump > 0 {
		score += c.Boosts.OpenDumpPoints
		result.Evidence = append(result.Evidence, "open dump detected")
	}

	class := fv.Context.RiskClass
	if class != "" && class != signals.RiskNone && fv.Context.RiskScore > c.Boosts.RiskAcceptThreshold {
		score += c.Boosts.ClassifiedRiskPoints
		if DangerousRisks[class] {
			score += c.Boosts.DangerousRiskPoints
		}
		result.Evidence = append(result.Evidence,
			fmt.Sprintf("classified risk %q (%.2f)", class, fv.Context.RiskScore))
	}

	result.Score = math.Min(score, 100)
	return result
}
