package scoring

import (
	"fmt"
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// ImageComponent scores visual evidence: coverage, scene dirtiness and a
// logarithmic object count.
type ImageComponent struct {
	Weights ImageWeights
}

func (c *ImageComponent) Key() string  { return KeyImage }
func (c *ImageComponent) Name() string { return "Image analysis" }

func (c *ImageComponent) Evaluate(fv features.Vector) ComponentScore {
	d := fv.Display
	coverage := math.Min(d.CoverageArea*200, 100)
	scene := d.DirtinessScore * 100
	count := objectCountScore(d.ObjectCount)

	score := coverage*c.Weights.Coverage + scene*c.Weights.Dirtiness + count*c.Weights.Count

	return ComponentScore{
		Key:   c.Key(),
		Name:  c.Name(),
		Score: score,
		Evidence: []string{
			fmt.Sprintf("coverage %.1f%% -> %.1f", d.CoverageArea*100, coverage),
			fmt.Sprintf("dirtiness %.2f -> %.1f", d.DirtinessScore, scene),
			fmt.Sprintf("%.0f objects -> %.1f", d.ObjectCount, count),
		},
	}
}

// objectCountScore maps 1 object to 20 and 50 objects to 100 on a log scale.
func objectCountScore(n float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(20+math.Log(n)/math.Log(50)*80, 100)
}
