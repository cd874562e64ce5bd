package scoring

import (
	"fmt"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// LocationComponent rescales the [0.9,1.5] priority multiplier to [0,100].
type LocationComponent struct{}

func (c *LocationComponent) Key() string  { return KeyLocation }
func (c *LocationComponent) Name() string { return "Location context" }

func (c *LocationComponent) Evaluate(fv features.Vector) ComponentScore {
	m := fv.Display.LocationMultiplier
	span := signals.MaxMultiplier - signals.MinMultiplier
	score := clamp((m-signals.MinMultiplier)/span*100, 0, 100)

	return ComponentScore{
		Key:      c.Key(),
		Name:     c.Name(),
		Score:    score,
		Evidence: []string{fmt.Sprintf("multiplier %.2f in %s zone", m, fv.Context.Zone)},
	}
}
