package scoring

import (
	"fmt"
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// SocialComponent scores community validation on a log scale that reaches
// 100 at 99 upvotes.
type SocialComponent struct{}

func (c *SocialComponent) Key() string  { return KeySocial }
func (c *SocialComponent) Name() string { return "Social signals" }

func (c *SocialComponent) Evaluate(fv features.Vector) ComponentScore {
	u := fv.Context.UpvoteCount
	var score float64
	if u > 0 {
		score = math.Min(math.Log(float64(u)+1)/math.Log(100)*100, 100)
	}
	return ComponentScore{
		Key:      c.Key(),
		Name:     c.Name(),
		Score:    score,
		Evidence: []string{fmt.Sprintf("%d upvotes", u)},
	}
}
