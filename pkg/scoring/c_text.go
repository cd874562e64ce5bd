package scoring

import (
	"fmt"
	"strings"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// TextComponent scores the severity boost from the report description.
type TextComponent struct{}

func (c *TextComponent) Key() string  { return KeyText }
func (c *TextComponent) Name() string { return "Text sentiment" }

func (c *TextComponent) Evaluate(fv features.Vector) ComponentScore {
	result := ComponentScore{
		Key:   c.Key(),
		Name:  c.Name(),
		Score: fv.Display.TextBoostNormalized * 100,
	}
	if fv.Context.HasText {
		result.Evidence = append(result.Evidence,
			fmt.Sprintf("boost %d/30, urgency %s", fv.Context.SeverityBoost, fv.Context.Urgency))
		if len(fv.Context.Keywords) > 0 {
			result.Evidence = append(result.Evidence, "keywords: "+strings.Join(fv.Context.Keywords, ", "))
		}
	}
	return result
}
