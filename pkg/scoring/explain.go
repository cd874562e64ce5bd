package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// Explain builds the human-readable explanation for a final score.
func Explain(score int, category string, fv features.Vector) string {
	d, c := fv.Display, fv.Context
	parts := []string{fmt.Sprintf("Severity: %s (%d/100).", category, score)}

	if score >= 80 {
		parts = append(parts, "CRITICAL SITUATION DETECTED.")
	}

	n := int(d.ObjectCount)
	switch {
	case n == 0:
		parts = append(parts, "No garbage objects detected.")
	case n <= 3:
		parts = append(parts, fmt.Sprintf("Minimal garbage detected (%d items).", n))
	case n <= 10:
		parts = append(parts, fmt.Sprintf("Moderate amount of garbage detected (%d items).", n))
	default:
		parts = append(parts, fmt.Sprintf("Significant garbage accumulation (%d items).", n))
	}

	pct := round1(d.CoverageArea * 100)
	switch {
	case pct > 30:
		parts = append(parts, fmt.Sprintf("Garbage covers %.1f%% of the visible area.", pct))
	case pct > 10:
		parts = append(parts, fmt.Sprintf("Moderate spread (%.1f%% coverage).", pct))
	}

	if loc := c.HighestPriority; loc != nil {
		parts = append(parts, fmt.Sprintf("Located near %s (%s, %sm away).",
			loc.Name, loc.Type, strconv.FormatFloat(loc.DistanceMeters, 'f', -1, 64)))
		if d.LocationMultiplier > 1.2 {
			parts = append(parts, "HIGH PRIORITY due to sensitive location proximity.")
		}
	}

	if c.HasText {
		if c.Urgency == signals.UrgencyCritical || c.Urgency == signals.UrgencyHigh {
			parts = append(parts, fmt.Sprintf("User description indicates %s urgency.", c.Urgency))
		}
		if len(c.Keywords) > 0 {
			kw := c.Keywords
			if len(kw) > 3 {
				kw = kw[:3]
			}
			parts = append(parts, fmt.Sprintf("Keywords: %s.", strings.Join(kw, ", ")))
		}
	}

	switch {
	case c.UpvoteCount > 10:
		parts = append(parts, fmt.Sprintf("Community validated (%d upvotes).", c.UpvoteCount))
	case c.UpvoteCount > 5:
		parts = append(parts, fmt.Sprintf("Multiple reports (%d upvotes).", c.UpvoteCount))
	}

	if d.IsOpenDump > 0 {
		parts = append(parts, "OPEN DUMP DETECTED - Requires immediate attention.")
	}

	if c.RiskClass != "" && c.RiskClass != signals.RiskNone && c.RiskClass != "general waste" {
		parts = append(parts, fmt.Sprintf("Risk Detected: %s.", strings.ToUpper(c.RiskClass)))
	} else if d.HasOverflow > 0 {
		parts = append(parts, "Potential overflow or heavy accumulation detected.")
	}

	switch {
	case score >= 80:
		parts = append(parts, "IMMEDIATE ACTION REQUIRED.")
	case score >= 60:
		parts = append(parts, "Prompt action recommended.")
	}

	return strings.Join(parts, " ")
}
