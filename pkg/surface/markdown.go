package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

// MarkdownRenderer produces a Markdown summary suitable for tickets and
// dashboards.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, result *scoring.SeverityResult) error {
	_, err := io.WriteString(w, BuildMarkdownSummary(result))
	return err
}

// BuildMarkdownSummary renders result as Markdown.
func BuildMarkdownSummary(result *scoring.SeverityResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s Severity: %s (%d/100)\n\n",
		levelIcon(levelOf(result.Category)), result.Category, result.SeverityScore))

	sb.WriteString("| Field | Value |\n|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Profile | %s |\n", result.Profile))
	sb.WriteString(fmt.Sprintf("| Method | %s |\n", methodLabel(result)))
	sb.WriteString(fmt.Sprintf("| Confidence | %.0f%% |\n", result.Confidence*100))
	sb.WriteString(fmt.Sprintf("| Zone | %s (x%.2f) |\n", result.ZoneType, result.LocationMultiplier))
	if result.RuleBased != nil {
		sb.WriteString(fmt.Sprintf("| Rule-based | %d (%s) |\n", result.RuleBased.Score, result.RuleBased.Category))
	}
	sb.WriteString("\n")

	if len(result.Breakdown) > 0 {
		sb.WriteString("### Components\n\n")
		for _, c := range result.Breakdown {
			sb.WriteString(fmt.Sprintf("- **%s** %.1f x %.2f = %.1f\n", c.Name, c.Score, c.Weight, c.Contribution))
			maxEv := min(len(c.Evidence), 3)
			for i := 0; i < maxEv; i++ {
				sb.WriteString(fmt.Sprintf("  - %s\n", c.Evidence[i]))
			}
		}
		sb.WriteString("\n")
	}

	if result.Explanation != "" {
		sb.WriteString("### Assessment\n\n")
		sb.WriteString(result.Explanation)
		sb.WriteString("\n")
	}

	return sb.String()
}

func levelIcon(l level) string {
	switch l {
	case levelHigh:
		return ":red_circle:"
	case levelMedium:
		return ":orange_circle:"
	default:
		return ":green_circle:"
	}
}
