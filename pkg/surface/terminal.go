package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

// TerminalRenderer renders SeverityResult as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func levelColor(l level) string {
	if noColor() {
		return ""
	}
	switch l {
	case levelHigh:
		return colorRed
	case levelMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

// bar draws a 20-cell gauge for a 0-100 value.
func bar(v float64) string {
	n := int(v/5 + 0.5)
	n = max(0, min(20, n))
	return strings.Repeat("#", n) + strings.Repeat(".", 20-n)
}

func (r *TerminalRenderer) Render(w io.Writer, result *scoring.SeverityResult) error {
	lc := levelColor(levelOf(result.Category))

	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("Severity: %s (%d/100)",
			colored(result.Category, lc), result.SeverityScore)))

	fmt.Fprintf(w, "Profile: %s  Method: %s  Confidence: %.0f%%\n",
		result.Profile, methodLabel(result), result.Confidence*100)
	fmt.Fprintf(w, "Zone: %s  Location multiplier: x%.2f\n",
		result.ZoneType, result.LocationMultiplier)
	if result.Calibrated {
		fmt.Fprintf(w, "Raw score: %.1f %s\n", result.RawScore, dim("(calibrated)"))
	}
	if result.RuleBased != nil {
		fmt.Fprintf(w, "Rule-based: %d (%s)\n", result.RuleBased.Score, result.RuleBased.Category)
	}
	fmt.Fprintln(w)

	if len(result.Breakdown) > 0 {
		fmt.Fprintln(w, "Components:")
		for _, c := range result.Breakdown {
			fmt.Fprintf(w, "  %-18s %s %5.1f x %.2f = %5.1f\n",
				c.Name, bar(c.Score), c.Score, c.Weight, c.Contribution)
			maxEvidence := min(len(c.Evidence), 5)
			for i := 0; i < maxEvidence; i++ {
				fmt.Fprintf(w, "      %s\n", dim(c.Evidence[i]))
			}
			if len(c.Evidence) > 5 {
				fmt.Fprintf(w, "      %s\n", dim(fmt.Sprintf("... and %d more", len(c.Evidence)-5)))
			}
		}
		fmt.Fprintln(w)
	}

	if result.Explanation != "" {
		fmt.Fprintln(w, "Assessment:")
		for _, line := range wrapText(result.Explanation, 70) {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
