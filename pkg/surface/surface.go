// Package surface renders severity results for people and programs.
// Implementations handle terminal, Markdown and JSON output.
package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

// Renderer produces formatted output from a SeverityResult.
type Renderer interface {
	// Render writes the formatted result to the writer.
	Render(w io.Writer, result *scoring.SeverityResult) error
}

// ForFormat returns the renderer for a --format flag value.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "text", "terminal", "":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or markdown)", format)
	}
}

// level buckets a category label across both schemes.
type level int

const (
	levelLow level = iota
	levelMedium
	levelHigh
)

func levelOf(category string) level {
	switch strings.ToLower(category) {
	case "high", "extreme", "critical":
		return levelHigh
	case "medium":
		return levelMedium
	default:
		return levelLow
	}
}

func methodLabel(r *scoring.SeverityResult) string {
	if r.PredictionMethod == scoring.MethodTrainedModel && r.ModelType != "" {
		return fmt.Sprintf("%s (%s)", r.PredictionMethod, r.ModelType)
	}
	return string(r.PredictionMethod)
}
