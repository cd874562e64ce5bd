package surface

import (
	"encoding/json"
	"io"

	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

// JSONRenderer marshals SeverityResult to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, result *scoring.SeverityResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
