package scoring

import "fmt"

// Band is a closed integer score range mapped to a label.
type Band struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Label string `json:"label"`
}

// CategoryScheme is an ordered, exhaustive set of non-overlapping bands
// covering [0,100].
type CategoryScheme struct {
	Name  string `json:"name"`
	Bands []Band `json:"bands"`
}

// Category labels of the five-level scheme.
const (
	CategoryClean   = "Clean"
	CategoryLow     = "Low"
	CategoryMedium  = "Medium"
	CategoryHigh    = "High"
	CategoryExtreme = "Extreme"
)

// FiveLevel is the Clean/Low/Medium/High/Extreme scheme with boundaries
// at 20/40/60/80.
var FiveLevel = CategoryScheme{
	Name: "five_level",
	Bands: []Band{
		{0, 20, CategoryClean},
		{21, 40, CategoryLow},
		{41, 60, CategoryMedium},
		{61, 80, CategoryHigh},
		{81, 100, CategoryExtreme},
	},
}

// FourLevel is the low/medium/high/critical scheme with boundaries at
// 25/50/75.
var FourLevel = CategoryScheme{
	Name: "four_level",
	Bands: []Band{
		{0, 25, "low"},
		{26, 50, "medium"},
		{51, 75, "high"},
		{76, 100, "critical"},
	},
}

// SchemeByName returns a built-in scheme.
func SchemeByName(name string) (CategoryScheme, error) {
	switch name {
	case FiveLevel.Name, "":
		return FiveLevel, nil
	case FourLevel.Name:
		return FourLevel, nil
	default:
		return CategoryScheme{}, fmt.Errorf("unknown category scheme %q", name)
	}
}

// Categorize maps a score to its band label. Scores outside [0,100] are
// clamped first.
func (s CategoryScheme) Categorize(score int) string {
	score = clampInt(score, 0, 100)
	for _, b := range s.Bands {
		if score >= b.Min && score <= b.Max {
			return b.Label
		}
	}
	return ""
}

// Validate checks the bands are contiguous and cover exactly [0,100].
func (s CategoryScheme) Validate() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("scheme %q has no bands", s.Name)
	}
	next := 0
	for _, b := range s.Bands {
		if b.Min != next {
			return fmt.Errorf("scheme %q: band %q starts at %d, want %d", s.Name, b.Label, b.Min, next)
		}
		if b.Max < b.Min {
			return fmt.Errorf("scheme %q: band %q is empty", s.Name, b.Label)
		}
		next = b.Max + 1
	}
	if next != 101 {
		return fmt.Errorf("scheme %q ends at %d, want 100", s.Name, next-1)
	}
	return nil
}
