package text

import (
	"sort"
	"strings"
)

// Keyword is an urgency phrase and its weight in severity points.
type Keyword struct {
	Phrase string
	Weight int
}

// Keywords is the urgency vocabulary. Order breaks ties between equal
// weights.
var Keywords = []Keyword{
	{"critical", 30},
	{"emergency", 30},
	{"urgent", 25},
	{"immediate", 25},
	{"dangerous", 25},
	{"hazardous", 25},
	{"overflowing", 20},
	{"overflow", 20},
	{"severe", 20},
	{"terrible", 18},
	{"awful", 18},
	{"disgusting", 15},
	{"smelly", 15},
	{"stinking", 15},
	{"health hazard", 25},
	{"health risk", 25},
	{"blocking", 15},
	{"blocked", 15},
	{"piling up", 15},
	{"everywhere", 12},
	{"spreading", 12},
}

// MatchKeywords returns the vocabulary phrases contained in s
// (case-insensitive substring match), heaviest first.
func MatchKeywords(s string) []Keyword {
	lower := strings.ToLower(s)
	var found []Keyword
	for _, kw := range Keywords {
		if strings.Contains(lower, kw.Phrase) {
			found = append(found, kw)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Weight > found[j].Weight
	})
	return found
}
