// Package features turns a signals.Bundle into the canonical normalized
// feature record used by every severity calculator.
//
// The record has two views. The display view holds 21 named values in a
// fixed order and is echoed to callers verbatim for audit and debugging.
// The model view is a 7-value projection of the display view consumed by
// trained predictors and by the hybrid formula calculator.
package features

import (
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// DefaultSocialDivisor normalizes upvotes when a profile does not set one.
const DefaultSocialDivisor = 100.0

// MaxTextBoost is the ceiling of signals.TextAnalysis.SeverityBoost.
const MaxTextBoost = 30.0

// Names lists the display features in their fixed order.
var Names = [NumDisplay]string{
	"object_count",
	"coverage_area",
	"density",
	"has_overflow",
	"is_open_dump",
	"bin_detected",
	"dirtiness_score",
	"scene_confidence",
	"dirty_indicators",
	"clean_indicators",
	"location_multiplier",
	"zone_educational",
	"zone_healthcare",
	"zone_eco",
	"zone_residential",
	"sentiment_score",
	"text_boost_normalized",
	"urgency_critical",
	"urgency_high",
	"urgency_medium",
	"upvote_count_normalized",
}

// NumDisplay is the size of the display view.
const NumDisplay = 21

// Display is the 21-feature display view. Booleans are encoded as 0 or 1.
type Display struct {
	ObjectCount     float64 `json:"object_count"`
	CoverageArea    float64 `json:"coverage_area"`
	Density         float64 `json:"density"`
	HasOverflow     float64 `json:"has_overflow"`
	IsOpenDump      float64 `json:"is_open_dump"`
	BinDetected     float64 `json:"bin_detected"`
	DirtinessScore  float64 `json:"dirtiness_score"`
	SceneConfidence float64 `json:"scene_confidence"`
	DirtyIndicators float64 `json:"dirty_indicators"`
	CleanIndicators float64 `json:"clean_indicators"`

	LocationMultiplier float64 `json:"location_multiplier"`
	ZoneEducational    float64 `json:"zone_educational"`
	ZoneHealthcare     float64 `json:"zone_healthcare"`
	ZoneEco            float64 `json:"zone_eco"`
	ZoneResidential    float64 `json:"zone_residential"`

	SentimentScore      float64 `json:"sentiment_score"`
	TextBoostNormalized float64 `json:"text_boost_normalized"`
	UrgencyCritical     float64 `json:"urgency_critical"`
	UrgencyHigh         float64 `json:"urgency_high"`
	UrgencyMedium       float64 `json:"urgency_medium"`

	UpvoteCountNormalized float64 `json:"upvote_count_normalized"`
}

// Values returns the display view in Names order.
func (d Display) Values() [NumDisplay]float64 {
	return [NumDisplay]float64{
		d.ObjectCount, d.CoverageArea, d.Density, d.HasOverflow, d.IsOpenDump, d.BinDetected,
		d.DirtinessScore, d.SceneConfidence, d.DirtyIndicators, d.CleanIndicators,
		d.LocationMultiplier, d.ZoneEducational, d.ZoneHealthcare, d.ZoneEco, d.ZoneResidential,
		d.SentimentScore, d.TextBoostNormalized, d.UrgencyCritical, d.UrgencyHigh, d.UrgencyMedium,
		d.UpvoteCountNormalized,
	}
}

// Map returns the display view keyed by feature name.
func (d Display) Map() map[string]float64 {
	vals := d.Values()
	m := make(map[string]float64, NumDisplay)
	for i, name := range Names {
		m[name] = vals[i]
	}
	return m
}

// Context is the non-numeric audit data kept next to the display view.
// It feeds explanations and confidence, never the model view.
type Context struct {
	UpvoteCount     int                      `json:"upvote_count"`
	Zone            signals.Zone             `json:"zone"`
	Urgency         signals.Urgency          `json:"urgency"`
	SeverityBoost   int                      `json:"severity_boost"`
	Keywords        []string                 `json:"keywords"`
	RiskClass       string                   `json:"risk_class"`
	RiskScore       float64                  `json:"risk_score"`
	NearbyLocations []signals.NearbyLocation `json:"nearby_locations"`
	HighestPriority *signals.NearbyLocation  `json:"highest_priority_location,omitempty"`
	HasText         bool                     `json:"has_text"`
	HasLocation     bool                     `json:"has_location"`
}

// Vector is the canonical feature record for one report.
type Vector struct {
	Display       Display `json:"display"`
	Context       Context `json:"context"`
	SocialDivisor float64 `json:"social_divisor"`
}

// Options controls normalization choices fixed per deployment profile.
type Options struct {
	SocialDivisor float64
}

// Build normalizes b into a Vector. It never fails: missing optional
// signals become neutral values.
func Build(b signals.Bundle, opts Options) Vector {
	b = b.Normalize()
	divisor := opts.SocialDivisor
	if divisor <= 0 {
		divisor = DefaultSocialDivisor
	}

	od := b.ObjectDetection
	sc := b.SceneClassification
	d := Display{
		ObjectCount:     float64(od.Count),
		CoverageArea:    od.CoverageRatio,
		Density:         od.Density,
		HasOverflow:     boolf(od.HasOverflow),
		IsOpenDump:      boolf(od.IsOpenDump),
		BinDetected:     boolf(od.BinDetected),
		DirtinessScore:  sc.Dirtiness,
		SceneConfidence: sc.Confidence,
		DirtyIndicators: sc.DirtyIndicator,
		CleanIndicators: sc.CleanIndicator,
	}

	loc := signals.NeutralLocation()
	hasLocation := false
	if b.Location != nil {
		loc = *b.Location
		hasLocation = !loc.Degraded
	}
	d.LocationMultiplier = loc.PriorityMultiplier
	switch loc.ZoneType {
	case signals.ZoneEducational:
		d.ZoneEducational = 1
	case signals.ZoneHealthcare:
		d.ZoneHealthcare = 1
	case signals.ZoneEco:
		d.ZoneEco = 1
	case signals.ZoneResidential:
		d.ZoneResidential = 1
	}

	txt := signals.NeutralText()
	hasText := false
	if b.Text != nil {
		txt = *b.Text
		hasText = !txt.Degraded
	}
	d.SentimentScore = txt.SentimentScore
	d.TextBoostNormalized = float64(txt.SeverityBoost) / MaxTextBoost
	switch txt.UrgencyLevel {
	case signals.UrgencyCritical:
		d.UrgencyCritical = 1
	case signals.UrgencyHigh:
		d.UrgencyHigh = 1
	case signals.UrgencyMedium:
		d.UrgencyMedium = 1
	}

	d.UpvoteCountNormalized = normalizeUpvotes(b.Social.UpvoteCount, divisor)

	return Vector{
		Display: d,
		Context: Context{
			UpvoteCount:     b.Social.UpvoteCount,
			Zone:            loc.ZoneType,
			Urgency:         txt.UrgencyLevel,
			SeverityBoost:   txt.SeverityBoost,
			Keywords:        txt.Keywords,
			RiskClass:       txt.RiskClass,
			RiskScore:       txt.RiskScore,
			NearbyLocations: loc.NearbyLocations,
			HighestPriority: loc.HighestPriority,
			HasText:         hasText,
			HasLocation:     hasLocation,
		},
		SocialDivisor: divisor,
	}
}

// WithUpvotes returns a copy of v where only the social signal differs.
func (v Vector) WithUpvotes(upvotes int) Vector {
	if upvotes < 0 {
		upvotes = 0
	}
	divisor := v.SocialDivisor
	if divisor <= 0 {
		divisor = DefaultSocialDivisor
	}
	out := v
	out.Display.UpvoteCountNormalized = normalizeUpvotes(upvotes, divisor)
	out.Context.UpvoteCount = upvotes
	return out
}

func normalizeUpvotes(upvotes int, divisor float64) float64 {
	return math.Min(float64(upvotes)/divisor, 1.0)
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
