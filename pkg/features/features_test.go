package features_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

func fullBundle() signals.Bundle {
	return signals.Bundle{
		ObjectDetection: signals.ObjectDetection{
			Count: 12, CoverageRatio: 0.35, Density: 0.8, HasOverflow: true, BinDetected: true,
		},
		SceneClassification: signals.SceneClassification{
			Dirtiness: 0.7, Confidence: 0.9, DirtyIndicator: 0.75, CleanIndicator: 0.1,
		},
		Location: &signals.LocationContext{
			PriorityMultiplier: 1.4,
			ZoneType:           signals.ZoneHealthcare,
		},
		Text: &signals.TextAnalysis{
			SentimentScore: 0.8,
			UrgencyLevel:   signals.UrgencyHigh,
			SeverityBoost:  21,
			Keywords:       []string{"overflowing", "smelly"},
			RiskClass:      "overflowing garbage",
			RiskScore:      0.7,
		},
		Social: signals.Social{UpvoteCount: 30},
	}
}

func TestBuildNeutralDefaults(t *testing.T) {
	v := features.Build(signals.Bundle{}, features.Options{})

	assert.Equal(t, 1.0, v.Display.LocationMultiplier)
	assert.Equal(t, signals.ZoneCommercial, v.Context.Zone)
	assert.Equal(t, signals.UrgencyLow, v.Context.Urgency)
	assert.Equal(t, signals.RiskNone, v.Context.RiskClass)
	assert.False(t, v.Context.HasText)
	assert.False(t, v.Context.HasLocation)
	assert.Equal(t, features.DefaultSocialDivisor, v.SocialDivisor)

	vals := v.Display.Values()
	for i, val := range vals {
		if features.Names[i] == "location_multiplier" {
			continue
		}
		assert.Zerof(t, val, "feature %s", features.Names[i])
	}
}

func TestBuildFullBundle(t *testing.T) {
	v := features.Build(fullBundle(), features.Options{SocialDivisor: 50})

	d := v.Display
	assert.Equal(t, 12.0, d.ObjectCount)
	assert.Equal(t, 1.0, d.HasOverflow)
	assert.Equal(t, 0.0, d.IsOpenDump)
	assert.Equal(t, 1.0, d.BinDetected)
	assert.Equal(t, 1.0, d.ZoneHealthcare)
	assert.Equal(t, 0.0, d.ZoneEducational+d.ZoneEco+d.ZoneResidential)
	assert.InDelta(t, 0.7, d.TextBoostNormalized, 1e-9)
	assert.Equal(t, 1.0, d.UrgencyHigh)
	assert.Equal(t, 0.6, d.UpvoteCountNormalized)
	assert.True(t, v.Context.HasText)
	assert.True(t, v.Context.HasLocation)
}

func TestBuildZoneOneHot(t *testing.T) {
	tests := []struct {
		zone signals.Zone
		want [4]float64
	}{
		{signals.ZoneEducational, [4]float64{1, 0, 0, 0}},
		{signals.ZoneHealthcare, [4]float64{0, 1, 0, 0}},
		{signals.ZoneEco, [4]float64{0, 0, 1, 0}},
		{signals.ZoneResidential, [4]float64{0, 0, 0, 1}},
		{signals.ZoneCommercial, [4]float64{0, 0, 0, 0}},
		{signals.ZoneIndustrial, [4]float64{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.zone), func(t *testing.T) {
			b := signals.Bundle{Location: &signals.LocationContext{PriorityMultiplier: 1.1, ZoneType: tt.zone}}
			d := features.Build(b, features.Options{}).Display
			assert.Equal(t, tt.want, [4]float64{d.ZoneEducational, d.ZoneHealthcare, d.ZoneEco, d.ZoneResidential})
		})
	}
}

func TestBuildSocialSaturates(t *testing.T) {
	b := signals.Bundle{Social: signals.Social{UpvoteCount: 500}}
	assert.Equal(t, 1.0, features.Build(b, features.Options{}).Display.UpvoteCountNormalized)
}

func TestDegradedSignalsCountAsAbsent(t *testing.T) {
	b := signals.Bundle{}
	loc := signals.NeutralLocation()
	loc.Degraded = true
	txt := signals.NeutralText()
	txt.Degraded = true
	b.Location, b.Text = &loc, &txt

	v := features.Build(b, features.Options{})
	assert.False(t, v.Context.HasLocation)
	assert.False(t, v.Context.HasText)
}

func TestDisplayJSONKeepsFeatureNames(t *testing.T) {
	v := features.Build(fullBundle(), features.Options{})
	data, err := json.Marshal(v.Display)
	require.NoError(t, err)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, features.NumDisplay)
	for _, name := range features.Names {
		assert.Contains(t, decoded, name)
	}
	assert.Equal(t, v.Display.Map(), decoded)
}

func TestModelViewProjection(t *testing.T) {
	v := features.Build(fullBundle(), features.Options{SocialDivisor: 50})
	mv := v.ModelView()

	assert.Equal(t, 12.0, mv[features.MObjectCount])
	assert.Equal(t, 0.35, mv[features.MCoverage])
	assert.Equal(t, 0.7, mv[features.MDirtiness])
	assert.Equal(t, 1.4, mv[features.MLocationMultiplier])
	assert.InDelta(t, 0.7, mv[features.MTextSeverity], 1e-9)
	assert.Equal(t, 0.6, mv[features.MSocial])
	assert.Equal(t, 1.0, mv[features.MRisk])
	assert.Equal(t, features.Project(v.Display), mv)
}

func TestModelViewRiskFromCriticalUrgency(t *testing.T) {
	b := signals.Bundle{Text: &signals.TextAnalysis{UrgencyLevel: signals.UrgencyCritical, SeverityBoost: 30}}
	mv := features.Build(b, features.Options{}).ModelView()
	assert.Equal(t, 1.0, mv[features.MRisk])
}

func TestWithUpvotesChangesOnlySocial(t *testing.T) {
	orig := features.Build(fullBundle(), features.Options{SocialDivisor: 50})
	updated := orig.WithUpvotes(45)

	before, after := orig.Display.Values(), updated.Display.Values()
	for i := range before {
		if features.Names[i] == "upvote_count_normalized" {
			assert.InDelta(t, 0.9, after[i], 1e-9)
			continue
		}
		assert.Equalf(t, before[i], after[i], "feature %s changed", features.Names[i])
	}
	assert.Equal(t, 45, updated.Context.UpvoteCount)
	assert.Equal(t, 30, orig.Context.UpvoteCount)

	rebuilt := fullBundle()
	rebuilt.Social.UpvoteCount = 45
	assert.Equal(t, features.Build(rebuilt, features.Options{SocialDivisor: 50}), updated)
}
