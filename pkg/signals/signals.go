// Package signals defines the per-report evidence consumed by the severity
// engine. A Bundle is assembled fresh for every scoring request from the
// vision, text, location and social collaborators.
package signals

// Zone is the category of the dominant sensitive location near a report.
type Zone string

const (
	ZoneEducational Zone = "educational"
	ZoneHealthcare  Zone = "healthcare"
	ZoneEco         Zone = "eco"
	ZoneResidential Zone = "residential"
	ZoneCommercial  Zone = "commercial"
	ZoneIndustrial  Zone = "industrial"
)

// Urgency is the bucketed urgency level derived from report text.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// RiskNone is the sentinel risk class meaning no risk was accepted.
const RiskNone = "none"

// Bundle is the complete set of resolved signals for one report.
type Bundle struct {
	ObjectDetection     ObjectDetection     `json:"objectDetection"`
	SceneClassification SceneClassification `json:"sceneClassification"`
	Location            *LocationContext    `json:"locationContext,omitempty"`
	Text                *TextAnalysis       `json:"textAnalysis,omitempty"`
	Social              Social              `json:"socialSignal"`
}

// ObjectDetection is the output contract of the object detector.
type ObjectDetection struct {
	Count         int     `json:"count"`
	CoverageRatio float64 `json:"coverageRatio"`
	Density       float64 `json:"density"`
	HasOverflow   bool    `json:"hasOverflow"`
	IsOpenDump    bool    `json:"isOpenDump"`
	BinDetected   bool    `json:"binDetected"`
}

// SceneClassification is the output contract of the scene classifier.
type SceneClassification struct {
	Dirtiness      float64 `json:"dirtiness"`
	Confidence     float64 `json:"confidence"`
	DirtyIndicator float64 `json:"dirtyIndicator"`
	CleanIndicator float64 `json:"cleanIndicator"`
}

// NearbyLocation is a sensitive point of interest close to a report.
type NearbyLocation struct {
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// LocationContext is the output contract of the location resolver.
type LocationContext struct {
	PriorityMultiplier float64          `json:"priorityMultiplier"`
	ZoneType           Zone             `json:"zoneType"`
	NearbyLocations    []NearbyLocation `json:"nearbyLocations"`
	HighestPriority    *NearbyLocation  `json:"highestPriorityLocation"`
	// Degraded is set when the lookup failed and the neutral default was returned.
	Degraded bool `json:"degraded,omitempty"`
}

// TextAnalysis is the output contract of the text urgency resolver.
type TextAnalysis struct {
	SentimentScore float64  `json:"sentimentScore"`
	UrgencyLevel   Urgency  `json:"urgencyLevel"`
	SeverityBoost  int      `json:"severityBoost"`
	Keywords       []string `json:"keywords"`
	RiskClass      string   `json:"riskClass"`
	RiskScore      float64  `json:"riskScore"`
	Emotion        string   `json:"emotion,omitempty"`
	Degraded       bool     `json:"degraded,omitempty"`
}

// Social carries community validation for a report.
type Social struct {
	UpvoteCount int `json:"upvoteCount"`
}

// NeutralLocation is the default returned when no location context is available.
func NeutralLocation() LocationContext {
	return LocationContext{
		PriorityMultiplier: 1.0,
		ZoneType:           ZoneCommercial,
		NearbyLocations:    []NearbyLocation{},
	}
}

// NeutralText is the default returned when text is missing or cannot be analyzed.
func NeutralText() TextAnalysis {
	return TextAnalysis{
		UrgencyLevel: UrgencyLow,
		Keywords:     []string{},
		RiskClass:    RiskNone,
		Emotion:      "neutral",
	}
}
