package scoring

import "github.com/hotspot-prioritizer/hotspot/pkg/features"

// Sub-confidences for signals that were or were not supplied.
const (
	defaultSceneConfidence = 0.5
	detectionPresent       = 0.8
	detectionAbsent        = 0.4
	signalPresent          = 0.9
	signalAbsent           = 0.5
)

// blendConfidence weighs scene, detection, text and location confidence.
// Degraded collaborator output counts as absent.
func blendConfidence(fv features.Vector) float64 {
	scene := fv.Display.SceneConfidence
	if scene <= 0 {
		scene = defaultSceneConfidence
	}
	detection := detectionAbsent
	if fv.Display.ObjectCount > 0 {
		detection = detectionPresent
	}
	text := signalAbsent
	if fv.Context.HasText {
		text = signalPresent
	}
	location := signalAbsent
	if fv.Context.HasLocation {
		location = signalPresent
	}
	return round3(scene*0.3 + detection*0.3 + text*0.2 + location*0.2)
}
