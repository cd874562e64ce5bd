package scoring

import "math"

// CalibrationVersion identifies the calibration curve. Changing the curve
// invalidates stored historical scores and must bump this value.
const CalibrationVersion = "v1"

// Calibrate stretches a raw model score: below 40 unchanged, [40,70) x1.15,
// 70 and above x1.25 capped at 100. Fractional scores below 40 round up so
// the result never falls under the raw score; stretched scores truncate.
func Calibrate(raw float64) int {
	raw = clamp(raw, 0, 100)
	var v float64
	switch {
	case raw < 40:
		v = math.Ceil(raw)
	case raw < 70:
		v = raw * 1.15
	default:
		v = raw * 1.25
	}
	return clampInt(int(math.Floor(v)), 0, 100)
}
