// Package model loads an optional trained severity predictor and evaluates
// it over the 7-value model view.
//
// Artifacts are JSON documents describing either a linear regressor or a
// multinomial logistic classifier, optionally with a standard scaler. They
// are produced offline by the training pipeline; this package only reads
// them.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// Model shapes.
const (
	TypeRegression     = "regression"
	TypeClassification = "classification"
)

// DefaultRegressionConfidence is reported when a regressor exposes no
// confidence of its own.
const DefaultRegressionConfidence = 0.8

// ErrNoArtifact is returned when no model artifact exists at the source.
var ErrNoArtifact = errors.New("model artifact not found")

// Prediction is a raw model output before calibration.
type Prediction struct {
	RawScore   float64 `json:"raw_score"`
	Confidence float64 `json:"confidence"`
	ModelType  string  `json:"model_type"`
	Class      int     `json:"class,omitempty"` // classification only
}

// Predictor maps a model view to a raw score. ok is false when no model is
// available.
type Predictor interface {
	Predict(mv features.ModelView) (p Prediction, ok bool)
}

// Artifact is the serialized form of a fitted model.
type Artifact struct {
	Type     string   `json:"type"`
	Version  string   `json:"version,omitempty"`
	Features []string `json:"features,omitempty"`
	Scaler   *Scaler  `json:"scaler,omitempty"`

	// Regression.
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Confidence   float64   `json:"confidence,omitempty"`

	// Classification: one weight row and intercept per class.
	Weights    [][]float64 `json:"weights,omitempty"`
	Intercepts []float64   `json:"intercepts,omitempty"`
}

// Scaler standardizes inputs as (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) apply(mv features.ModelView) features.ModelView {
	if s == nil {
		return mv
	}
	for i := range mv {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		mv[i] = (mv[i] - s.Mean[i]) / sc
	}
	return mv
}

// Parse decodes and validates an artifact, returning a ready predictor.
func Parse(data []byte) (Predictor, *Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(a.Features) > 0 && len(a.Features) != features.NumModel {
		return nil, nil, fmt.Errorf("artifact expects %d features, model view has %d", len(a.Features), features.NumModel)
	}
	if a.Scaler != nil && (len(a.Scaler.Mean) != features.NumModel || len(a.Scaler.Scale) != features.NumModel) {
		return nil, nil, fmt.Errorf("scaler must have %d entries", features.NumModel)
	}

	switch a.Type {
	case TypeRegression:
		if len(a.Coefficients) != features.NumModel {
			return nil, nil, fmt.Errorf("regression needs %d coefficients, got %d", features.NumModel, len(a.Coefficients))
		}
		conf := a.Confidence
		if conf <= 0 || conf > 1 {
			conf = DefaultRegressionConfidence
		}
		return &Regressor{coef: a.Coefficients, intercept: a.Intercept, scaler: a.Scaler, confidence: conf}, &a, nil
	case TypeClassification:
		if len(a.Weights) == 0 || len(a.Weights) != len(a.Intercepts) {
			return nil, nil, fmt.Errorf("classification needs matching weights and intercepts")
		}
		for i, row := range a.Weights {
			if len(row) != features.NumModel {
				return nil, nil, fmt.Errorf("class %d has %d weights, want %d", i, len(row), features.NumModel)
			}
		}
		return &Classifier{weights: a.Weights, intercepts: a.Intercepts, scaler: a.Scaler}, &a, nil
	default:
		return nil, nil, fmt.Errorf("unknown model type %q", a.Type)
	}
}

// Regressor is a fitted linear regression.
type Regressor struct {
	coef       []float64
	intercept  float64
	scaler     *Scaler
	confidence float64
}

// Predict returns the regression output clamped to [0,100].
func (r *Regressor) Predict(mv features.ModelView) (Prediction, bool) {
	x := r.scaler.apply(mv)
	y := r.intercept
	for i, c := range r.coef {
		y += c * x[i]
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return Prediction{}, false
	}
	return Prediction{
		RawScore:   math.Max(0, math.Min(100, y)),
		Confidence: r.confidence,
		ModelType:  TypeRegression,
	}, true
}

// Classifier is a fitted multinomial logistic model over severity classes.
// Class k maps to a raw score of (k+1) x 20.
type Classifier struct {
	weights    [][]float64
	intercepts []float64
	scaler     *Scaler
}

// Predict returns the most probable class band and its probability.
func (c *Classifier) Predict(mv features.ModelView) (Prediction, bool) {
	probs := c.Probabilities(mv)
	if probs == nil {
		return Prediction{}, false
	}
	best := 0
	for k, p := range probs {
		if p > probs[best] {
			best = k
		}
	}
	return Prediction{
		RawScore:   math.Min(float64(best+1)*20, 100),
		Confidence: probs[best],
		ModelType:  TypeClassification,
		Class:      best,
	}, true
}

// Probabilities returns the softmax class distribution, or nil when the
// logits are not finite.
func (c *Classifier) Probabilities(mv features.ModelView) []float64 {
	x := c.scaler.apply(mv)
	logits := make([]float64, len(c.weights))
	maxLogit := math.Inf(-1)
	for k, row := range c.weights {
		z := c.intercepts[k]
		for i, w := range row {
			z += w * x[i]
		}
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil
		}
		logits[k] = z
		maxLogit = math.Max(maxLogit, z)
	}
	var sum float64
	for k, z := range logits {
		logits[k] = math.Exp(z - maxLogit)
		sum += logits[k]
	}
	for k := range logits {
		logits[k] /= sum
	}
	return logits
}
