package model_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
)

const regressionArtifact = `{
  "type": "regression",
  "version": "2024-06",
  "coefficients": [0, 50, 50, 0, 0, 0, 0],
  "intercept": 5
}`

const classificationArtifact = `{
  "type": "classification",
  "weights": [
    [0, 0, 0, 0, 0, 0, 0],
    [0, 0, 0, 0, 0, 0, 0],
    [0, 0, 0, 0, 0, 0, 0],
    [0, 10, 0, 0, 0, 0, 0],
    [0, 0, 0, 0, 0, 0, 0]
  ],
  "intercepts": [0, 0, 0, 0, 0]
}`

func TestRegressorPredict(t *testing.T) {
	p, a, err := model.Parse([]byte(regressionArtifact))
	require.NoError(t, err)
	assert.Equal(t, "2024-06", a.Version)

	got, ok := p.Predict(features.ModelView{0, 0.4, 0.6, 1, 0, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 55, got.RawScore, 1e-9)
	assert.Equal(t, model.DefaultRegressionConfidence, got.Confidence)
	assert.Equal(t, model.TypeRegression, got.ModelType)
}

func TestRegressorClampsOutput(t *testing.T) {
	p, _, err := model.Parse([]byte(`{"type":"regression","coefficients":[100,0,0,0,0,0,0],"intercept":-20}`))
	require.NoError(t, err)

	high, _ := p.Predict(features.ModelView{5})
	low, _ := p.Predict(features.ModelView{0})
	assert.Equal(t, 100.0, high.RawScore)
	assert.Equal(t, 0.0, low.RawScore)
}

func TestRegressorScaler(t *testing.T) {
	p, _, err := model.Parse([]byte(`{
		"type":"regression",
		"coefficients":[10,0,0,0,0,0,0],
		"intercept":50,
		"scaler":{"mean":[2,0,0,0,0,0,0],"scale":[2,1,1,1,1,1,1]}
	}`))
	require.NoError(t, err)

	got, ok := p.Predict(features.ModelView{6})
	require.True(t, ok)
	assert.InDelta(t, 70, got.RawScore, 1e-9)
}

func TestClassifierMapsClassToBand(t *testing.T) {
	p, _, err := model.Parse([]byte(classificationArtifact))
	require.NoError(t, err)

	got, ok := p.Predict(features.ModelView{0, 0.9})
	require.True(t, ok)
	assert.Equal(t, 3, got.Class)
	assert.Equal(t, 80.0, got.RawScore)
	assert.Greater(t, got.Confidence, 0.9)
	assert.Equal(t, model.TypeClassification, got.ModelType)

	// all logits equal: first class wins, probability 1/5
	got, ok = p.Predict(features.ModelView{})
	require.True(t, ok)
	assert.Equal(t, 20.0, got.RawScore)
	assert.InDelta(t, 0.2, got.Confidence, 1e-9)
}

func TestParseRejectsInvalidArtifacts(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"forest"}`},
		{"short coefficients", `{"type":"regression","coefficients":[1,2]}`},
		{"mismatched classes", `{"type":"classification","weights":[[0,0,0,0,0,0,0]],"intercepts":[]}`},
		{"short class row", `{"type":"classification","weights":[[0,0]],"intercepts":[0]}`},
		{"feature count", `{"type":"regression","features":["a"],"coefficients":[0,0,0,0,0,0,0]}`},
		{"short scaler", `{"type":"regression","coefficients":[0,0,0,0,0,0,0],"scaler":{"mean":[0],"scale":[1]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := model.Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

type countingSource struct {
	data  []byte
	err   error
	calls atomic.Int32
}

func (s *countingSource) Fetch(ctx context.Context) ([]byte, error) {
	s.calls.Add(1)
	return s.data, s.err
}

func (s *countingSource) String() string { return "test" }

func TestLoaderLoadsOnceUnderConcurrency(t *testing.T) {
	src := &countingSource{data: []byte(regressionArtifact)}
	l := model.NewLoader(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := l.Predict(features.ModelView{0, 0.5, 0.5})
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	info := l.Info()
	assert.True(t, info.Loaded)
	assert.Equal(t, model.TypeRegression, info.Type)
}

func TestLoaderMissingArtifactIsAbsent(t *testing.T) {
	l := model.NewLoader(model.FileSource(filepath.Join(t.TempDir(), "missing.json")), nil)

	_, ok := l.Predict(features.ModelView{})
	assert.False(t, ok)
	info := l.Info()
	assert.False(t, info.Loaded)
	assert.Equal(t, model.ErrNoArtifact.Error(), info.Error)
}

func TestLoaderCorruptArtifactIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"regression"}`), 0o644))

	l := model.NewLoader(model.FileSource(path), nil)
	_, ok := l.Predict(features.ModelView{})
	assert.False(t, ok)
	assert.NotEmpty(t, l.Info().Error)
}

func TestLoaderFetchErrorIsAbsent(t *testing.T) {
	src := &countingSource{err: errors.New("bucket unreachable")}
	l := model.NewLoader(src, nil)

	_, ok := l.Predict(features.ModelView{})
	assert.False(t, ok)
	_, ok = l.Predict(features.ModelView{})
	assert.False(t, ok)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestLoaderWithoutSource(t *testing.T) {
	l := model.NewLoader(nil, nil)
	_, ok := l.Predict(features.ModelView{})
	assert.False(t, ok)
}
