package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/pkg/text"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sentiment", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		label := "negative"
		if req["text"] == "lovely clean street" {
			label = "positive"
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"label": label, "score": 0.93})
	})
	mux.HandleFunc("POST /zero-shot", func(w http.ResponseWriter, r *http.Request) {
		var req zeroShotRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, text.RiskLabels, req.Labels)
		_ = json.NewEncoder(w).Encode(zeroShotResponse{
			Labels: []string{"blocked road", "fire hazard", "medical waste"},
			Scores: []float64{0.2, 0.7, 0.1},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSentiment(t *testing.T) {
	c := New(newServer(t).URL+"/", "secret", 0)

	got, err := c.Sentiment(context.Background(), "garbage everywhere")
	require.NoError(t, err)
	assert.Equal(t, text.Sentiment{Label: text.LabelNegative, Score: 0.93}, got)

	got, err = c.Sentiment(context.Background(), "lovely clean street")
	require.NoError(t, err)
	assert.Equal(t, text.LabelPositive, got.Label)
}

func TestClassifyRiskPicksTopScore(t *testing.T) {
	c := New(newServer(t).URL, "secret", 0)

	got, err := c.ClassifyRisk(context.Background(), "smoke from the pile", text.RiskLabels)
	require.NoError(t, err)
	assert.Equal(t, text.Risk{Label: "fire hazard", Score: 0.7}, got)
}

func TestServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := New(srv.URL, "", 0)

	_, err := c.Sentiment(context.Background(), "garbage everywhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = c.ClassifyRisk(context.Background(), "garbage everywhere", text.RiskLabels)
	assert.Error(t, err)
}

func TestMalformedResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sentiment" {
			_, _ = w.Write([]byte(`{"label":"MIXED","score":0.5}`))
			return
		}
		_, _ = w.Write([]byte(`{"labels":["fire hazard"],"scores":[]}`))
	}))
	defer srv.Close()
	c := New(srv.URL, "", 0)

	_, err := c.Sentiment(context.Background(), "garbage everywhere")
	assert.ErrorContains(t, err, "unexpected label")
	_, err = c.ClassifyRisk(context.Background(), "garbage everywhere", text.RiskLabels)
	assert.ErrorContains(t, err, "malformed")
}

func TestResolverOverClient(t *testing.T) {
	c := New(newServer(t).URL, "secret", 0)
	r := text.NewResolver(text.WithSentiment(c), text.WithRisk(c))

	got := r.Analyze(context.Background(), "smoke rising from the dump, dangerous")
	assert.Equal(t, "fire hazard", got.RiskClass)
	assert.Equal(t, "critical", string(got.UrgencyLevel))
	assert.Equal(t, "angry", got.Emotion)
}
