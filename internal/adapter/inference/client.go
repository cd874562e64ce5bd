// Package inference is an HTTP client for the text classification
// service. It implements text.SentimentClassifier and text.RiskClassifier.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hotspot-prioritizer/hotspot/pkg/text"
)

// Client calls POST /sentiment and POST /zero-shot on the inference service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the service at baseURL. token, when set, is
// sent as a bearer token.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Sentiment classifies text as POSITIVE or NEGATIVE.
func (c *Client) Sentiment(ctx context.Context, s string) (text.Sentiment, error) {
	var out text.Sentiment
	if err := c.post(ctx, "/sentiment", map[string]string{"text": s}, &out); err != nil {
		return text.Sentiment{}, fmt.Errorf("sentiment: %w", err)
	}
	out.Label = strings.ToUpper(out.Label)
	if out.Label != text.LabelNegative && out.Label != text.LabelPositive {
		return text.Sentiment{}, fmt.Errorf("sentiment: unexpected label %q", out.Label)
	}
	return out, nil
}

type zeroShotRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

// zeroShotResponse lists labels ranked by score, highest first.
type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// ClassifyRisk returns the top-ranked candidate label.
func (c *Client) ClassifyRisk(ctx context.Context, s string, labels []string) (text.Risk, error) {
	var out zeroShotResponse
	if err := c.post(ctx, "/zero-shot", zeroShotRequest{Text: s, Labels: labels}, &out); err != nil {
		return text.Risk{}, fmt.Errorf("zero-shot: %w", err)
	}
	if len(out.Labels) == 0 || len(out.Labels) != len(out.Scores) {
		return text.Risk{}, fmt.Errorf("zero-shot: malformed response (%d labels, %d scores)", len(out.Labels), len(out.Scores))
	}
	best := 0
	for i, score := range out.Scores {
		if score > out.Scores[best] {
			best = i
		}
	}
	return text.Risk{Label: out.Labels[best], Score: out.Scores[best]}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("inference API error %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
