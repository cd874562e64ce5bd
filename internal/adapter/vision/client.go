// Package vision is an HTTP client for the image detector service.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// Result is the detector's output for one image.
type Result struct {
	ObjectDetection     signals.ObjectDetection     `json:"objectDetection"`
	SceneClassification signals.SceneClassification `json:"sceneClassification"`
}

// Client calls POST /analyze on the detector service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a detector client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze runs detection and scene classification on the image at imageURL.
func (c *Client) Analyze(ctx context.Context, imageURL string) (Result, error) {
	jsonBody, err := json.Marshal(map[string]string{"imageUrl": imageURL})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(jsonBody))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("detector API error %d: %s", resp.StatusCode, string(respBody))
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode analyze response: %w", err)
	}
	return out, nil
}
