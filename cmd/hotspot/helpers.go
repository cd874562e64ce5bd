package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/internal/platform"
	"github.com/hotspot-prioritizer/hotspot/pkg/config"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// loadConfig reads the scoring config from path, or from the nearest
// .hotspot/config.yaml when path is empty. Missing files yield defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(wd)
		}
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func newLogger(g *globalOpts) *zap.Logger {
	logger, err := platform.NewLogger(g.logLevel, "console")
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// readBundle decodes a signal bundle from a file or stdin.
func readBundle(path string, stdin io.Reader) (signals.Bundle, error) {
	var b signals.Bundle
	data, err := readInput(path, stdin)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("decoding signal bundle: %w", err)
	}
	return b, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
