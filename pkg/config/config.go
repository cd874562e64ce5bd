// Package config loads the Hotspot scoring configuration: profiles,
// category routing, fusion weights, location radius and model source.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hotspot-prioritizer/hotspot/pkg/location"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
)

// Calculator variants selectable per profile.
const (
	CalculatorRule    = "rule"
	CalculatorFormula = "formula"
)

// Config is the top-level scoring configuration.
type Config struct {
	DefaultProfile   string                   `yaml:"default_profile"`
	CategoryProfiles map[string]string        `yaml:"category_profiles"`
	Profiles         map[string]ProfileConfig `yaml:"profiles"`
	Weights          map[string]float64       `yaml:"weights"`
	Location         LocationConfig           `yaml:"location"`
	Model            ModelConfig              `yaml:"model"`
}

// ProfileConfig fixes the scoring choices of one report domain.
type ProfileConfig struct {
	Calculator    string  `yaml:"calculator"` // rule | formula
	Scheme        string  `yaml:"scheme"`     // five_level | four_level
	SocialDivisor float64 `yaml:"social_divisor"`
	UseModel      bool    `yaml:"use_model"`
}

// LocationConfig controls POI lookups.
type LocationConfig struct {
	Radius int `yaml:"radius"` // meters
}

// ModelConfig says where the trained model artifact lives. Blob takes
// precedence when blob storage is available.
type ModelConfig struct {
	Path string `yaml:"path"`
	Blob string `yaml:"blob"`
}

// DefaultConfig returns the built-in general and garbage profiles with
// pothole reports routed to general.
func DefaultConfig() *Config {
	return &Config{
		DefaultProfile: scoring.ProfileGeneral,
		CategoryProfiles: map[string]string{
			"garbage": scoring.ProfileGarbage,
			"pothole": scoring.ProfileGeneral,
		},
		Profiles: map[string]ProfileConfig{
			scoring.ProfileGeneral: {
				Calculator:    CalculatorRule,
				Scheme:        scoring.FiveLevel.Name,
				SocialDivisor: 100,
				UseModel:      true,
			},
			scoring.ProfileGarbage: {
				Calculator:    CalculatorFormula,
				Scheme:        scoring.FourLevel.Name,
				SocialDivisor: 50,
				UseModel:      true,
			},
		},
		Weights:  scoring.DefaultWeights(),
		Location: LocationConfig{Radius: location.DefaultRadius},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks weights, schemes, calculators and routes.
func (c *Config) Validate() error {
	if err := scoring.Weights(c.Weights).Validate(); err != nil {
		return err
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles configured")
	}
	for name, p := range c.Profiles {
		if p.Calculator != CalculatorRule && p.Calculator != CalculatorFormula {
			return fmt.Errorf("profile %q: unknown calculator %q", name, p.Calculator)
		}
		if _, err := scoring.SchemeByName(p.Scheme); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		if p.SocialDivisor < 0 {
			return fmt.Errorf("profile %q: social_divisor must be positive", name)
		}
	}
	if _, ok := c.Profiles[c.DefaultProfile]; !ok {
		return fmt.Errorf("default_profile %q is not configured", c.DefaultProfile)
	}
	for category, name := range c.CategoryProfiles {
		if _, ok := c.Profiles[name]; !ok {
			return fmt.Errorf("category %q routes to unknown profile %q", category, name)
		}
	}
	if c.Location.Radius < 0 {
		return fmt.Errorf("location radius must be positive")
	}
	return nil
}

// BuildProfiles turns the profile configs into scoring profiles, sorted by
// name with the default profile first.
func (c *Config) BuildProfiles() ([]scoring.Profile, error) {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == c.DefaultProfile) != (names[j] == c.DefaultProfile) {
			return names[i] == c.DefaultProfile
		}
		return names[i] < names[j]
	})

	profiles := make([]scoring.Profile, 0, len(names))
	for _, name := range names {
		pc := c.Profiles[name]
		scheme, err := scoring.SchemeByName(pc.Scheme)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}

		var calc scoring.Calculator
		switch pc.Calculator {
		case CalculatorRule:
			calc = scoring.NewRuleCalculator(scoring.Weights(c.Weights), scoring.DefaultBoosts(), scoring.DefaultComponents()...)
		case CalculatorFormula:
			calc = scoring.NewFormulaCalculator(scoring.DefaultFormulaCoefficients())
		default:
			return nil, fmt.Errorf("profile %q: unknown calculator %q", name, pc.Calculator)
		}

		profiles = append(profiles, scoring.Profile{
			Name:          name,
			Calculator:    calc,
			Scheme:        scheme,
			SocialDivisor: pc.SocialDivisor,
			UseModel:      pc.UseModel,
		})
	}
	return profiles, nil
}

// ProfileFor returns the profile a report category is routed to.
func (c *Config) ProfileFor(category string) string {
	if name, ok := c.CategoryProfiles[category]; ok {
		return name
	}
	return c.DefaultProfile
}

// NewEngine builds a scoring engine from the configuration. Extra options
// (predictor, clock) are applied after routing.
func (c *Config) NewEngine(opts ...scoring.Option) (*scoring.Engine, error) {
	profiles, err := c.BuildProfiles()
	if err != nil {
		return nil, err
	}
	opts = append([]scoring.Option{
		scoring.WithRoutes(c.CategoryProfiles),
		scoring.WithDefaultProfile(c.DefaultProfile),
	}, opts...)
	return scoring.NewEngine(profiles, opts...)
}

// ModelSource returns where to load the model from, or nil when none is
// configured. store may be nil when no blob storage is available.
func (c *Config) ModelSource(store model.ArtifactStore) model.Source {
	switch {
	case c.Model.Blob != "" && store != nil:
		return model.BlobSource{Store: store, Name: c.Model.Blob}
	case c.Model.Path != "":
		return model.FileSource(c.Model.Path)
	default:
		return nil
	}
}

// FindConfigFile looks for .hotspot/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".hotspot", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
