package scoring

import (
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// SnapshotVersion is the current persisted snapshot layout.
const SnapshotVersion = 1

// ErrUnknownProfile is returned when a snapshot names a profile the engine
// was not configured with.
var ErrUnknownProfile = errors.New("unknown scoring profile")

// Snapshot is the persisted feature record a report was scored from.
// Partial re-scoring replaces only its social feature.
type Snapshot struct {
	Version  int             `json:"version"`
	Profile  string          `json:"profile"`
	Method   Method          `json:"method"`
	Features features.Vector `json:"features"`
}

// Engine selects between the profile calculator and an optional trained
// model. It is safe for concurrent use; the predictor must be read-only.
type Engine struct {
	profiles       map[string]Profile
	defaultProfile string
	routes         map[string]string
	predictor      model.Predictor
	clock          clockwork.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithPredictor sets the trained-model predictor.
func WithPredictor(p model.Predictor) Option {
	return func(e *Engine) { e.predictor = p }
}

// WithClock sets the clock used for ScoredAt.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRoutes maps report categories (e.g. "garbage", "pothole") to profiles.
func WithRoutes(routes map[string]string) Option {
	return func(e *Engine) { e.routes = routes }
}

// WithDefaultProfile sets the profile used for unrouted categories.
func WithDefaultProfile(name string) Option {
	return func(e *Engine) { e.defaultProfile = name }
}

// NewEngine creates an engine over the given profiles. The first profile is
// the default unless WithDefaultProfile says otherwise.
func NewEngine(profiles []Profile, opts ...Option) (*Engine, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("at least one profile is required")
	}
	e := &Engine{
		profiles:       make(map[string]Profile, len(profiles)),
		defaultProfile: profiles[0].Name,
		clock:          clockwork.NewRealClock(),
	}
	for _, p := range profiles {
		if p.Calculator == nil {
			return nil, fmt.Errorf("profile %q has no calculator", p.Name)
		}
		if err := p.Scheme.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		e.profiles[p.Name] = p
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.profiles[e.defaultProfile]; !ok {
		return nil, fmt.Errorf("default profile %q: %w", e.defaultProfile, ErrUnknownProfile)
	}
	for category, name := range e.routes {
		if _, ok := e.profiles[name]; !ok {
			return nil, fmt.Errorf("route %q -> %q: %w", category, name, ErrUnknownProfile)
		}
	}
	return e, nil
}

// ProfileFor returns the profile name used for a report category.
func (e *Engine) ProfileFor(category string) string {
	if name, ok := e.routes[category]; ok {
		return name
	}
	return e.defaultProfile
}

// Profiles lists the configured profile names.
func (e *Engine) Profiles() []string {
	names := make([]string, 0, len(e.profiles))
	for name := range e.profiles {
		names = append(names, name)
	}
	return names
}

// Score builds the feature vector for b and scores it under the named
// profile (the default profile when name is unknown or empty).
func (e *Engine) Score(profile string, b signals.Bundle) SeverityResult {
	res, _ := e.ScoreWithSnapshot(profile, b)
	return res
}

// ScoreWithSnapshot scores b and returns the snapshot to persist with it.
func (e *Engine) ScoreWithSnapshot(profile string, b signals.Bundle) (SeverityResult, Snapshot) {
	p, ok := e.profiles[profile]
	if !ok {
		p = e.profiles[e.defaultProfile]
	}
	fv := features.Build(b, features.Options{SocialDivisor: p.SocialDivisor})
	res := e.evaluate(p, fv, true)
	return res, Snapshot{
		Version:  SnapshotVersion,
		Profile:  p.Name,
		Method:   res.PredictionMethod,
		Features: fv,
	}
}

// Rescore recomputes a persisted snapshot with a new upvote count, through
// the same calculator path that produced it. No collaborator is consulted.
// A snapshot scored by a model that is no longer available falls back to
// the rule-based path.
func (e *Engine) Rescore(snap Snapshot, upvotes int) (SeverityResult, Snapshot, error) {
	if snap.Version != SnapshotVersion {
		return SeverityResult{}, Snapshot{}, fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	p, ok := e.profiles[snap.Profile]
	if !ok {
		return SeverityResult{}, Snapshot{}, fmt.Errorf("profile %q: %w", snap.Profile, ErrUnknownProfile)
	}

	fv := snap.Features.WithUpvotes(upvotes)
	res := e.evaluate(p, fv, snap.Method == MethodTrainedModel)

	return res, Snapshot{
		Version:  SnapshotVersion,
		Profile:  p.Name,
		Method:   res.PredictionMethod,
		Features: fv,
	}, nil
}

func (e *Engine) evaluate(p Profile, fv features.Vector, allowModel bool) SeverityResult {
	calc := p.Calculator.Calculate(fv)
	ruleCategory := p.Scheme.Categorize(calc.Score)

	res := SeverityResult{
		RawScore:           calc.RawScore,
		SeverityScore:      calc.Score,
		Category:           ruleCategory,
		Confidence:         calc.Confidence,
		PredictionMethod:   MethodRuleBased,
		ComponentScores:    calc.ComponentMap(),
		LocationMultiplier: fv.Display.LocationMultiplier,
		ZoneType:           fv.Context.Zone,
		Profile:            p.Name,
		Breakdown:          calc.Components,
		Features:           fv.Display,
		ScoredAt:           e.clock.Now(),
	}

	if allowModel && p.UseModel && e.predictor != nil {
		if pred, ok := e.predictor.Predict(fv.ModelView()); ok {
			res.RuleBased = &RuleBasedView{
				Score:       calc.Score,
				RawScore:    calc.RawScore,
				Category:    ruleCategory,
				Confidence:  calc.Confidence,
				Explanation: Explain(calc.Score, ruleCategory, fv),
			}
			res.RawScore = pred.RawScore
			res.SeverityScore = Calibrate(pred.RawScore)
			res.Category = p.Scheme.Categorize(res.SeverityScore)
			res.Confidence = round3(pred.Confidence)
			res.PredictionMethod = MethodTrainedModel
			res.ModelType = pred.ModelType
			res.Calibrated = true
			res.CalibrationVersion = CalibrationVersion
		}
	}

	res.Explanation = Explain(res.SeverityScore, res.Category, fv)
	return res
}
