// Package text derives urgency signals from a report's free-text
// description: keyword weights, sentiment and a zero-shot risk class.
package text

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

const (
	minLength = 5
	maxLength = 500

	// MaxBoost caps the severity boost from text.
	MaxBoost = 30
	// RiskThreshold is the zero-shot score above which a risk is accepted.
	RiskThreshold = 0.6
	riskBonus     = 10
)

// RiskLabels are the zero-shot candidate risk classes.
var RiskLabels = []string{"fire hazard", "blocked road", "medical waste", "toxic chemical", "overflowing garbage"}

// criticalRisks force critical urgency regardless of the boost.
var criticalRisks = map[string]bool{
	"fire hazard":   true,
	"medical waste": true,
}

// Sentiment labels.
const (
	LabelNegative = "NEGATIVE"
	LabelPositive = "POSITIVE"
)

// Sentiment is a binary sentiment prediction.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Risk is the top zero-shot label and its score.
type Risk struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentClassifier labels text POSITIVE or NEGATIVE.
type SentimentClassifier interface {
	Sentiment(ctx context.Context, text string) (Sentiment, error)
}

// RiskClassifier picks the most likely label for text among candidates.
type RiskClassifier interface {
	ClassifyRisk(ctx context.Context, text string, labels []string) (Risk, error)
}

// Resolver turns descriptions into signals.TextAnalysis.
type Resolver struct {
	sentiment SentimentClassifier
	risk      RiskClassifier
	logger    *zap.Logger
	onFail    func(error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSentiment sets the sentiment classifier. Without one, sentiment is
// taken as zero and only keywords contribute.
func WithSentiment(c SentimentClassifier) Option {
	return func(r *Resolver) { r.sentiment = c }
}

// WithRisk sets the zero-shot risk classifier. Without one, no risk is
// ever accepted.
func WithRisk(c RiskClassifier) Option {
	return func(r *Resolver) { r.risk = c }
}

// WithLogger sets the logger used for classifier failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithFailureHook is called when analysis degrades to neutral.
func WithFailureHook(fn func(error)) Option {
	return func(r *Resolver) { r.onFail = fn }
}

// NewResolver creates a text Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Analyze never fails. Short text yields the neutral analysis; a
// classifier error yields the neutral analysis marked Degraded.
func (r *Resolver) Analyze(ctx context.Context, s string) signals.TextAnalysis {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minLength {
		return signals.NeutralText()
	}
	truncated := truncate(s, maxLength)

	sent := Sentiment{Label: LabelNegative}
	if r.sentiment != nil {
		var err error
		if sent, err = r.sentiment.Sentiment(ctx, truncated); err != nil {
			return r.degrade("sentiment", err)
		}
	}

	risk := Risk{Label: signals.RiskNone}
	if r.risk != nil {
		var err error
		if risk, err = r.risk.ClassifyRisk(ctx, truncated, RiskLabels); err != nil {
			return r.degrade("risk", err)
		}
	}

	return Combine(MatchKeywords(s), sent, risk)
}

// Combine derives the analysis from matched keywords and classifier
// outputs.
func Combine(keywords []Keyword, sent Sentiment, risk Risk) signals.TextAnalysis {
	sentiment := SentimentScore(sent)

	accepted := signals.RiskNone
	if risk.Score > RiskThreshold && risk.Label != "" {
		accepted = risk.Label
	}

	boost := Boost(keywords, sentiment)
	if accepted != signals.RiskNone {
		boost = min(boost+riskBonus, MaxBoost)
	}

	phrases := make([]string, 0, 5)
	for i, kw := range keywords {
		if i == 5 {
			break
		}
		phrases = append(phrases, kw.Phrase)
	}

	return signals.TextAnalysis{
		SentimentScore: round3(sentiment),
		UrgencyLevel:   UrgencyFor(boost, accepted),
		SeverityBoost:  boost,
		Keywords:       phrases,
		RiskClass:      accepted,
		RiskScore:      round3(risk.Score),
		Emotion:        Emotion(sent),
	}
}

// SentimentScore maps a prediction to negativity in [0,1].
func SentimentScore(s Sentiment) float64 {
	score := math.Max(0, math.Min(1, s.Score))
	if s.Label == LabelNegative {
		return score
	}
	return 1 - score
}

// Boost computes severity points from keywords (heaviest first) and
// sentiment negativity.
func Boost(keywords []Keyword, sentiment float64) int {
	if len(keywords) == 0 {
		return int(sentiment * 10)
	}
	b := float64(keywords[0].Weight)*0.7 + sentiment*10*0.3
	return min(int(b), MaxBoost)
}

// UrgencyFor buckets a boost, escalating critical risks.
func UrgencyFor(boost int, risk string) signals.Urgency {
	switch {
	case boost >= 25 || criticalRisks[risk]:
		return signals.UrgencyCritical
	case boost >= 18:
		return signals.UrgencyHigh
	case boost >= 10:
		return signals.UrgencyMedium
	default:
		return signals.UrgencyLow
	}
}

// Emotion labels a sentiment prediction.
func Emotion(s Sentiment) string {
	switch s.Label {
	case LabelNegative:
		switch {
		case s.Score > 0.9:
			return "angry"
		case s.Score > 0.7:
			return "concerned"
		}
	case LabelPositive:
		if s.Score > 0.8 {
			return "positive"
		}
	}
	return "neutral"
}

func (r *Resolver) degrade(stage string, err error) signals.TextAnalysis {
	r.logger.Warn("text analysis failed, using neutral analysis", zap.String("stage", stage), zap.Error(err))
	if r.onFail != nil {
		r.onFail(err)
	}
	out := signals.NeutralText()
	out.Degraded = true
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
