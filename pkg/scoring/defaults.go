package scoring

// Built-in profile names.
const (
	ProfileGeneral = "general"
	ProfileGarbage = "garbage"
)

// Profile fixes every per-deployment scoring choice for one report domain.
type Profile struct {
	Name          string
	Calculator    Calculator
	Scheme        CategoryScheme
	SocialDivisor float64
	UseModel      bool
}

// DefaultComponents returns the rule-based components with default settings.
func DefaultComponents() []Component {
	return []Component{
		&ImageComponent{Weights: DefaultImageWeights()},
		&LocationComponent{},
		&TextComponent{},
		&SocialComponent{},
		&RiskComponent{Boosts: DefaultBoosts()},
	}
}

// DefaultRuleCalculator returns the rule-based calculator with default weights.
func DefaultRuleCalculator() *RuleCalculator {
	return NewRuleCalculator(DefaultWeights(), DefaultBoosts(), DefaultComponents()...)
}

// DefaultProfiles returns the general (rule-based, five-level) and garbage
// (hybrid formula, four-level) profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:          ProfileGeneral,
			Calculator:    DefaultRuleCalculator(),
			Scheme:        FiveLevel,
			SocialDivisor: 100,
			UseModel:      true,
		},
		{
			Name:          ProfileGarbage,
			Calculator:    NewFormulaCalculator(DefaultFormulaCoefficients()),
			Scheme:        FourLevel,
			SocialDivisor: 50,
			UseModel:      true,
		},
	}
}
