// internal/churn/rules.go
package churn

// NeutralImpact is reported for every feature/value pair no rule matches.
const NeutralImpact = "neutral impact"

// RuleKind tags an ImpactRule as an exact-value lookup or a numeric threshold.
type RuleKind int

const (
	ExactMatch RuleKind = iota
	Threshold
)

// Comparison is the operator of a Threshold rule.
type Comparison int

const (
	LessThan Comparison = iota
	GreaterThan
)

// ImpactRule maps an observed feature value to a narrative.
// ExactMatch rules use Equals; Threshold rules use Op and Limit.
type ImpactRule struct {
	Kind   RuleKind
	Equals string
	Op     Comparison
	Limit  float64
	Impact string
}

// Matches reports whether the rule applies to the record's value for feature.
func (r ImpactRule) Matches(record Record, feature string) bool {
	switch r.Kind {
	case ExactMatch:
		_, ok := record[feature]
		return ok && record.StringValue(feature) == r.Equals
	case Threshold:
		v, ok := record.NumericValue(feature)
		if !ok {
			return false
		}
		switch r.Op {
		case LessThan:
			return v < r.Limit
		case GreaterThan:
			return v > r.Limit
		}
	}
	return false
}

// RuleTable holds the rules for each feature; the first matching rule wins.
type RuleTable map[string][]ImpactRule

// Impact returns the narrative for feature, or NeutralImpact.
func (t RuleTable) Impact(record Record, feature string) string {
	for _, rule := range t[feature] {
		if rule.Matches(record, feature) {
			return rule.Impact
		}
	}
	return NeutralImpact
}

// DefaultRules is the domain narrative table used by the engine.
func DefaultRules() RuleTable {
	return RuleTable{
		"Contract": {
			{Kind: ExactMatch, Equals: "Month-to-month", Impact: "monthly contract indicates low loyalty"},
		},
		"InternetService": {
			{Kind: ExactMatch, Equals: "Fiber optic", Impact: "fiber-optic service more prone to churn"},
		},
		"OnlineSecurity": {
			{Kind: ExactMatch, Equals: "No", Impact: "no online security"},
		},
		"TechSupport": {
			{Kind: ExactMatch, Equals: "No", Impact: "no technical support"},
		},
		"PaymentMethod": {
			{Kind: ExactMatch, Equals: "Electronic check", Impact: "electronic-check payment is higher risk"},
		},
		"tenure": {
			{Kind: Threshold, Op: LessThan, Limit: 12, Impact: "low tenure (under one year)"},
		},
		"MonthlyCharges": {
			{Kind: Threshold, Op: GreaterThan, Limit: 70, Impact: "high monthly charges"},
		},
	}
}
