package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jo-hoe/aisign/internal/verdict"
)

const ReasonUnknownContext = "Unknown usage context"

// Reasons shown alongside each decision.
var Reasons = map[verdict.Decision]string{
	verdict.Block: "Content not permitted in this context",
	verdict.Warn:  "AI-generated or unverified content – disclosure required",
	verdict.Allow: "Content permitted",
}

// Rules maps a usage context to the decision for each detection status.
type Rules map[string]map[verdict.Status]verdict.Decision

// DefaultRules returns the built-in policy table.
func DefaultRules() Rules {
	return Rules{
		"legal_government": {
			verdict.AIGeneratedAuthentic:  verdict.Block,
			verdict.Tampered:              verdict.Block,
			verdict.NoVerifiableSignature: verdict.Block,
		},
		"education_exam": {
			verdict.AIGeneratedAuthentic:  verdict.Block,
			verdict.Tampered:              verdict.Block,
			verdict.NoVerifiableSignature: verdict.Block,
		},
		"healthcare_medical": {
			verdict.AIGeneratedAuthentic:  verdict.Block,
			verdict.Tampered:              verdict.Block,
			verdict.NoVerifiableSignature: verdict.Block,
		},
		"media_marketing": {
			verdict.AIGeneratedAuthentic:  verdict.Warn,
			verdict.Tampered:              verdict.Block,
			verdict.NoVerifiableSignature: verdict.Warn,
		},
		"creative_entertainment": {
			verdict.AIGeneratedAuthentic:  verdict.Allow,
			verdict.Tampered:              verdict.Block,
			verdict.NoVerifiableSignature: verdict.Allow,
		},
	}
}

// RulesFromConfig converts a raw context -> status -> decision table, rejecting
// unknown decisions.
func RulesFromConfig(raw map[string]map[string]string) (Rules, error) {
	rules := make(Rules, len(raw))
	for usageContext, statuses := range raw {
		key := strings.ToLower(strings.TrimSpace(usageContext))
		if key == "" {
			return nil, fmt.Errorf("policy context name cannot be empty")
		}
		rules[key] = make(map[verdict.Status]verdict.Decision, len(statuses))
		for status, decision := range statuses {
			d := verdict.ParseDecision(decision)
			if !d.IsKnown() {
				return nil, fmt.Errorf("invalid decision %q for context %s and status %s", decision, key, status)
			}
			rules[key][verdict.Status(status)] = d
		}
	}
	return rules, nil
}

// Result is the enforced decision and its reason.
type Result struct {
	Decision verdict.Decision
	Reason   string
}

// Engine enforces a policy table.
type Engine struct {
	rules Rules
}

// NewEngine creates an engine for rules; nil rules use DefaultRules.
func NewEngine(rules Rules) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Enforce looks up the decision for status in usageContext. Unknown contexts and
// statuses are blocked.
func (e *Engine) Enforce(status verdict.Status, usageContext string) Result {
	table, ok := e.rules[strings.ToLower(usageContext)]
	if !ok {
		return Result{Decision: verdict.Block, Reason: ReasonUnknownContext}
	}

	decision, ok := table[status]
	if !ok {
		decision = verdict.Block
	}
	return Result{Decision: decision, Reason: Reasons[decision]}
}

// Contexts returns the usage contexts the engine knows about.
func (e *Engine) Contexts() []string {
	contexts := make([]string, 0, len(e.rules))
	for name := range e.rules {
		contexts = append(contexts, name)
	}
	sort.Strings(contexts)
	return contexts
}
