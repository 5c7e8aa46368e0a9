// Package validation finishes a freshly built model and checks it for
// consistency before translation.
package validation

import (
	"context"
	"fmt"

	"astergen/pkg/model"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities.
const (
	// SeverityBlock marks the model as invalid.
	SeverityBlock Severity = "block"
	// SeverityWarn reports a suspicious construct that is still translated.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string    `json:"rule"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Entity   model.Ref `json:"entity"`
}

// Result aggregates violations.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Count returns the number of violations of a severity.
func (r Result) Count(s Severity) int {
	n := 0
	for _, v := range r.Violations {
		if v.Severity == s {
			n++
		}
	}
	return n
}

func (r *Result) add(rule string, sev Severity, ref model.Ref, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{
		Rule:     rule,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Entity:   ref,
	})
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	n := e.Result.Count(SeverityBlock)
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("model invalid: %d blocking violation(s), first: %s: %s", n, v.Entity, v.Message)
		}
	}
	return "model invalid"
}

// Rule is one consistency check over a finished model.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, m *model.Model) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, m *model.Model) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := rule.Evaluate(ctx, m)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}

// DefaultRulesEngine returns an engine with every built-in rule registered.
func DefaultRulesEngine() *RulesEngine {
	e := NewRulesEngine()
	e.Register(NewReferencesRule())
	e.Register(NewContinuationRule())
	e.Register(NewAnalysisInputsRule())
	e.Register(NewConceptNamesRule())
	e.Register(NewEffectivenessRule())
	return e
}

// Validate evaluates the default rules. It reports failures through the
// returned Result; whether to abort is left to the caller.
func Validate(ctx context.Context, m *model.Model) (Result, error) {
	return DefaultRulesEngine().Evaluate(ctx, m)
}
