package domain

import "context"

// Policy is the closed set of role variants: SuperPolicy or ScopedPolicy.
type Policy interface {
	evaluate(scope Scope, required AccessLevel) Decision
}

// SuperPolicy grants every scope at AccessFull with no redaction.
type SuperPolicy struct{}

// ScopedPolicy grants only what its rules declare.
type ScopedPolicy struct {
	Rules map[Scope]ScopeRule
}

// Decision is the outcome of an access check.
type Decision struct {
	Granted        bool
	Scope          Scope
	Required       AccessLevel
	Level          AccessLevel
	RedactedFields map[string]struct{}
}

// Evaluate runs the policy for a (scope, required level) pair.
func Evaluate(p Policy, scope Scope, required AccessLevel) Decision {
	if p == nil {
		return Decision{Scope: scope, Required: required}
	}
	return p.evaluate(scope, required)
}

func (SuperPolicy) evaluate(scope Scope, required AccessLevel) Decision {
	return Decision{
		Granted:  true,
		Scope:    scope,
		Required: required,
		Level:    AccessFull,
	}
}

func (p ScopedPolicy) evaluate(scope Scope, required AccessLevel) Decision {
	denied := Decision{Scope: scope, Required: required}

	rule, ok := p.Rules[scope]
	if !ok || rule.AccessLevel == AccessNone || !rule.AccessLevel.Allows(required) {
		return denied
	}

	decision := Decision{
		Granted:  true,
		Scope:    scope,
		Required: required,
		Level:    rule.AccessLevel,
	}

	for _, field := range rule.FieldRules {
		// A field rule can only narrow the scope grant.
		level := min(field.AccessLevel, rule.AccessLevel)
		if level < required {
			if decision.RedactedFields == nil {
				decision.RedactedFields = make(map[string]struct{})
			}
			decision.RedactedFields[field.FieldName] = struct{}{}
		}
	}

	return decision
}

// IsRedacted reports whether field must be scrubbed from the response.
func (d Decision) IsRedacted(field string) bool {
	_, ok := d.RedactedFields[field]
	return ok
}

// Redact nulls every redacted key present in data and returns data.
func (d Decision) Redact(data map[string]any) map[string]any {
	for field := range d.RedactedFields {
		if _, ok := data[field]; ok {
			data[field] = nil
		}
	}
	return data
}

// Err returns nil for a granted decision and an *AccessDeniedError otherwise.
func (d Decision) Err(roleID string) error {
	if d.Granted {
		return nil
	}
	return &AccessDeniedError{Scope: d.Scope, Required: d.Required, RoleID: roleID}
}

type decisionsKey struct{}

// ContextWithDecision records a granted decision for its scope. Earlier
// decisions for other scopes are kept.
func ContextWithDecision(ctx context.Context, d Decision) context.Context {
	prev, _ := ctx.Value(decisionsKey{}).(map[Scope]Decision)
	next := make(map[Scope]Decision, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[d.Scope] = d
	return context.WithValue(ctx, decisionsKey{}, next)
}

// DecisionFromContext returns the decision recorded for scope.
func DecisionFromContext(ctx context.Context, scope Scope) (Decision, bool) {
	decisions, _ := ctx.Value(decisionsKey{}).(map[Scope]Decision)
	d, ok := decisions[scope]
	return d, ok
}
