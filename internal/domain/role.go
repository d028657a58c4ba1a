package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is a named set of scope rules, or a super role that bypasses them.
type Role struct {
	ID          string
	Name        string
	Description string
	IsSuper     bool
	ScopeRules  []ScopeRule
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScopeRule grants an access level on one scope, optionally restricted per field.
type ScopeRule struct {
	ID          string
	RoleID      string
	Scope       Scope
	AccessLevel AccessLevel
	FieldRules  []FieldRule
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FieldRule restricts the access level of a single data field under a scope rule.
type FieldRule struct {
	FieldName   string
	AccessLevel AccessLevel
}

// Policy returns the authorization variant of the role. Callers evaluate
// access through the policy only, so the super-role bypass lives in one place.
func (r *Role) Policy() Policy {
	if r.IsSuper {
		return SuperPolicy{}
	}

	rules := make(map[Scope]ScopeRule, len(r.ScopeRules))
	for _, rule := range r.ScopeRules {
		rules[rule.Scope] = rule
	}
	return ScopedPolicy{Rules: rules}
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() *Role {
	if r == nil {
		return nil
	}
	out := *r
	out.ScopeRules = make([]ScopeRule, len(r.ScopeRules))
	for i, rule := range r.ScopeRules {
		rule.FieldRules = append([]FieldRule(nil), rule.FieldRules...)
		out.ScopeRules[i] = rule
	}
	return &out
}

// RoleRequest is the admin input used to create or fully replace a role.
type RoleRequest struct {
	RoleName    string
	Description *string
	IsSuper     bool
	ScopeRules  []ScopeRuleRequest
}

// ScopeRuleRequest is the admin input for one scope rule.
type ScopeRuleRequest struct {
	Scope       Scope
	AccessLevel AccessLevel
	FieldRules  []FieldRuleRequest
}

// FieldRuleRequest is the admin input for one field rule.
type FieldRuleRequest struct {
	FieldName   string
	AccessLevel AccessLevel
}

// Validation constants for roles.
const (
	MaxRoleNameLength    = 64
	MaxDescriptionLength = 512
	MaxFieldNameLength   = 128
)

// Validate checks the request. Duplicate scopes and duplicate fields are
// only rejected for non-super roles, since super roles keep no rules.
func (req RoleRequest) Validate() error {
	name := strings.TrimSpace(req.RoleName)
	if name == "" {
		return fmt.Errorf("%w: role name cannot be empty", ErrValidation)
	}
	if len(name) > MaxRoleNameLength {
		return fmt.Errorf("%w: role name exceeds %d characters", ErrValidation, MaxRoleNameLength)
	}
	if req.Description != nil && len(*req.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, MaxDescriptionLength)
	}

	if req.IsSuper {
		return nil
	}

	seen := make(map[Scope]struct{}, len(req.ScopeRules))
	for _, rule := range req.ScopeRules {
		if !rule.Scope.IsValid() {
			return fmt.Errorf("%w: unknown scope %q", ErrValidation, rule.Scope)
		}
		if !rule.AccessLevel.IsValid() {
			return fmt.Errorf("%w: invalid access level for scope %s", ErrValidation, rule.Scope)
		}
		if _, dup := seen[rule.Scope]; dup {
			return fmt.Errorf("%w: duplicate scope %s", ErrValidation, rule.Scope)
		}
		seen[rule.Scope] = struct{}{}

		fields := make(map[string]struct{}, len(rule.FieldRules))
		for _, field := range rule.FieldRules {
			fieldName := strings.TrimSpace(field.FieldName)
			if fieldName == "" || len(fieldName) > MaxFieldNameLength {
				return fmt.Errorf("%w: invalid field name under scope %s", ErrValidation, rule.Scope)
			}
			if !field.AccessLevel.IsValid() {
				return fmt.Errorf("%w: invalid access level for field %s", ErrValidation, fieldName)
			}
			if _, dup := fields[fieldName]; dup {
				return fmt.Errorf("%w: duplicate field %s under scope %s", ErrValidation, fieldName, rule.Scope)
			}
			fields[fieldName] = struct{}{}
		}
	}

	return nil
}

// NormalizedName returns the trimmed role name.
func (req RoleRequest) NormalizedName() string {
	return strings.TrimSpace(req.RoleName)
}

// BuildScopeRules converts the request rules into domain rules for roleID.
// Super roles get none.
func (req RoleRequest) BuildScopeRules(roleID string, newID func() string, now time.Time) []ScopeRule {
	if req.IsSuper {
		return nil
	}

	rules := make([]ScopeRule, 0, len(req.ScopeRules))
	for _, r := range req.ScopeRules {
		fields := make([]FieldRule, 0, len(r.FieldRules))
		for _, f := range r.FieldRules {
			fields = append(fields, FieldRule{
				FieldName:   strings.TrimSpace(f.FieldName),
				AccessLevel: f.AccessLevel,
			})
		}
		rules = append(rules, ScopeRule{
			ID:          newID(),
			RoleID:      roleID,
			Scope:       r.Scope,
			AccessLevel: r.AccessLevel,
			FieldRules:  fields,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return rules
}
