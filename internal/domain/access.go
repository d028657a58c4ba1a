package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccessLevel is a totally ordered permission grade.
type AccessLevel uint8

const (
	// AccessNone grants nothing. A rule at this level is the same as no rule.
	AccessNone AccessLevel = iota
	// AccessView allows reading.
	AccessView
	// AccessEdit allows reading and writing.
	AccessEdit
	// AccessFull allows every operation, including deletes.
	AccessFull
)

var accessLevelNames = map[AccessLevel]string{
	AccessNone: "NONE",
	AccessView: "VIEW",
	AccessEdit: "EDIT",
	AccessFull: "FULL",
}

// String returns the upper-case name of the level.
func (l AccessLevel) String() string {
	if name, ok := accessLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("AccessLevel(%d)", uint8(l))
}

// IsValid reports whether l is one of the declared levels.
func (l AccessLevel) IsValid() bool {
	_, ok := accessLevelNames[l]
	return ok
}

// Allows reports whether a grant at l satisfies a requirement of required.
func (l AccessLevel) Allows(required AccessLevel) bool {
	return l >= required
}

// ParseAccessLevel parses a level name, case-insensitively.
func ParseAccessLevel(s string) (AccessLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for level, n := range accessLevelNames {
		if n == name {
			return level, nil
		}
	}
	return AccessNone, fmt.Errorf("%w: unknown access level %q", ErrValidation, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l AccessLevel) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("%w: invalid access level %d", ErrValidation, uint8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *AccessLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseAccessLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Scope identifies a protected resource or capability. The set is open:
// handlers may register new scopes with RegisterScope at init time.
type Scope string

const (
	// ScopeRBACDashboard covers RBAC administration.
	ScopeRBACDashboard Scope = "RBAC_DASHBOARD"
	// ScopeSystemAdmin covers system-wide settings and audit.
	ScopeSystemAdmin Scope = "SYSTEM_ADMIN"
	// ScopeDocument covers documents.
	ScopeDocument Scope = "DOCUMENT"
)

var knownScopes = map[Scope]struct{}{
	ScopeRBACDashboard: {},
	ScopeSystemAdmin:   {},
	ScopeDocument:      {},
}

// RegisterScope adds a scope to the known set. Not safe to call after startup.
func RegisterScope(s Scope) {
	knownScopes[s] = struct{}{}
}

// Scopes returns the known scopes.
func Scopes() []Scope {
	out := make([]Scope, 0, len(knownScopes))
	for s := range knownScopes {
		out = append(out, s)
	}
	return out
}

// IsValid reports whether s is a known scope.
func (s Scope) IsValid() bool {
	_, ok := knownScopes[s]
	return ok
}

// ParseScope parses a scope name, case-insensitively.
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToUpper(strings.TrimSpace(s)))
	if !scope.IsValid() {
		return "", fmt.Errorf("%w: unknown scope %q", ErrValidation, s)
	}
	return scope, nil
}

// UnmarshalJSON rejects unknown scopes.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: scope must be a string", ErrValidation)
	}
	parsed, err := ParseScope(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
