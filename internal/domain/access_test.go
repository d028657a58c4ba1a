package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAccessLevelOrdering(t *testing.T) {
	t.Parallel()

	levels := []AccessLevel{AccessNone, AccessView, AccessEdit, AccessFull}
	for i, granted := range levels {
		for j, required := range levels {
			if got, want := granted.Allows(required), i >= j; got != want {
				t.Fatalf("%s.Allows(%s) = %v, want %v", granted, required, got, want)
			}
		}
	}
}

func TestParseAccessLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  AccessLevel
	}{
		{"NONE", AccessNone},
		{"view", AccessView},
		{" Edit ", AccessEdit},
		{"full", AccessFull},
	}
	for _, tt := range tests {
		got, err := ParseAccessLevel(tt.input)
		if err != nil || got != tt.want {
			t.Fatalf("ParseAccessLevel(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
		}
	}

	if _, err := ParseAccessLevel("ADMIN"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAccessLevelJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		Level AccessLevel `json:"level"`
	}{AccessEdit})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"level":"EDIT"}` {
		t.Fatalf("unexpected json %s", data)
	}

	var out struct {
		Level AccessLevel `json:"level"`
	}
	if err := json.Unmarshal([]byte(`{"level":"full"}`), &out); err != nil || out.Level != AccessFull {
		t.Fatalf("unmarshal: %v %v", out.Level, err)
	}
	if err := json.Unmarshal([]byte(`{"level":"everything"}`), &out); err == nil {
		t.Fatal("expected error for unknown level")
	}

	if _, err := AccessLevel(42).MarshalText(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for out-of-range level, got %v", err)
	}
	if AccessLevel(42).String() != "AccessLevel(42)" {
		t.Fatalf("unexpected string %q", AccessLevel(42).String())
	}
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	got, err := ParseScope("document")
	if err != nil || got != ScopeDocument {
		t.Fatalf("ParseScope = %v, %v", got, err)
	}

	if _, err := ParseScope("BILLING"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	var s Scope
	if err := json.Unmarshal([]byte(`"rbac_dashboard"`), &s); err != nil || s != ScopeRBACDashboard {
		t.Fatalf("unmarshal scope: %v %v", s, err)
	}
	if err := json.Unmarshal([]byte(`7`), &s); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for non-string scope, got %v", err)
	}
}

func TestScopesContainsBuiltins(t *testing.T) {
	t.Parallel()

	seen := map[Scope]bool{}
	for _, s := range Scopes() {
		seen[s] = true
	}
	for _, s := range []Scope{ScopeRBACDashboard, ScopeSystemAdmin, ScopeDocument} {
		if !seen[s] {
			t.Fatalf("expected %s in Scopes()", s)
		}
	}
}

func TestAccessDeniedError(t *testing.T) {
	t.Parallel()

	err := error(&AccessDeniedError{Scope: ScopeDocument, Required: AccessFull, RoleID: "r1"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatal("expected errors.Is ErrAccessDenied")
	}
	if err.Error() != "access denied: scope DOCUMENT requires FULL" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	var denied *AccessDeniedError
	if !errors.As(err, &denied) || denied.RoleID != "r1" {
		t.Fatalf("expected errors.As to expose the role id")
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrRoleNotFound, ErrActorNotFound, ErrDocumentNotFound} {
		if !IsNotFound(err) {
			t.Fatalf("expected %v to be a not-found error", err)
		}
	}
	if IsNotFound(ErrAccessDenied) {
		t.Fatal("access denied is not a not-found error")
	}
}
