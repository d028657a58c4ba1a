package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

type authenticatorStub struct {
	authFn func(ctx context.Context, username, password string) (*domain.SessionContext, error)
}

func (s *authenticatorStub) Authenticate(ctx context.Context, username, password string) (*domain.SessionContext, error) {
	return s.authFn(ctx, username, password)
}

type tokenIssuerStub struct {
	generateFn func(ctx context.Context, session *domain.SessionContext) (string, error)
	state      domain.TokenState
}

func (s *tokenIssuerStub) Generate(ctx context.Context, session *domain.SessionContext) (string, error) {
	return s.generateFn(ctx, session)
}

func (s *tokenIssuerStub) GetState(context.Context, string) domain.TokenState {
	return s.state
}

type auditorStub struct {
	ops []string
}

func (a *auditorStub) Audit(_ context.Context, operation string, _ ...usecase.AuditOption) {
	a.ops = append(a.ops, operation)
}

type recorderStub struct {
	success, failure int
}

func (r *recorderStub) AuthAttempt(ok bool) {
	if ok {
		r.success++
		return
	}
	r.failure++
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	return resp.Token
}

func TestAuthHandler_Login(t *testing.T) {
	session := &domain.SessionContext{ActorID: "actor-1", Username: "alice", RoleID: "role-1"}

	tests := []struct {
		name       string
		body       string
		authErr    error
		wantStatus int
		wantOK     int
		wantFail   int
	}{
		{"success", `{"username":"alice","password":"Secret123"}`, nil, http.StatusOK, 1, 0},
		{"bad credentials", `{"username":"alice","password":"nope"}`, domain.ErrUnauthorized, http.StatusUnauthorized, 0, 1},
		{"missing password", `{"username":"alice"}`, nil, http.StatusBadRequest, 0, 0},
		{"store failure", `{"username":"alice","password":"x"}`, errors.New("db down"), http.StatusInternalServerError, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &recorderStub{}
			h := NewAuthHandler(
				&authenticatorStub{authFn: func(context.Context, string, string) (*domain.SessionContext, error) {
					if tt.authErr != nil {
						return nil, tt.authErr
					}
					return session, nil
				}},
				&tokenIssuerStub{generateFn: func(context.Context, *domain.SessionContext) (string, error) {
					return "signed-token", nil
				}},
				nil,
				recorder,
			)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && decodeToken(t, rec) != "signed-token" {
				t.Fatalf("unexpected token body %s", rec.Body.String())
			}
			if recorder.success != tt.wantOK || recorder.failure != tt.wantFail {
				t.Fatalf("unexpected attempt counts %+v", recorder)
			}
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	session := domain.SessionContext{ActorID: "actor-1", Username: "alice", RoleID: "role-1"}

	tests := []struct {
		name       string
		state      domain.TokenState
		genErr     error
		wantStatus int
		wantToken  string
		wantAudit  bool
	}{
		{"valid returns same token", domain.TokenValid{Token: "old", Session: session}, nil, http.StatusOK, "old", false},
		{"expired issues new token", domain.TokenExpired{Token: "old", Session: session}, nil, http.StatusOK, "new", true},
		{"invalid refused", domain.TokenInvalid{Reason: domain.ErrInvalidToken}, nil, http.StatusUnauthorized, "", false},
		{"expired but actor locked", domain.TokenExpired{Token: "old", Session: session}, fmt.Errorf("%w: actor is locked", domain.ErrTokenGeneration), http.StatusBadRequest, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditor := &auditorStub{}
			var generatedFor *domain.SessionContext
			h := NewAuthHandler(nil, &tokenIssuerStub{
				state: tt.state,
				generateFn: func(_ context.Context, s *domain.SessionContext) (string, error) {
					generatedFor = s
					if tt.genErr != nil {
						return "", tt.genErr
					}
					return "new", nil
				},
			}, auditor, nil)

			req := httptest.NewRequest(http.MethodPost, "/auth/token/refresh", nil)
			req.Header.Set("Authorization", "Bearer old")
			rec := httptest.NewRecorder()
			h.Refresh(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantToken != "" && decodeToken(t, rec) != tt.wantToken {
				t.Fatalf("expected token %q, got %s", tt.wantToken, rec.Body.String())
			}
			if _, expired := tt.state.(domain.TokenExpired); !expired && generatedFor != nil {
				t.Fatalf("token must only be generated for expired tokens")
			}
			if got := len(auditor.ops) == 1 && auditor.ops[0] == domain.AuditTokenRefresh; got != tt.wantAudit {
				t.Fatalf("unexpected audit ops %v", auditor.ops)
			}
		})
	}
}

func TestAuthHandler_LogoutAndMe(t *testing.T) {
	auditor := &auditorStub{}
	h := NewAuthHandler(nil, nil, auditor, nil)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if rec.Code != http.StatusNoContent || len(auditor.ops) != 1 || auditor.ops[0] != domain.AuditLogout {
		t.Fatalf("expected audited 204, got %d %v", rec.Code, auditor.ops)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(domain.ContextWithSession(req.Context(), &domain.SessionContext{ActorID: "a1", Username: "alice", RoleID: "r1"}))
	rec = httptest.NewRecorder()
	h.Me(rec, req)

	var resp dto.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActorID != "a1" || resp.Username != "alice" || resp.RoleID != "r1" {
		t.Fatalf("unexpected session %+v", resp)
	}
}
