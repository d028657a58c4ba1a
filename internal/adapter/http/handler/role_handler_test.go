package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
)

type roleServiceStub struct {
	createFn func(ctx context.Context, req domain.RoleRequest) (*domain.Role, error)
	updateFn func(ctx context.Context, id string, req domain.RoleRequest) (*domain.Role, error)
	deleteFn func(ctx context.Context, id string) (int, error)
	getFn    func(ctx context.Context, id string) (*domain.Role, error)
	listFn   func(ctx context.Context) ([]*domain.Role, error)
}

func (s *roleServiceStub) CreateRole(ctx context.Context, req domain.RoleRequest) (*domain.Role, error) {
	return s.createFn(ctx, req)
}

func (s *roleServiceStub) UpdateRole(ctx context.Context, id string, req domain.RoleRequest) (*domain.Role, error) {
	return s.updateFn(ctx, id, req)
}

func (s *roleServiceStub) DeleteRole(ctx context.Context, id string) (int, error) {
	return s.deleteFn(ctx, id)
}

func (s *roleServiceStub) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	return s.getFn(ctx, id)
}

func (s *roleServiceStub) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.listFn(ctx)
}

// withURLParam routes r through a chi context carrying key=value.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestRoleHandler_Create(t *testing.T) {
	var captured domain.RoleRequest
	h := NewRoleHandler(&roleServiceStub{
		createFn: func(_ context.Context, req domain.RoleRequest) (*domain.Role, error) {
			captured = req
			return &domain.Role{
				ID:   "role-1",
				Name: req.RoleName,
				ScopeRules: []domain.ScopeRule{{
					ID: "rule-1", Scope: domain.ScopeDocument, AccessLevel: domain.AccessEdit,
					FieldRules: []domain.FieldRule{{FieldName: "size", AccessLevel: domain.AccessView}},
				}},
			}, nil
		},
	})

	body := `{"role_name":"editor","scope_rules":[{"scope":"DOCUMENT","access_level":"EDIT","field_rules":[{"field_name":"size","access_level":"VIEW"}]}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/rbac/roles", bytes.NewBufferString(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.RoleName != "editor" || len(captured.ScopeRules) != 1 || captured.ScopeRules[0].AccessLevel != domain.AccessEdit {
		t.Fatalf("unexpected request %+v", captured)
	}

	var resp dto.RoleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "role-1" || resp.ScopeRules[0].FieldRules[0].AccessLevel != domain.AccessView {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"access_level":"EDIT"`)) {
		t.Fatalf("expected access levels by name, got %s", rec.Body.String())
	}
}

func TestRoleHandler_CreateRejectsUnknownScope(t *testing.T) {
	h := NewRoleHandler(&roleServiceStub{
		createFn: func(context.Context, domain.RoleRequest) (*domain.Role, error) {
			t.Fatal("CreateRole should not be called")
			return nil, nil
		},
	})

	body := `{"role_name":"x","scope_rules":[{"scope":"LAUNCH_CODES","access_level":"FULL"}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/rbac/roles", bytes.NewBufferString(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRoleHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", domain.ErrRoleNotFound, http.StatusNotFound},
		{"name taken", domain.ErrValidation, http.StatusBadRequest},
		{"db error", errors.New("db error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRoleHandler(&roleServiceStub{
				updateFn: func(context.Context, string, domain.RoleRequest) (*domain.Role, error) { return nil, tt.err },
				deleteFn: func(context.Context, string) (int, error) { return 0, tt.err },
				getFn:    func(context.Context, string) (*domain.Role, error) { return nil, tt.err },
			})

			rec := httptest.NewRecorder()
			req := withURLParam(httptest.NewRequest(http.MethodPut, "/rbac/roles/r1", bytes.NewBufferString(`{"role_name":"x"}`)), "id", "r1")
			h.Update(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("update: expected %d, got %d", tt.status, rec.Code)
			}

			rec = httptest.NewRecorder()
			h.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/rbac/roles/r1", nil), "id", "r1"))
			if rec.Code != tt.status {
				t.Fatalf("delete: expected %d, got %d", tt.status, rec.Code)
			}

			rec = httptest.NewRecorder()
			h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/rbac/roles/r1", nil), "id", "r1"))
			if rec.Code != tt.status {
				t.Fatalf("get: expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestRoleHandler_DeleteAndList(t *testing.T) {
	var deletedID string
	h := NewRoleHandler(&roleServiceStub{
		deleteFn: func(_ context.Context, id string) (int, error) {
			deletedID = id
			return 1, nil
		},
		listFn: func(context.Context) ([]*domain.Role, error) {
			return []*domain.Role{{ID: "r1", Name: "admin", IsSuper: true}, {ID: "r2", Name: "viewer"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/rbac/roles/r2", nil), "id", "r2"))
	var del dto.DeleteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &del); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || del.Deleted != 1 || deletedID != "r2" {
		t.Fatalf("unexpected delete result %d %+v %s", rec.Code, del, deletedID)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/rbac/roles", nil))
	var roles []dto.RoleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &roles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roles) != 2 || !roles[0].IsSuper {
		t.Fatalf("unexpected roles %+v", roles)
	}
}
