package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
)

type auditServiceStub struct {
	listFn func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

func (s *auditServiceStub) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	return s.listFn(ctx, filter)
}

func TestAuditHandler_List(t *testing.T) {
	var captured domain.AuditFilter
	h := NewAuditHandler(&auditServiceStub{
		listFn: func(_ context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
			captured = filter
			return []*domain.AuditLog{{ID: "l1", Operation: domain.AuditDocumentBackup, ActorID: "a1"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/rbac/audit?actor_id=a1&operation=backup&limit=10&offset=20", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := domain.AuditFilter{ActorID: "a1", Operation: "backup", Limit: 10, Offset: 20}
	if captured != want {
		t.Fatalf("expected filter %+v, got %+v", want, captured)
	}

	var logs []dto.AuditLogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logs) != 1 || logs[0].Operation != domain.AuditDocumentBackup {
		t.Fatalf("unexpected logs %+v", logs)
	}
}
