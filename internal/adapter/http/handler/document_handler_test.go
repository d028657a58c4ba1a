package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

type documentServiceStub struct {
	createFn    func(ctx context.Context, req domain.DocumentRequest) (*domain.Document, error)
	findFn      func(ctx context.Context, id string) (*domain.Document, error)
	findAllFn   func(ctx context.Context, page domain.Pageable) (domain.Page[*domain.Document], error)
	findOwnerFn func(ctx context.Context, ownerID string, page domain.Pageable) (domain.Page[*domain.Document], error)
	deleteFn    func(ctx context.Context, id string) error
	deleteAllFn func(ctx context.Context) (int64, error)
	backupFn    func(ctx context.Context) (*usecase.Stream, error)
	signFn      func(ctx context.Context, ids []string) (*usecase.SignedURL, error)
	downloadFn  func(ctx context.Context, token, signature string) (*usecase.Stream, error)
}

func (s *documentServiceStub) Create(ctx context.Context, req domain.DocumentRequest) (*domain.Document, error) {
	return s.createFn(ctx, req)
}

func (s *documentServiceStub) Update(ctx context.Context, id string, req domain.DocumentRequest) (*domain.Document, error) {
	return s.createFn(ctx, req)
}

func (s *documentServiceStub) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	return s.findFn(ctx, id)
}

func (s *documentServiceStub) FindByOwner(ctx context.Context, ownerID string, page domain.Pageable) (domain.Page[*domain.Document], error) {
	return s.findOwnerFn(ctx, ownerID, page)
}

func (s *documentServiceStub) FindByGroup(ctx context.Context, groupID string, page domain.Pageable) (domain.Page[*domain.Document], error) {
	return s.findOwnerFn(ctx, groupID, page)
}

func (s *documentServiceStub) FindAll(ctx context.Context, page domain.Pageable) (domain.Page[*domain.Document], error) {
	return s.findAllFn(ctx, page)
}

func (s *documentServiceStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *documentServiceStub) DeleteAll(ctx context.Context) (int64, error) {
	return s.deleteAllFn(ctx)
}

func (s *documentServiceStub) Backup(ctx context.Context) (*usecase.Stream, error) {
	return s.backupFn(ctx)
}

func (s *documentServiceStub) SignedURL(ctx context.Context, ids []string) (*usecase.SignedURL, error) {
	return s.signFn(ctx, ids)
}

func (s *documentServiceStub) Download(ctx context.Context, token, signature string) (*usecase.Stream, error) {
	return s.downloadFn(ctx, token, signature)
}

func withDecision(r *http.Request, redacted ...string) *http.Request {
	d := domain.Decision{Granted: true, Scope: domain.ScopeDocument, Level: domain.AccessView}
	if len(redacted) > 0 {
		d.RedactedFields = make(map[string]struct{}, len(redacted))
		for _, f := range redacted {
			d.RedactedFields[f] = struct{}{}
		}
	}
	return r.WithContext(domain.ContextWithDecision(r.Context(), d))
}

func textStream(name, body string) *usecase.Stream {
	return &usecase.Stream{
		ContentType: "text/plain",
		Filename:    name,
		WriteTo: func(w io.Writer) error {
			_, err := io.WriteString(w, body)
			return err
		},
	}
}

func TestDocumentHandler_GetRedactsFields(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		findFn: func(_ context.Context, id string) (*domain.Document, error) {
			return &domain.Document{ID: id, Description: "payroll", Size: 10, Type: domain.DocumentTypeReport}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/document/d1", nil), "id", "d1")
	rec := httptest.NewRecorder()
	h.Get(rec, withDecision(req, "description"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, ok := body["description"]; !ok || v != nil {
		t.Fatalf("expected description null, got %v", body["description"])
	}
	if body["id"] != "d1" || body["type"] != "REPORT" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestDocumentHandler_GetNotFound(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		findFn: func(context.Context, string) (*domain.Document, error) { return nil, domain.ErrDocumentNotFound },
	})

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/v1/document/x", nil), "id", "x"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDocumentHandler_CreateInvalidType(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		createFn: func(_ context.Context, req domain.DocumentRequest) (*domain.Document, error) {
			_, err := domain.ParseDocumentType(string(req.Type))
			return nil, err
		},
	})

	body := `{"owner_id":"o1","group_id":"g1","original_name":"a.pdf","type":"SPAM"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/v1/document", bytes.NewBufferString(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDocumentHandler_ListPagesAndRedacts(t *testing.T) {
	var gotPage domain.Pageable
	h := NewDocumentHandler(&documentServiceStub{
		findAllFn: func(_ context.Context, p domain.Pageable) (domain.Page[*domain.Document], error) {
			gotPage = p
			docs := []*domain.Document{{ID: "d1", Size: 1}, {ID: "d2", Size: 2}}
			return domain.NewPage(docs, 5, p), nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/document?page=0&size=2&sort=created_at,desc", nil)
	rec := httptest.NewRecorder()
	h.List(rec, withDecision(req, "size"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotPage.Size != 2 || gotPage.Sort[0].Field != "created_at" {
		t.Fatalf("unexpected pageable %+v", gotPage)
	}

	var page domain.Page[map[string]any]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Details.TotalPages != 3 || !page.Details.HasNext || len(page.Content) != 2 {
		t.Fatalf("unexpected page details %+v", page.Details)
	}
	if page.Content[1]["size"] != nil {
		t.Fatalf("expected size redacted, got %v", page.Content[1]["size"])
	}
}

func TestDocumentHandler_ListRejectsBadPaging(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		findOwnerFn: func(context.Context, string, domain.Pageable) (domain.Page[*domain.Document], error) {
			t.Fatal("FindByOwner should not be called")
			return domain.Page[*domain.Document]{}, nil
		},
	})

	for _, query := range []string{"?size=10", "?sort=password", "?sort=size,sideways"} {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/document/owner/o1"+query, nil), "owner_id", "o1")
		rec := httptest.NewRecorder()
		h.ListByOwner(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestDocumentHandler_DeleteAll(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		deleteAllFn: func(context.Context) (int64, error) { return 7, nil },
		deleteFn:    func(context.Context, string) error { return nil },
	})

	rec := httptest.NewRecorder()
	h.DeleteAll(rec, httptest.NewRequest(http.MethodDelete, "/v1/document", nil))
	var resp dto.DeleteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Deleted != 7 {
		t.Fatalf("expected 7 deleted, got %d", resp.Deleted)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/document/d1", nil), "id", "d1"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestDocumentHandler_Backup(t *testing.T) {
	tests := []struct {
		name   string
		stream *usecase.Stream
		status int
	}{
		{"empty store", nil, http.StatusNoContent},
		{"archive", textStream("backup.zip", "zipdata"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDocumentHandler(&documentServiceStub{
				backupFn: func(context.Context) (*usecase.Stream, error) { return tt.stream, nil },
			})

			rec := httptest.NewRecorder()
			h.Backup(rec, httptest.NewRequest(http.MethodGet, "/v1/document/backup", nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.stream != nil {
				if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=backup.zip` {
					t.Fatalf("unexpected disposition %q", got)
				}
				if rec.Body.String() != "zipdata" {
					t.Fatalf("unexpected body %q", rec.Body.String())
				}
			}
		})
	}
}

func TestDocumentHandler_SignedURLAndDownload(t *testing.T) {
	h := NewDocumentHandler(&documentServiceStub{
		signFn: func(_ context.Context, ids []string) (*usecase.SignedURL, error) {
			return &usecase.SignedURL{Token: "tok", Signature: fmt.Sprintf("sig-%d", len(ids))}, nil
		},
		downloadFn: func(_ context.Context, token, signature string) (*usecase.Stream, error) {
			if signature != "sig-2" {
				return nil, fmt.Errorf("%w: download verification failed", domain.ErrAccessDenied)
			}
			return textStream("report.txt", "hello"), nil
		},
	})

	rec := httptest.NewRecorder()
	h.SignedURL(rec, httptest.NewRequest(http.MethodPost, "/v1/document/url", bytes.NewBufferString(`{"document_ids":["d1","d2"]}`)))
	var signed dto.SignedURLResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &signed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if signed.Token != "tok" || signed.Signature != "sig-2" {
		t.Fatalf("unexpected grant %+v", signed)
	}

	rec = httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/v1/document/download?token=tok&signature=sig-2", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Fatalf("unexpected download %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/v1/document/download?token=tok&signature=forged", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/v1/document/download?token=tok", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
