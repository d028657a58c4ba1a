package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// DocumentService defines the behavior needed by DocumentHandler.
type DocumentService interface {
	Create(ctx context.Context, req domain.DocumentRequest) (*domain.Document, error)
	Update(ctx context.Context, id string, req domain.DocumentRequest) (*domain.Document, error)
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	FindByOwner(ctx context.Context, ownerID string, page domain.Pageable) (domain.Page[*domain.Document], error)
	FindByGroup(ctx context.Context, groupID string, page domain.Pageable) (domain.Page[*domain.Document], error)
	FindAll(ctx context.Context, page domain.Pageable) (domain.Page[*domain.Document], error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	Backup(ctx context.Context) (*usecase.Stream, error)
	SignedURL(ctx context.Context, documentIDs []string) (*usecase.SignedURL, error)
	Download(ctx context.Context, token, signature string) (*usecase.Stream, error)
}

// DocumentHandler handles document requests. Document bodies are redacted
// with the DOCUMENT decision recorded by the access middleware.
type DocumentHandler struct {
	docUC DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docUC DocumentService) *DocumentHandler {
	return &DocumentHandler{docUC: docUC}
}

// Create creates a document.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.DocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	doc, err := h.docUC.Create(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, "failed to create document", err)
		return
	}

	writeJSON(w, http.StatusCreated, redact(r, doc))
}

// Update updates a document.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.DocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	doc, err := h.docUC.Update(r.Context(), chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, "failed to update document", err)
		return
	}

	writeJSON(w, http.StatusOK, redact(r, doc))
}

// Get retrieves a document by ID.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docUC.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get document", err)
		return
	}

	writeJSON(w, http.StatusOK, redact(r, doc))
}

// List lists every document, paged.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, func(ctx context.Context, p domain.Pageable) (domain.Page[*domain.Document], error) {
		return h.docUC.FindAll(ctx, p)
	})
}

// ListByOwner lists the documents of an owner, paged.
func (h *DocumentHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner_id")
	h.page(w, r, func(ctx context.Context, p domain.Pageable) (domain.Page[*domain.Document], error) {
		return h.docUC.FindByOwner(ctx, ownerID, p)
	})
}

// ListByGroup lists the documents of a group, paged.
func (h *DocumentHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	h.page(w, r, func(ctx context.Context, p domain.Pageable) (domain.Page[*domain.Document], error) {
		return h.docUC.FindByGroup(ctx, groupID, p)
	})
}

// Delete deletes a document.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.docUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete document", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll deletes every document.
func (h *DocumentHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.docUC.DeleteAll(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to delete documents", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteResponse{Deleted: n})
}

// Backup streams an archive of every document, or 204 when there are none.
func (h *DocumentHandler) Backup(w http.ResponseWriter, r *http.Request) {
	stream, err := h.docUC.Backup(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to prepare backup", err)
		return
	}
	if stream == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeStream(w, r, stream)
}

// SignedURL issues a download grant for a set of documents.
func (h *DocumentHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	var req dto.SignedURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	signed, err := h.docUC.SignedURL(r.Context(), req.DocumentIDs)
	if err != nil {
		writeDomainError(w, r, "failed to sign download", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SignedURLResponse{Token: signed.Token, Signature: signed.Signature})
}

// Download streams the documents granted by the token and signature query parameters.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	signature := r.URL.Query().Get("signature")
	if token == "" || signature == "" {
		writeError(w, http.StatusBadRequest, "missing token or signature", "")
		return
	}

	stream, err := h.docUC.Download(r.Context(), token, signature)
	if err != nil {
		writeDomainError(w, r, "failed to download", err)
		return
	}

	writeStream(w, r, stream)
}

func (h *DocumentHandler) page(w http.ResponseWriter, r *http.Request, find func(context.Context, domain.Pageable) (domain.Page[*domain.Document], error)) {
	p, err := parsePageable(r)
	if err != nil {
		writeDomainError(w, r, "invalid pagination", err)
		return
	}

	page, err := find(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, "failed to list documents", err)
		return
	}

	decision, _ := domain.DecisionFromContext(r.Context(), domain.ScopeDocument)
	writeJSON(w, http.StatusOK, domain.MapPage(page, func(d *domain.Document) map[string]any {
		return dto.RedactedDocument(d, decision)
	}))
}

func redact(r *http.Request, doc *domain.Document) map[string]any {
	decision, _ := domain.DecisionFromContext(r.Context(), domain.ScopeDocument)
	return dto.RedactedDocument(doc, decision)
}

func writeStream(w http.ResponseWriter, r *http.Request, stream *usecase.Stream) {
	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": stream.Filename}))
	w.WriteHeader(http.StatusOK)

	if err := stream.WriteTo(w); err != nil {
		// Headers are already sent; the client sees a truncated body.
		zerolog.Ctx(r.Context()).Error().Err(err).Str("filename", stream.Filename).Msg("stream interrupted")
	}
}
