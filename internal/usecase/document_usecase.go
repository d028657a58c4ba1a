package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/dochub/internal/domain"
)

// DocumentUseCase handles document metadata, signed downloads and backups.
type DocumentUseCase struct {
	docRepo  DocumentRepository
	idGen    IDGenerator
	signer   URLSigner
	streamer Streamer
	auditor  Auditor
}

// NewDocumentUseCase creates a new DocumentUseCase. auditor may be nil.
func NewDocumentUseCase(docRepo DocumentRepository, idGen IDGenerator, signer URLSigner, streamer Streamer, auditor Auditor) *DocumentUseCase {
	if auditor == nil {
		auditor = NopAuditor{}
	}
	return &DocumentUseCase{
		docRepo:  docRepo,
		idGen:    idGen,
		signer:   signer,
		streamer: streamer,
		auditor:  auditor,
	}
}

// SignedURL is a download grant for a set of documents.
type SignedURL struct {
	Token     string
	Signature string
}

// Create stores metadata for a new document.
func (uc *DocumentUseCase) Create(ctx context.Context, req domain.DocumentRequest) (*domain.Document, error) {
	if err := validateDocumentRequest(&req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        uc.idGen.Generate(),
		CreatedAt: now,
	}
	req.Apply(doc, now)
	if doc.StorageName == "" {
		doc.StorageName = doc.ID
	}

	if err := uc.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentCreate, documentAudit(doc)...)
	return doc, nil
}

// Update replaces the metadata of an existing document. CreatedAt is kept.
func (uc *DocumentUseCase) Update(ctx context.Context, id string, req domain.DocumentRequest) (*domain.Document, error) {
	if err := validateDocumentRequest(&req); err != nil {
		return nil, err
	}

	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	storageName := doc.StorageName
	req.Apply(doc, time.Now().UTC())
	if doc.StorageName == "" {
		doc.StorageName = storageName
	}

	if err := uc.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentUpdate, documentAudit(doc)...)
	return doc, nil
}

// FindByID retrieves a document by ID.
func (uc *DocumentUseCase) FindByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentFindByID, documentAudit(doc)...)
	return doc, nil
}

// FindByOwner lists the documents of an owner.
func (uc *DocumentUseCase) FindByOwner(ctx context.Context, ownerID string, page domain.Pageable) (domain.Page[*domain.Document], error) {
	uc.auditor.Audit(ctx, domain.AuditDocumentFindByOwner, WithOwner(ownerID))
	return uc.list(ctx, DocumentFilter{OwnerID: ownerID}, page)
}

// FindByGroup lists the documents of a group.
func (uc *DocumentUseCase) FindByGroup(ctx context.Context, groupID string, page domain.Pageable) (domain.Page[*domain.Document], error) {
	uc.auditor.Audit(ctx, domain.AuditDocumentFindByGroup, WithGroup(groupID))
	return uc.list(ctx, DocumentFilter{GroupID: groupID}, page)
}

// FindAll lists every document.
func (uc *DocumentUseCase) FindAll(ctx context.Context, page domain.Pageable) (domain.Page[*domain.Document], error) {
	uc.auditor.Audit(ctx, domain.AuditDocumentFindAll)
	return uc.list(ctx, DocumentFilter{}, page)
}

// Delete removes a document.
func (uc *DocumentUseCase) Delete(ctx context.Context, id string) error {
	n, err := uc.docRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDocumentNotFound
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentDelete, WithDocument(id))
	return nil
}

// DeleteAll removes every document and returns how many were removed.
func (uc *DocumentUseCase) DeleteAll(ctx context.Context) (int64, error) {
	n, err := uc.docRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentDeleteAll, WithLog(fmt.Sprintf("%d documents", n)))
	return n, nil
}

// Backup prepares an archive of every document. It returns nil when there is nothing to back up.
func (uc *DocumentUseCase) Backup(ctx context.Context) (*Stream, error) {
	docs, err := uc.allDocuments(ctx)
	if err != nil {
		return nil, err
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentBackup, WithLog(fmt.Sprintf("%d documents", len(docs))))
	if len(docs) == 0 {
		return nil, nil
	}

	return uc.streamer.Prepare(docs, BackupArchiveName, true)
}

// SignedURL issues a token and a signature granting download of documentIDs.
func (uc *DocumentUseCase) SignedURL(ctx context.Context, documentIDs []string) (*SignedURL, error) {
	ids := make([]string, 0, len(documentIDs))
	for _, id := range documentIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no document ids", domain.ErrValidation)
	}

	docs, err := uc.docRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(docs) != len(ids) {
		return nil, domain.ErrDocumentNotFound
	}

	token := uc.idGen.Generate()
	signature, err := uc.signer.SignDownload(token, ids)
	if err != nil {
		return nil, fmt.Errorf("sign download: %w", err)
	}

	uc.auditor.Audit(ctx, domain.AuditDocumentSignedURL, WithLog(strings.Join(ids, ",")))
	return &SignedURL{Token: token, Signature: signature}, nil
}

// FindBySignature returns the documents granted by token and signature, or nil
// when the signature does not verify.
func (uc *DocumentUseCase) FindBySignature(ctx context.Context, token, signature string) ([]*domain.Document, error) {
	ids, err := uc.signer.VerifyDownload(token, signature)
	if err != nil {
		return nil, nil
	}
	return uc.docRepo.GetByIDs(ctx, ids)
}

// Download prepares the files granted by token and signature. One document is
// streamed as is, several as an archive. A failed verification is audited and
// reported as domain.ErrAccessDenied.
func (uc *DocumentUseCase) Download(ctx context.Context, token, signature string) (*Stream, error) {
	docs, err := uc.FindBySignature(ctx, token, signature)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		uc.auditor.Audit(ctx, domain.AuditDownloadRejected, WithLog(token))
		return nil, fmt.Errorf("%w: download verification failed", domain.ErrAccessDenied)
	}

	for _, doc := range docs {
		uc.auditor.Audit(ctx, domain.AuditDocumentDownload, documentAudit(doc)...)
	}

	return uc.streamer.Prepare(docs, DownloadArchiveName, false)
}

func (uc *DocumentUseCase) list(ctx context.Context, filter DocumentFilter, page domain.Pageable) (domain.Page[*domain.Document], error) {
	docs, total, err := uc.docRepo.List(ctx, filter, page)
	if err != nil {
		return domain.Page[*domain.Document]{}, err
	}
	return domain.NewPage(docs, total, page), nil
}

func (uc *DocumentUseCase) allDocuments(ctx context.Context) ([]*domain.Document, error) {
	var all []*domain.Document
	for page := 0; ; page++ {
		docs, _, err := uc.docRepo.List(ctx, DocumentFilter{}, domain.Pageable{
			Page: page,
			Size: domain.MaxPageSize,
			Sort: []domain.Sort{{Field: "created_at", Direction: domain.SortAsc}},
		})
		if err != nil {
			return nil, err
		}
		all = append(all, docs...)
		if len(docs) < domain.MaxPageSize {
			return all, nil
		}
	}
}

func validateDocumentRequest(req *domain.DocumentRequest) error {
	req.OriginalName = strings.TrimSpace(req.OriginalName)
	if req.OriginalName == "" {
		return fmt.Errorf("%w: original name is required", domain.ErrValidation)
	}
	if req.OwnerID == "" || req.GroupID == "" {
		return fmt.Errorf("%w: owner and group are required", domain.ErrValidation)
	}
	if req.Size < 0 {
		return fmt.Errorf("%w: size cannot be negative", domain.ErrValidation)
	}
	if req.Type == "" {
		req.Type = domain.DocumentTypeGeneral
	}
	t, err := domain.ParseDocumentType(string(req.Type))
	if err != nil {
		return err
	}
	req.Type = t
	if strings.Contains(req.StorageName, "..") || strings.ContainsAny(req.StorageName, `/\`) {
		return fmt.Errorf("%w: invalid storage name", domain.ErrValidation)
	}
	if strings.Contains(req.Location, "..") {
		return fmt.Errorf("%w: invalid location", domain.ErrValidation)
	}
	return nil
}

func documentAudit(doc *domain.Document) []AuditOption {
	return []AuditOption{
		WithDocument(doc.ID),
		WithOwner(doc.OwnerID),
		WithGroup(doc.GroupID),
	}
}
