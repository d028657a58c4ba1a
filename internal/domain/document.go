package domain

import (
	"fmt"
	"strings"
	"time"
)

// Document is the metadata of a stored file.
type Document struct {
	ID           string
	OwnerID      string
	GroupID      string
	Type         DocumentType
	Description  string
	OriginalName string
	StorageName  string
	Location     string
	IsCiphered   bool
	Size         int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentType categorizes documents.
type DocumentType string

const (
	DocumentTypeGeneral  DocumentType = "GENERAL"
	DocumentTypeContract DocumentType = "CONTRACT"
	DocumentTypeInvoice  DocumentType = "INVOICE"
	DocumentTypeReport   DocumentType = "REPORT"
	DocumentTypeOther    DocumentType = "OTHER"
)

var validDocumentTypes = map[DocumentType]bool{
	DocumentTypeGeneral:  true,
	DocumentTypeContract: true,
	DocumentTypeInvoice:  true,
	DocumentTypeReport:   true,
	DocumentTypeOther:    true,
}

// ParseDocumentType parses a document type name, case-insensitively.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if !validDocumentTypes[t] {
		return "", fmt.Errorf("%w: unknown document type %q", ErrValidation, s)
	}
	return t, nil
}

// DocumentRequest is the input used to create or update a document.
type DocumentRequest struct {
	OwnerID      string
	GroupID      string
	Type         DocumentType
	Description  string
	OriginalName string
	StorageName  string
	Location     string
	IsCiphered   bool
	Size         int64
}

// Apply copies the request onto d, leaving identity and CreatedAt untouched.
func (req DocumentRequest) Apply(d *Document, now time.Time) {
	d.OwnerID = req.OwnerID
	d.GroupID = req.GroupID
	d.Type = req.Type
	d.Description = req.Description
	d.OriginalName = req.OriginalName
	d.StorageName = req.StorageName
	d.Location = req.Location
	d.IsCiphered = req.IsCiphered
	d.Size = req.Size
	d.UpdatedAt = now
}

// DocumentSortFields maps the sortable API field names to column names.
var DocumentSortFields = map[string]string{
	"id":            "id",
	"owner_id":      "owner_id",
	"group_id":      "group_id",
	"type":          "type",
	"original_name": "original_name",
	"size":          "size",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
}
