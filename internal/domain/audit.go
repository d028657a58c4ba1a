package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is an audit trail entry for a privileged operation.
type AuditLog struct {
	ID         string
	Operation  string // What was done (create role, backup, download, ...)
	ActorID    string // Who did it, empty for anonymous requests
	DocumentID string
	GroupID    string
	OwnerID    string
	RoleID     string
	Log        string // Free-form detail
	CreatedAt  time.Time
}

// Audit operations emitted by the service.
const (
	AuditRoleCreate = "role.create"
	AuditRoleUpdate = "role.update"
	AuditRoleDelete = "role.delete"

	AuditActorCreate = "actor.create"
	AuditActorLock   = "actor.lock"

	AuditLogin        = "auth.login"
	AuditLoginFailed  = "auth.login.failed"
	AuditLogout       = "auth.logout"
	AuditTokenRefresh = "auth.token.refresh"
	AuditAccessDenied = "access.denied"

	AuditDocumentCreate      = "document.create"
	AuditDocumentUpdate      = "document.update"
	AuditDocumentFindByID    = "find by document id"
	AuditDocumentFindByOwner = "find by owner"
	AuditDocumentFindByGroup = "find by group"
	AuditDocumentFindAll     = "find all"
	AuditDocumentDelete      = "document.delete"
	AuditDocumentDeleteAll   = "delete all"
	AuditDocumentBackup      = "backup"
	AuditDocumentSignedURL   = "signed url"
	AuditDocumentDownload    = "download"
	AuditDownloadRejected    = "download verification failed"
)

// AuditFilter defines filters for querying audit logs.
type AuditFilter struct {
	ActorID   string
	Operation string
	Limit     int
	Offset    int
}

// MarshalState converts a value to a generic JSON object.
func MarshalState(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal state"}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"error": "failed to unmarshal state"}
	}

	return result
}
