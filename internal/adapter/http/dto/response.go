package dto

import (
	"time"

	"github.com/iho/dochub/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// SessionResponse describes the authenticated actor.
type SessionResponse struct {
	ActorID  string `json:"actor_id"`
	Username string `json:"username"`
	RoleID   string `json:"role_id"`
}

// SessionFromDomain converts a session to response.
func SessionFromDomain(s *domain.SessionContext) *SessionResponse {
	return &SessionResponse{ActorID: s.ActorID, Username: s.Username, RoleID: s.RoleID}
}

// RoleResponse represents a role in API responses.
type RoleResponse struct {
	ID          string              `json:"id"`
	RoleName    string              `json:"role_name"`
	Description string              `json:"description"`
	IsSuper     bool                `json:"is_super"`
	ScopeRules  []ScopeRuleResponse `json:"scope_rules"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ScopeRuleResponse represents a scope rule in API responses.
type ScopeRuleResponse struct {
	ID          string              `json:"id"`
	Scope       domain.Scope        `json:"scope"`
	AccessLevel domain.AccessLevel  `json:"access_level"`
	FieldRules  []FieldRuleResponse `json:"field_rules"`
}

// FieldRuleResponse represents a field rule in API responses.
type FieldRuleResponse struct {
	FieldName   string             `json:"field_name"`
	AccessLevel domain.AccessLevel `json:"access_level"`
}

// RoleFromDomain converts domain role to response.
func RoleFromDomain(r *domain.Role) *RoleResponse {
	rules := make([]ScopeRuleResponse, 0, len(r.ScopeRules))
	for _, sr := range r.ScopeRules {
		fields := make([]FieldRuleResponse, 0, len(sr.FieldRules))
		for _, fr := range sr.FieldRules {
			fields = append(fields, FieldRuleResponse{FieldName: fr.FieldName, AccessLevel: fr.AccessLevel})
		}
		rules = append(rules, ScopeRuleResponse{
			ID:          sr.ID,
			Scope:       sr.Scope,
			AccessLevel: sr.AccessLevel,
			FieldRules:  fields,
		})
	}

	return &RoleResponse{
		ID:          r.ID,
		RoleName:    r.Name,
		Description: r.Description,
		IsSuper:     r.IsSuper,
		ScopeRules:  rules,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// RolesFromDomain converts domain roles to responses.
func RolesFromDomain(roles []*domain.Role) []*RoleResponse {
	result := make([]*RoleResponse, len(roles))
	for i, r := range roles {
		result[i] = RoleFromDomain(r)
	}
	return result
}

// ActorResponse represents an actor in API responses. The password hash is never exposed.
type ActorResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	RoleID    string    `json:"role_id"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActorFromDomain converts domain actor to response.
func ActorFromDomain(a *domain.Actor) *ActorResponse {
	return &ActorResponse{
		ID:        a.ID,
		Username:  a.Username,
		RoleID:    a.RoleID,
		IsLocked:  a.IsLocked,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ActorsFromDomain converts domain actors to responses.
func ActorsFromDomain(actors []*domain.Actor) []*ActorResponse {
	result := make([]*ActorResponse, len(actors))
	for i, a := range actors {
		result[i] = ActorFromDomain(a)
	}
	return result
}

// DocumentResponse represents a document in API responses. Its JSON keys
// are the field names that field rules refer to.
type DocumentResponse struct {
	ID           string              `json:"id"`
	OwnerID      string              `json:"owner_id"`
	GroupID      string              `json:"group_id"`
	Type         domain.DocumentType `json:"type"`
	Description  string              `json:"description"`
	OriginalName string              `json:"original_name"`
	StorageName  string              `json:"storage_name"`
	Location     string              `json:"location"`
	IsCiphered   bool                `json:"is_ciphered"`
	Size         int64               `json:"size"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// DocumentFromDomain converts domain document to response.
func DocumentFromDomain(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:           d.ID,
		OwnerID:      d.OwnerID,
		GroupID:      d.GroupID,
		Type:         d.Type,
		Description:  d.Description,
		OriginalName: d.OriginalName,
		StorageName:  d.StorageName,
		Location:     d.Location,
		IsCiphered:   d.IsCiphered,
		Size:         d.Size,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// RedactedDocument converts d to a JSON object with the fields redacted by
// decision set to null.
func RedactedDocument(d *domain.Document, decision domain.Decision) map[string]any {
	return decision.Redact(domain.MarshalState(DocumentFromDomain(d)))
}

// SignedURLResponse is a download grant.
type SignedURLResponse struct {
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

// DeleteResponse reports how many records were deleted.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	ActorID    string    `json:"actor_id,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	OwnerID    string    `json:"owner_id,omitempty"`
	RoleID     string    `json:"role_id,omitempty"`
	Log        string    `json:"log,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLogsFromDomain converts audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:         l.ID,
			Operation:  l.Operation,
			ActorID:    l.ActorID,
			DocumentID: l.DocumentID,
			GroupID:    l.GroupID,
			OwnerID:    l.OwnerID,
			RoleID:     l.RoleID,
			Log:        l.Log,
			CreatedAt:  l.CreatedAt,
		}
	}
	return result
}
