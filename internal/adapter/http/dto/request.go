package dto

import (
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// RoleRequest represents a request to create or replace a role.
type RoleRequest struct {
	RoleName    string             `json:"role_name"             validate:"required,max=64"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=512"`
	IsSuper     bool               `json:"is_super"`
	ScopeRules  []ScopeRuleRequest `json:"scope_rules,omitempty" validate:"dive"`
}

// ScopeRuleRequest is one scope rule of a RoleRequest. Unknown scopes and
// access levels are rejected while decoding.
type ScopeRuleRequest struct {
	Scope       domain.Scope       `json:"scope"                 validate:"required"`
	AccessLevel domain.AccessLevel `json:"access_level"`
	FieldRules  []FieldRuleRequest `json:"field_rules,omitempty" validate:"dive"`
}

// FieldRuleRequest is one field rule of a ScopeRuleRequest.
type FieldRuleRequest struct {
	FieldName   string             `json:"field_name" validate:"required,max=128"`
	AccessLevel domain.AccessLevel `json:"access_level"`
}

// ToDomain converts to the domain request.
func (r *RoleRequest) ToDomain() domain.RoleRequest {
	rules := make([]domain.ScopeRuleRequest, 0, len(r.ScopeRules))
	for _, sr := range r.ScopeRules {
		fields := make([]domain.FieldRuleRequest, 0, len(sr.FieldRules))
		for _, fr := range sr.FieldRules {
			fields = append(fields, domain.FieldRuleRequest{FieldName: fr.FieldName, AccessLevel: fr.AccessLevel})
		}
		rules = append(rules, domain.ScopeRuleRequest{
			Scope:       sr.Scope,
			AccessLevel: sr.AccessLevel,
			FieldRules:  fields,
		})
	}

	return domain.RoleRequest{
		RoleName:    r.RoleName,
		Description: r.Description,
		IsSuper:     r.IsSuper,
		ScopeRules:  rules,
	}
}

// CreateActorRequest represents a request to create an actor.
type CreateActorRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	RoleID   string `json:"role_id"  validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateActorRequest) ToUseCaseInput() usecase.CreateActorInput {
	return usecase.CreateActorInput{
		Username: r.Username,
		Password: r.Password,
		RoleID:   r.RoleID,
	}
}

// LockActorRequest locks or unlocks an actor.
type LockActorRequest struct {
	Locked bool `json:"locked"`
}

// DocumentRequest represents a request to create or update a document.
type DocumentRequest struct {
	OwnerID      string `json:"owner_id"      validate:"required,max=64"`
	GroupID      string `json:"group_id"      validate:"required,max=64"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	OriginalName string `json:"original_name" validate:"required,max=255"`
	StorageName  string `json:"storage_name"  validate:"max=255"`
	Location     string `json:"location"      validate:"max=512"`
	IsCiphered   bool   `json:"is_ciphered"`
	Size         int64  `json:"size"          validate:"gte=0"`
}

// ToDomain converts to the domain request. The type is parsed by the use case.
func (r *DocumentRequest) ToDomain() domain.DocumentRequest {
	return domain.DocumentRequest{
		OwnerID:      r.OwnerID,
		GroupID:      r.GroupID,
		Type:         domain.DocumentType(r.Type),
		Description:  r.Description,
		OriginalName: r.OriginalName,
		StorageName:  r.StorageName,
		Location:     r.Location,
		IsCiphered:   r.IsCiphered,
		Size:         r.Size,
	}
}

// SignedURLRequest asks for a download grant over document IDs.
type SignedURLRequest struct {
	DocumentIDs []string `json:"document_ids" validate:"required,min=1,dive,required"`
}
