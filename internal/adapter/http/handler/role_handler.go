package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
)

// RoleService defines the behavior needed by RoleHandler.
type RoleService interface {
	CreateRole(ctx context.Context, req domain.RoleRequest) (*domain.Role, error)
	UpdateRole(ctx context.Context, id string, req domain.RoleRequest) (*domain.Role, error)
	DeleteRole(ctx context.Context, id string) (int, error)
	GetRole(ctx context.Context, id string) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
}

// RoleHandler handles role administration requests.
type RoleHandler struct {
	roleUC RoleService
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(roleUC RoleService) *RoleHandler {
	return &RoleHandler{roleUC: roleUC}
}

// Create creates a role.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	role, err := h.roleUC.CreateRole(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, "failed to create role", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RoleFromDomain(role))
}

// Update replaces a role and all of its scope rules.
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	role, err := h.roleUC.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, "failed to update role", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RoleFromDomain(role))
}

// Delete deletes a role.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.roleUC.DeleteRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to delete role", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteResponse{Deleted: int64(n)})
}

// Get retrieves a role by ID.
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.roleUC.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get role", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RoleFromDomain(role))
}

// List lists every role.
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleUC.ListRoles(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to list roles", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RolesFromDomain(roles))
}
