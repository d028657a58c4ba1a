package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iho/dochub/internal/domain"
)

// RoleUseCase manages roles and their scope rules.
type RoleUseCase struct {
	txManager TransactionManager
	roleRepo  RoleRepository
	retrier   Retrier
	cache     RoleCache
	idGen     IDGenerator
	auditor   Auditor
	observer  Observer
}

// NewRoleUseCase creates a new RoleUseCase. cache, auditor and observer may be nil.
func NewRoleUseCase(
	txManager TransactionManager,
	roleRepo RoleRepository,
	retrier Retrier,
	cache RoleCache,
	idGen IDGenerator,
	auditor Auditor,
	observer Observer,
) *RoleUseCase {
	if cache == nil {
		cache = nopRoleCache{}
	}
	if auditor == nil {
		auditor = NopAuditor{}
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &RoleUseCase{
		txManager: txManager,
		roleRepo:  roleRepo,
		retrier:   retrier,
		cache:     cache,
		idGen:     idGen,
		auditor:   auditor,
		observer:  observer,
	}
}

// CreateRole validates the request and persists a new role with its scope rules.
func (uc *RoleUseCase) CreateRole(ctx context.Context, req domain.RoleRequest) (*domain.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	name := req.NormalizedName()
	if err := uc.ensureNameAvailable(ctx, name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	role := &domain.Role{
		ID:        uc.idGen.Generate(),
		Name:      name,
		IsSuper:   req.IsSuper,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	role.ScopeRules = req.BuildScopeRules(role.ID, uc.idGen.Generate, now)

	err := uc.retrier.Retry(ctx, func() error {
		return uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
			return uc.roleRepo.Create(ctx, tx, role)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.observer.RoleMutated("create")
	uc.auditor.Audit(ctx, domain.AuditRoleCreate, WithRole(role.ID), WithLog(role.Name))

	return role, nil
}

// UpdateRole replaces the role's attributes and its whole set of scope rules atomically.
// A nil description leaves the stored one unchanged.
func (uc *RoleUseCase) UpdateRole(ctx context.Context, id string, req domain.RoleRequest) (*domain.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := uc.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := req.NormalizedName()
	if err := uc.ensureNameAvailable(ctx, name, existing.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	role := existing.Clone()
	role.Name = name
	role.IsSuper = req.IsSuper
	role.UpdatedAt = now
	if req.Description != nil {
		role.Description = *req.Description
	}
	role.ScopeRules = req.BuildScopeRules(role.ID, uc.idGen.Generate, now)

	err = uc.retrier.Retry(ctx, func() error {
		return uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
			if err := uc.roleRepo.Update(ctx, tx, role); err != nil {
				return err
			}
			_, err := uc.roleRepo.ReplaceScopeRules(ctx, tx, role.ID, role.ScopeRules)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Invalidate(ctx, role.ID)
	uc.observer.RoleMutated("update")
	uc.auditor.Audit(ctx, domain.AuditRoleUpdate, WithRole(role.ID), WithLog(role.Name))

	return role, nil
}

// DeleteRole removes the role and, by cascade, its rules. Returns the number of deleted roles.
func (uc *RoleUseCase) DeleteRole(ctx context.Context, id string) (int, error) {
	var deleted int64
	err := uc.retrier.Retry(ctx, func() error {
		return uc.inTx(ctx, func(ctx context.Context, tx Transaction) error {
			n, err := uc.roleRepo.Delete(ctx, tx, id)
			if err != nil {
				return err
			}
			if n == 0 {
				return domain.ErrRoleNotFound
			}
			deleted = n
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	uc.cache.Invalidate(ctx, id)
	uc.observer.RoleMutated("delete")
	uc.auditor.Audit(ctx, domain.AuditRoleDelete, WithRole(id))

	return int(deleted), nil
}

// GetRole retrieves a role with its rules.
func (uc *RoleUseCase) GetRole(ctx context.Context, id string) (*domain.Role, error) {
	return uc.roleRepo.GetByID(ctx, id)
}

// ListRoles lists every role with its rules.
func (uc *RoleUseCase) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return uc.roleRepo.List(ctx)
}

// EnsureSuperRole returns the role called name, creating it as a super role if missing.
func (uc *RoleUseCase) EnsureSuperRole(ctx context.Context, name string) (*domain.Role, error) {
	role, err := uc.roleRepo.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}

	description := "built-in administrator"
	return uc.CreateRole(ctx, domain.RoleRequest{
		RoleName:    name,
		Description: &description,
		IsSuper:     true,
	})
}

func (uc *RoleUseCase) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	other, err := uc.roleRepo.GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrRoleNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != selfID:
		return fmt.Errorf("%w: role name %q already exists", domain.ErrValidation, strings.ToLower(name))
	}
	return nil
}

func (uc *RoleUseCase) inTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type nopRoleCache struct{}

func (nopRoleCache) Get(context.Context, string) (*domain.Role, uint64, bool) { return nil, 0, false }
func (nopRoleCache) Set(context.Context, *domain.Role, uint64)                {}
func (nopRoleCache) Invalidate(context.Context, string)                       {}
