package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/dochub/internal/domain"
)

// ActorUseCase handles actor management and authentication.
type ActorUseCase struct {
	actorRepo ActorRepository
	roleRepo  RoleRepository
	idGen     IDGenerator
	auditor   Auditor
}

// NewActorUseCase creates a new ActorUseCase. auditor may be nil.
func NewActorUseCase(actorRepo ActorRepository, roleRepo RoleRepository, idGen IDGenerator, auditor Auditor) *ActorUseCase {
	if auditor == nil {
		auditor = NopAuditor{}
	}
	return &ActorUseCase{
		actorRepo: actorRepo,
		roleRepo:  roleRepo,
		idGen:     idGen,
		auditor:   auditor,
	}
}

// CreateActorInput represents input for creating an actor.
type CreateActorInput struct {
	Username string
	Password string
	RoleID   string
}

// CreateActor creates a new actor with a hashed password.
func (uc *ActorUseCase) CreateActor(ctx context.Context, input CreateActorInput) (*domain.Actor, error) {
	username := strings.TrimSpace(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if _, err := uc.roleRepo.GetByID(ctx, input.RoleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, fmt.Errorf("%w: unknown role %s", domain.ErrValidation, input.RoleID)
		}
		return nil, err
	}

	existing, err := uc.actorRepo.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("%w: username already exists", domain.ErrValidation)
	}
	if err != nil && !errors.Is(err, domain.ErrActorNotFound) {
		return nil, err
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	actor := &domain.Actor{
		ID:             uc.idGen.Generate(),
		Username:       username,
		HashedPassword: hashedPassword,
		RoleID:         input.RoleID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.actorRepo.Create(ctx, actor); err != nil {
		return nil, err
	}

	uc.auditor.Audit(ctx, domain.AuditActorCreate, WithRole(actor.RoleID), WithLog(actor.Username))

	// Don't return hashed password
	actor.HashedPassword = ""
	return actor, nil
}

// Authenticate verifies credentials and returns the session for the actor.
// Unknown usernames, wrong passwords and locked actors are indistinguishable.
func (uc *ActorUseCase) Authenticate(ctx context.Context, username, password string) (*domain.SessionContext, error) {
	actor, err := uc.actorRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			uc.auditor.Audit(ctx, domain.AuditLoginFailed, WithLog(username))
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if actor.IsLocked || verifyPassword(actor.HashedPassword, password) != nil {
		uc.auditor.Audit(ctx, domain.AuditLoginFailed, WithActor(actor.ID), WithLog(username))
		return nil, domain.ErrUnauthorized
	}

	session := actor.Session()
	uc.auditor.Audit(ctx, domain.AuditLogin, WithActor(actor.ID), WithRole(actor.RoleID))
	return session, nil
}

// GetActor retrieves an actor by ID.
func (uc *ActorUseCase) GetActor(ctx context.Context, id string) (*domain.Actor, error) {
	actor, err := uc.actorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor.HashedPassword = ""
	return actor, nil
}

// ListActors lists actors with pagination.
func (uc *ActorUseCase) ListActors(ctx context.Context, limit, offset int) ([]*domain.Actor, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	actors, err := uc.actorRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, actor := range actors {
		actor.HashedPassword = ""
	}

	return actors, nil
}

// SetLocked locks or unlocks an actor. Tokens of a locked actor become invalid.
func (uc *ActorUseCase) SetLocked(ctx context.Context, id string, locked bool) (*domain.Actor, error) {
	if err := uc.actorRepo.SetLocked(ctx, id, locked, time.Now().UTC()); err != nil {
		return nil, err
	}

	uc.auditor.Audit(ctx, domain.AuditActorLock, WithLog(fmt.Sprintf("actor %s locked=%t", id, locked)))
	return uc.GetActor(ctx, id)
}

// EnsureActor creates the actor unless one with the same username exists.
func (uc *ActorUseCase) EnsureActor(ctx context.Context, input CreateActorInput) (*domain.Actor, error) {
	existing, err := uc.actorRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err == nil {
		existing.HashedPassword = ""
		return existing, nil
	}
	if !errors.Is(err, domain.ErrActorNotFound) {
		return nil, err
	}
	return uc.CreateActor(ctx, input)
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword verifies a password against a hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
