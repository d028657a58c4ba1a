package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/domain"
)

// AccessResolver answers whether a session may act on a scope at a required level.
// It holds no per-request state and is safe for concurrent use.
type AccessResolver struct {
	roleRepo RoleRepository
	cache    RoleCache
	auditor  Auditor
	observer Observer
	logger   zerolog.Logger
}

// NewAccessResolver creates a new AccessResolver. cache, auditor and observer may be nil.
func NewAccessResolver(roleRepo RoleRepository, cache RoleCache, auditor Auditor, observer Observer, logger zerolog.Logger) *AccessResolver {
	if cache == nil {
		cache = nopRoleCache{}
	}
	if auditor == nil {
		auditor = NopAuditor{}
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &AccessResolver{
		roleRepo: roleRepo,
		cache:    cache,
		auditor:  auditor,
		observer: observer,
		logger:   logger.With().Str("component", "access_resolver").Logger(),
	}
}

// Check evaluates the session's role for (scope, required). A denied check
// returns the decision together with an *domain.AccessDeniedError. A role
// deleted after the session was issued denies every scope.
func (r *AccessResolver) Check(ctx context.Context, session *domain.SessionContext, scope domain.Scope, required domain.AccessLevel) (domain.Decision, error) {
	if session == nil {
		return domain.Decision{Scope: scope, Required: required}, domain.ErrUnauthorized
	}

	var policy domain.Policy
	role, err := r.role(ctx, session.RoleID)
	switch {
	case err == nil:
		policy = role.Policy()
	case errors.Is(err, domain.ErrRoleNotFound):
		// nil policy denies everything
	default:
		return domain.Decision{Scope: scope, Required: required}, fmt.Errorf("resolve role %s: %w", session.RoleID, err)
	}

	decision := domain.Evaluate(policy, scope, required)
	r.observer.AccessChecked(scope, decision.Granted)

	if !decision.Granted {
		r.logger.Warn().
			Str("actor_id", session.ActorID).
			Str("role_id", session.RoleID).
			Str("scope", string(scope)).
			Str("required", required.String()).
			Msg("access denied")
		r.auditor.Audit(ctx, domain.AuditAccessDenied,
			WithActor(session.ActorID),
			WithRole(session.RoleID),
			WithLog(fmt.Sprintf("%s requires %s", scope, required)),
		)
		return decision, decision.Err(session.RoleID)
	}

	return decision, nil
}

// CheckContext is Check with the session taken from ctx.
func (r *AccessResolver) CheckContext(ctx context.Context, scope domain.Scope, required domain.AccessLevel) (domain.Decision, error) {
	session, ok := domain.SessionFromContext(ctx)
	if !ok {
		return domain.Decision{Scope: scope, Required: required}, domain.ErrUnauthorized
	}
	return r.Check(ctx, session, scope, required)
}

// role loads a role through the cache.
func (r *AccessResolver) role(ctx context.Context, roleID string) (*domain.Role, error) {
	cached, fill, ok := r.cache.Get(ctx, roleID)
	if ok {
		return cached, nil
	}

	role, err := r.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, role, fill)
	return role, nil
}
