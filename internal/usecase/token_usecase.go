package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iho/dochub/internal/domain"
)

// TokenService issues bearer tokens and classifies presented ones.
type TokenService struct {
	codec     TokenCodec
	actorRepo ActorRepository
	observer  Observer
}

// NewTokenService creates a new TokenService. observer may be nil.
func NewTokenService(codec TokenCodec, actorRepo ActorRepository, observer Observer) *TokenService {
	if observer == nil {
		observer = NopObserver{}
	}
	return &TokenService{
		codec:     codec,
		actorRepo: actorRepo,
		observer:  observer,
	}
}

// Generate signs a new token for the session. A nil session, or one whose
// actor is unknown or locked, fails with domain.ErrTokenGeneration.
func (s *TokenService) Generate(ctx context.Context, session *domain.SessionContext) (string, error) {
	if session == nil || session.ActorID == "" {
		return "", fmt.Errorf("%w: invalid session context", domain.ErrTokenGeneration)
	}

	actor, err := s.actorRepo.GetByID(ctx, session.ActorID)
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			return "", fmt.Errorf("%w: unknown actor", domain.ErrTokenGeneration)
		}
		return "", err
	}
	if actor.IsLocked {
		return "", fmt.Errorf("%w: actor is locked", domain.ErrTokenGeneration)
	}

	token, err := s.codec.Sign(*actor.Session())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.observer.TokenIssued()
	return token, nil
}

// GetState classifies the token carried by an Authorization header value.
// The session of a valid or expired token reflects the actor's current role.
func (s *TokenService) GetState(ctx context.Context, authorization string) domain.TokenState {
	state := s.classify(ctx, authorization)
	s.observer.TokenClassified(state.Name())
	return state
}

func (s *TokenService) classify(ctx context.Context, authorization string) domain.TokenState {
	raw, ok := BearerToken(authorization)
	if !ok {
		return domain.TokenInvalid{Reason: fmt.Errorf("%w: missing bearer token", domain.ErrInvalidToken)}
	}

	claims, err := s.codec.Inspect(raw)
	expired := errors.Is(err, domain.ErrExpiredToken)
	if err != nil && !expired {
		return domain.TokenInvalid{Reason: err}
	}

	actor, err := s.actorRepo.GetByID(ctx, claims.ActorID)
	if err != nil {
		return domain.TokenInvalid{Reason: fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)}
	}
	if actor.IsLocked {
		return domain.TokenInvalid{Reason: fmt.Errorf("%w: actor is locked", domain.ErrInvalidToken)}
	}

	session := *actor.Session()
	if expired {
		return domain.TokenExpired{Token: raw, Session: session}
	}
	return domain.TokenValid{Token: raw, Session: session}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(authorization string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
