package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/domain"
)

// TokenClassifier classifies the bearer token of an Authorization header.
type TokenClassifier interface {
	GetState(ctx context.Context, authorization string) domain.TokenState
}

// AccessChecker evaluates the session in ctx against a scope.
type AccessChecker interface {
	CheckContext(ctx context.Context, scope domain.Scope, required domain.AccessLevel) (domain.Decision, error)
}

// Authenticate admits requests carrying a valid bearer token and stores
// the actor's session in the request context.
func Authenticate(tokens TokenClassifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := tokens.GetState(r.Context(), r.Header.Get("Authorization"))

			switch s := state.(type) {
			case domain.TokenValid:
				session := s.Session
				next.ServeHTTP(w, r.WithContext(domain.ContextWithSession(r.Context(), &session)))
			case domain.TokenExpired:
				writeError(w, http.StatusUnauthorized, "unauthorized", domain.ErrExpiredToken.Error())
			case domain.TokenInvalid:
				writeError(w, http.StatusUnauthorized, "unauthorized", domain.ErrInvalidToken.Error())
			}
		})
	}
}

// RequireScope admits requests whose session holds at least level on scope.
// The decision is stored in the context for response redaction.
func RequireScope(checker AccessChecker, scope domain.Scope, level domain.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := checker.CheckContext(r.Context(), scope, level)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrUnauthorized):
				writeError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			case errors.Is(err, domain.ErrAccessDenied):
				writeError(w, http.StatusForbidden, "forbidden", err.Error())
				return
			default:
				zerolog.Ctx(r.Context()).Error().Err(err).Str("scope", string(scope)).Msg("access check failed")
				writeError(w, http.StatusInternalServerError, "access check failed", "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.ContextWithDecision(r.Context(), decision)))
		})
	}
}
