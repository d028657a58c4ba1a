package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/dochub/internal/adapter/http/dto"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// Authenticator verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.SessionContext, error)
}

// TokenIssuer issues and classifies bearer tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, session *domain.SessionContext) (string, error)
	GetState(ctx context.Context, authorization string) domain.TokenState
}

// AuthRecorder counts login attempts.
type AuthRecorder interface {
	AuthAttempt(success bool)
}

type nopAuthRecorder struct{}

func (nopAuthRecorder) AuthAttempt(bool) {}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	actors   Authenticator
	tokens   TokenIssuer
	auditor  usecase.Auditor
	recorder AuthRecorder
}

// NewAuthHandler creates a new auth handler. auditor and recorder may be nil.
func NewAuthHandler(actors Authenticator, tokens TokenIssuer, auditor usecase.Auditor, recorder AuthRecorder) *AuthHandler {
	if auditor == nil {
		auditor = usecase.NopAuditor{}
	}
	if recorder == nil {
		recorder = nopAuthRecorder{}
	}
	return &AuthHandler{
		actors:   actors,
		tokens:   tokens,
		auditor:  auditor,
		recorder: recorder,
	}
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, "invalid request body", err)
		return
	}

	session, err := h.actors.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.recorder.AuthAttempt(false)
			writeError(w, http.StatusUnauthorized, "invalid credentials", "")
			return
		}
		writeDomainError(w, r, "failed to authenticate", err)
		return
	}
	h.recorder.AuthAttempt(true)

	token, err := h.tokens.Generate(r.Context(), session)
	if err != nil {
		writeDomainError(w, r, "failed to generate token", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

// Refresh returns the presented token when it is still valid and a new one
// when it has expired. Invalid tokens are refused.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	state := h.tokens.GetState(r.Context(), r.Header.Get("Authorization"))

	switch s := state.(type) {
	case domain.TokenValid:
		writeJSON(w, http.StatusOK, dto.TokenResponse{Token: s.Token})
	case domain.TokenExpired:
		ctx := domain.ContextWithSession(r.Context(), &s.Session)
		token, err := h.tokens.Generate(ctx, &s.Session)
		if err != nil {
			writeDomainError(w, r, "failed to refresh token", err)
			return
		}
		h.auditor.Audit(ctx, domain.AuditTokenRefresh, usecase.WithRole(s.Session.RoleID))
		writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
	case domain.TokenInvalid:
		writeError(w, http.StatusUnauthorized, "invalid token", "re-authentication required")
	}
}

// Logout records the logout. Tokens are stateless, so the client discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auditor.Audit(r.Context(), domain.AuditLogout)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}
	writeJSON(w, http.StatusOK, dto.SessionFromDomain(session))
}
