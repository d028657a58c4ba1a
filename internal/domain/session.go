package domain

import "context"

// SessionContext is the per-request identity of an authenticated actor.
type SessionContext struct {
	ActorID  string `json:"actor_id"`
	Username string `json:"username"`
	RoleID   string `json:"role_id"`
}

type sessionKey struct{}

// ContextWithSession returns a copy of ctx carrying the session.
func ContextWithSession(ctx context.Context, session *SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session stored in ctx, if any.
func SessionFromContext(ctx context.Context) (*SessionContext, bool) {
	session, ok := ctx.Value(sessionKey{}).(*SessionContext)
	return session, ok && session != nil
}
