package domain

import "time"

// TokenState classifies a bearer token. The variants are TokenValid,
// TokenExpired and TokenInvalid; they are mutually exclusive and exhaustive.
type TokenState interface {
	tokenState()
	// Name is used for logs and metric labels.
	Name() string
}

// TokenValid is a token whose signature verifies and which has not expired.
type TokenValid struct {
	Token   string
	Session SessionContext
}

// TokenExpired is a token whose signature verifies but whose expiry has passed.
type TokenExpired struct {
	Token   string
	Session SessionContext
}

// TokenInvalid is anything else: malformed, bad signature, unknown actor.
type TokenInvalid struct {
	Reason error
}

func (TokenValid) tokenState()   {}
func (TokenExpired) tokenState() {}
func (TokenInvalid) tokenState() {}

func (TokenValid) Name() string   { return "valid" }
func (TokenExpired) Name() string { return "expired" }
func (TokenInvalid) Name() string { return "invalid" }

// TokenClaims is the decoded payload of a bearer token.
type TokenClaims struct {
	TokenID   string
	ActorID   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
