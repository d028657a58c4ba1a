package domain

import "time"

// Actor is an account that can authenticate and act under exactly one role.
type Actor struct {
	ID             string
	Username       string
	HashedPassword string
	RoleID         string
	IsLocked       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session builds the session context for the actor.
func (a *Actor) Session() *SessionContext {
	return &SessionContext{
		ActorID:  a.ID,
		Username: a.Username,
		RoleID:   a.RoleID,
	}
}
