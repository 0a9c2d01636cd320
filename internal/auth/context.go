package auth

import (
	"context"

	"unipark/internal/db"
)

// Actor is the authenticated caller, carried explicitly through the request
// context instead of any ambient session state.
type Actor struct {
	UserID int
	Role   db.Role
}

func (a Actor) IsAdmin() bool { return a.Role == db.RoleAdmin }
func (a Actor) IsStaff() bool { return a.Role == db.RoleStaff || a.Role == db.RoleAdmin }

type contextKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
