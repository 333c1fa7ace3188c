package shared

import "context"

// Actor is the resolved capability of the caller. Role resolution happens
// upstream; the core only ever branches on these two fields.
type Actor struct {
	ID                 int64
	Elevated           bool
	HomeStoragePointID int64
}

// CanActOn reports whether the actor may operate on the given storage point.
func (a Actor) CanActOn(storagePointID int64) bool {
	if a.Elevated {
		return true
	}
	return a.HomeStoragePointID == storagePointID
}

type actorContextKey struct{}

// ContextWithActor stores the actor capability in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor capability from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
