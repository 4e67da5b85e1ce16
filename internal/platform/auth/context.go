package auth

import (
	"context"

	"github.com/Aidzix/Monday/internal/domain/access"
)

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(access.Actor)
	return actor, ok && actor.ID != ""
}
