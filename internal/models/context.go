package models

import "context"

type actorContextKey struct{}

// WithActor attaches the identity of the caller that triggered a registry
// operation so it can be stamped on the resulting event.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the caller identity from context, or "" if absent.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	return actor
}
