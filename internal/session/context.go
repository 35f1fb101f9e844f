package session

import "context"

type snapshotContextKey struct{}

// ContextWithSnapshot stores the resolved session in context. Only the
// session middleware writes it; guards and handlers read.
func ContextWithSnapshot(ctx context.Context, snap Snapshot) context.Context {
	return context.WithValue(ctx, snapshotContextKey{}, snap)
}

// FromContext extracts the session snapshot. When the middleware has not run
// the zero Snapshot (StateLoading) is returned, which guards refuse to decide
// on.
func FromContext(ctx context.Context) Snapshot {
	snap, _ := ctx.Value(snapshotContextKey{}).(Snapshot)
	return snap
}
