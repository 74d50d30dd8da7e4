// Package auth implements the engine's Authorizer port. The model is
// capability-style: whoever fronts a call (the HTTP layer after verifying a
// bearer token, or the keeper acting as admin) injects the proven actor into
// the context, and the engine asks RequireAuth to confirm a given principal
// is among them.
package auth

import (
	"context"

	"billvault/internal/domain/billing"
)

type contextKey struct{}

// WithActor returns a context proving that actor approved the current call.
// Multiple actors may be stacked (e.g. a user call relayed by the admin).
func WithActor(ctx context.Context, actor billing.Identity) context.Context {
	actors, _ := ctx.Value(contextKey{}).([]billing.Identity)
	// Copy so sibling contexts sharing the parent slice are unaffected.
	next := make([]billing.Identity, len(actors), len(actors)+1)
	copy(next, actors)
	return context.WithValue(ctx, contextKey{}, append(next, actor))
}

// Actors returns the identities proven on this context.
func Actors(ctx context.Context) []billing.Identity {
	actors, _ := ctx.Value(contextKey{}).([]billing.Identity)
	return actors
}

// ContextAuthorizer implements ledger.Authorizer against context-carried
// actors.
type ContextAuthorizer struct{}

func NewContextAuthorizer() *ContextAuthorizer {
	return &ContextAuthorizer{}
}

func (a *ContextAuthorizer) RequireAuth(ctx context.Context, principal billing.Identity) error {
	for _, actor := range Actors(ctx) {
		if actor == principal {
			return nil
		}
	}
	return billing.ErrUnauthorized
}
