package auth

import (
	"context"
	"testing"

	"billvault/internal/domain/billing"

	"github.com/stretchr/testify/require"
)

func TestContextAuthorizer(t *testing.T) {
	authorizer := NewContextAuthorizer()
	ctx := WithActor(context.Background(), "GUSER")

	require.NoError(t, authorizer.RequireAuth(ctx, "GUSER"))
	require.ErrorIs(t, authorizer.RequireAuth(ctx, "GOTHER"), billing.ErrUnauthorized)
	require.ErrorIs(t, authorizer.RequireAuth(context.Background(), "GUSER"), billing.ErrUnauthorized)
}

func TestActorsStack(t *testing.T) {
	ctx := WithActor(context.Background(), "GADMIN")
	ctx = WithActor(ctx, "GUSER")

	require.Equal(t, []billing.Identity{"GADMIN", "GUSER"}, Actors(ctx))

	authorizer := NewContextAuthorizer()
	require.NoError(t, authorizer.RequireAuth(ctx, "GADMIN"))
	require.NoError(t, authorizer.RequireAuth(ctx, "GUSER"))
}

func TestWithActorDoesNotLeakIntoSiblings(t *testing.T) {
	parent := WithActor(context.Background(), "GADMIN")
	a := WithActor(parent, "GUSER")
	b := WithActor(parent, "GOTHER")

	require.Equal(t, []billing.Identity{"GADMIN", "GUSER"}, Actors(a))
	require.Equal(t, []billing.Identity{"GADMIN", "GOTHER"}, Actors(b))
	require.Equal(t, []billing.Identity{"GADMIN"}, Actors(parent))
}
