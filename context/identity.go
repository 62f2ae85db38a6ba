package context

import (
	"context"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/kit/errors"
)

type contextKey string

const identityCtxKey = contextKey("noteapp/identity/v1")

// SetIdentity sets the authenticated identity on the context.
func SetIdentity(ctx context.Context, id *noteapp.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// GetIdentity retrieves the authenticated identity from the context; errors
// if the request was never authenticated.
func GetIdentity(ctx context.Context) (*noteapp.Identity, error) {
	id, ok := ctx.Value(identityCtxKey).(*noteapp.Identity)
	if !ok {
		return nil, &errors.Error{
			Msg:  "identity not found on context",
			Code: errors.EInternal,
		}
	}
	return id, nil
}
