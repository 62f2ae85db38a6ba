package http

import (
	"net/http"

	"github.com/noteapp/noteapp"
	icontext "github.com/noteapp/noteapp/context"
)

// TenantHeader names the requesting tenant. Every API request must carry it.
const TenantHeader = "Notes-Tenant-Id"

// Authenticate resolves the tenant header and bearer token into an identity
// placed on the request context. Requests failing validation are rejected
// before reaching the wrapped handler.
func Authenticate(api *API, auth noteapp.Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity, err := auth.Authenticate(ctx, r.Header.Get(TenantHeader), r.Header.Get("Authorization"))
			if err != nil {
				api.Err(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(icontext.SetIdentity(ctx, identity)))
		}
		return http.HandlerFunc(fn)
	}
}
