package noteapp

import "context"

// Identity is the verified caller of an operation, bound to the tenant the
// token was validated against.
type Identity struct {
	TenantID string `json:"tenantId"`
	Nickname string `json:"nickname"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Authenticator validates a bearer token for a tenant.
type Authenticator interface {
	// Authenticate verifies the Authorization header value for the given
	// tenant and returns the caller's identity. All failures carry code
	// EUnauthorized with a human-readable reason and no internal detail.
	Authenticate(ctx context.Context, tenantID, authorization string) (*Identity, error)
}
