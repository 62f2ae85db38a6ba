package noteapp

import "context"

// Tenant maps a tenant identifier to its identity-provider issuer domain and
// the audience expected in tokens issued for it. Tenants are configured out
// of band and treated as immutable for the life of the process.
type Tenant struct {
	ID       string `json:"id"`
	Domain   string `json:"domain"`
	Audience string `json:"audience,omitempty"`
}

// TenantService is the tenant directory.
type TenantService interface {
	// FindTenant resolves a tenant by ID. Unknown tenants return an error
	// with code ENotFound; this is an expected outcome, not a fault.
	FindTenant(ctx context.Context, id string) (*Tenant, error)

	// PutTenant creates or replaces a tenant mapping.
	PutTenant(ctx context.Context, t *Tenant) error
}
