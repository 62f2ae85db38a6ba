package auth

import "sync"

// ValidatorCache memoizes one validator per tenant for the life of the
// process. The tenant-to-issuer mapping is treated as effectively static, so
// there is no eviction. The cache is an explicit dependency of the
// Authenticator rather than package state so tests can own its lifecycle.
type ValidatorCache struct {
	mu         sync.Mutex
	validators map[string]*TenantValidator
}

// NewValidatorCache returns an empty cache.
func NewValidatorCache() *ValidatorCache {
	return &ValidatorCache{
		validators: map[string]*TenantValidator{},
	}
}

// GetOrBuild returns the cached validator for the tenant, building and
// storing one with build on first use. A failed build caches nothing.
func (c *ValidatorCache) GetOrBuild(tenantID string, build func() (*TenantValidator, error)) (*TenantValidator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.validators[tenantID]; ok {
		return v, nil
	}

	v, err := build()
	if err != nil {
		return nil, err
	}
	c.validators[tenantID] = v
	return v, nil
}

// Len returns the number of cached validators.
func (c *ValidatorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.validators)
}
