// Package auth implements the multi-tenant token validator gating every
// operation: per-tenant OIDC token validation with a cached validator per
// tenant and a single retry on signing-key rotation.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/kit/errors"
)

const bearerScheme = "Bearer"

// Authenticator authenticates requests into tenant-bound identities.
type Authenticator struct {
	tenants noteapp.TenantService
	cache   *ValidatorCache
	devMode bool
	client  *http.Client
	clock   clock.Clock
	logger  *zap.Logger
}

var _ noteapp.Authenticator = (*Authenticator)(nil)

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithDevMode skips cryptographic validation and synthesizes a fixed local
// identity. Never enabled in production.
func WithDevMode(enabled bool) AuthenticatorOption {
	return func(a *Authenticator) {
		a.devMode = enabled
	}
}

// WithHTTPClient sets the client used for issuer discovery and JWKS fetches.
func WithHTTPClient(c *http.Client) AuthenticatorOption {
	return func(a *Authenticator) {
		a.client = c
	}
}

// WithClock sets the time source used for token lifetime validation.
func WithClock(c clock.Clock) AuthenticatorOption {
	return func(a *Authenticator) {
		a.clock = c
	}
}

// WithLogger sets the logger on the authenticator.
func WithLogger(l *zap.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = l
	}
}

// NewAuthenticator returns an Authenticator resolving tenants through the
// directory and memoizing validators in cache.
func NewAuthenticator(tenants noteapp.TenantService, cache *ValidatorCache, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		tenants: tenants,
		cache:   cache,
		client:  http.DefaultClient,
		clock:   clock.New(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate validates the Authorization value for the tenant and returns
// the caller's identity.
func (a *Authenticator) Authenticate(ctx context.Context, tenantID, authorization string) (*noteapp.Identity, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	if a.devMode {
		return localIdentity(tenantID), nil
	}

	if !strings.HasPrefix(authorization, bearerScheme) {
		return nil, ErrNoBearerToken
	}
	token := strings.TrimSpace(authorization[len(bearerScheme):])

	validator, err := a.cache.GetOrBuild(tenantID, func() (*TenantValidator, error) {
		return a.buildValidator(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}

	claims, err := validator.Validate(ctx, token)
	if err != nil {
		a.logger.Debug("Token validation failed",
			zap.String("tenant", tenantID),
			zap.Error(err))
		return nil, ErrTokenNotValid(err)
	}

	return identityFromClaims(tenantID, claims), nil
}

func (a *Authenticator) buildValidator(ctx context.Context, tenantID string) (*TenantValidator, error) {
	t, err := a.tenants.FindTenant(ctx, tenantID)
	if err != nil {
		if errors.ErrorCode(err) == errors.ENotFound {
			return nil, ErrUnknownTenant
		}
		return nil, err
	}
	if strings.TrimSpace(t.Domain) == "" {
		return nil, ErrUnknownTenant
	}
	return NewTenantValidator(t.Domain, t.Audience, a.client, a.clock.Now), nil
}

// identityFromClaims reads exactly the nickname, name and email claims,
// matching claim names case-insensitively and defaulting to empty strings.
func identityFromClaims(tenantID string, claims jwt.MapClaims) *noteapp.Identity {
	return &noteapp.Identity{
		TenantID: tenantID,
		Nickname: findClaim(claims, "nickname"),
		FullName: findClaim(claims, "name"),
		Email:    findClaim(claims, "email"),
	}
}

func findClaim(claims jwt.MapClaims, name string) string {
	for k, v := range claims {
		if strings.EqualFold(k, name) {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func localIdentity(tenantID string) *noteapp.Identity {
	return &noteapp.Identity{
		TenantID: tenantID,
		Nickname: "local",
		FullName: "local",
		Email:    "local@local.com",
	}
}
