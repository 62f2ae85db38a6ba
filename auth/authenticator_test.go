package auth_test

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/auth"
	"github.com/noteapp/noteapp/kit/errors"
	"github.com/noteapp/noteapp/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenantDirectory is an in-memory noteapp.TenantService.
type tenantDirectory map[string]*noteapp.Tenant

func (d tenantDirectory) FindTenant(ctx context.Context, id string) (*noteapp.Tenant, error) {
	if t, ok := d[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func (d tenantDirectory) PutTenant(ctx context.Context, t *noteapp.Tenant) error {
	d[t.ID] = t
	return nil
}

func newTestAuthenticator(t *testing.T, issuer *fakeIssuer, opts ...auth.AuthenticatorOption) *auth.Authenticator {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(testNow)

	dir := tenantDirectory{
		"tenant1": {ID: "tenant1", Domain: testDomain},
	}
	base := []auth.AuthenticatorOption{
		auth.WithHTTPClient(issuer.client()),
		auth.WithClock(mock),
	}
	return auth.NewAuthenticator(dir, auth.NewValidatorCache(), append(base, opts...)...)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	issuer := newFakeIssuer(t)
	key := issuer.rotate(t, "k1")
	a := newTestAuthenticator(t, issuer)

	id, err := a.Authenticate(context.Background(), "tenant1", "Bearer "+signToken(t, key, "k1", testClaims()))
	require.NoError(t, err)
	assert.Equal(t, &noteapp.Identity{
		TenantID: "tenant1",
		Nickname: "ana",
		FullName: "Ana Lima",
		Email:    "ana@example.com",
	}, id)
}

func TestAuthenticator_ClaimNamesAreCaseInsensitive(t *testing.T) {
	issuer := newFakeIssuer(t)
	key := issuer.rotate(t, "k1")
	a := newTestAuthenticator(t, issuer)

	claims := testClaims()
	delete(claims, "nickname")
	delete(claims, "email")
	claims["NickName"] = "ana"
	claims["Email"] = "ana@example.com"

	id, err := a.Authenticate(context.Background(), "tenant1", "Bearer "+signToken(t, key, "k1", claims))
	require.NoError(t, err)
	assert.Equal(t, "ana", id.Nickname)
	assert.Equal(t, "ana@example.com", id.Email)
}

func TestAuthenticator_MissingClaimsDefaultEmpty(t *testing.T) {
	issuer := newFakeIssuer(t)
	key := issuer.rotate(t, "k1")
	a := newTestAuthenticator(t, issuer)

	claims := testClaims()
	delete(claims, "nickname")
	delete(claims, "name")
	delete(claims, "email")

	id, err := a.Authenticate(context.Background(), "tenant1", "Bearer "+signToken(t, key, "k1", claims))
	require.NoError(t, err)
	assert.Empty(t, id.Nickname)
	assert.Empty(t, id.FullName)
	assert.Empty(t, id.Email)
}

func TestAuthenticator_TenantRequired(t *testing.T) {
	issuer := newFakeIssuer(t)
	a := newTestAuthenticator(t, issuer)

	_, err := a.Authenticate(context.Background(), "", "Bearer whatever")
	assert.Equal(t, auth.ErrTenantRequired, err)
}

func TestAuthenticator_BearerTokenRequired(t *testing.T) {
	issuer := newFakeIssuer(t)
	a := newTestAuthenticator(t, issuer)

	_, err := a.Authenticate(context.Background(), "tenant1", "")
	assert.Equal(t, auth.ErrNoBearerToken, err)

	_, err = a.Authenticate(context.Background(), "tenant1", "Basic dXNlcjpwYXNz")
	assert.Equal(t, auth.ErrNoBearerToken, err)
}

func TestAuthenticator_UnknownTenant(t *testing.T) {
	issuer := newFakeIssuer(t)
	key := issuer.rotate(t, "k1")
	a := newTestAuthenticator(t, issuer)

	_, err := a.Authenticate(context.Background(), "ghost", "Bearer "+signToken(t, key, "k1", testClaims()))
	assert.Equal(t, auth.ErrUnknownTenant, err)
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	issuer := newFakeIssuer(t)
	issuer.rotate(t, "k1")
	a := newTestAuthenticator(t, issuer)

	_, err := a.Authenticate(context.Background(), "tenant1", "Bearer not.a.token")
	require.Error(t, err)
	assert.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))
}

func TestAuthenticator_DevMode(t *testing.T) {
	issuer := newFakeIssuer(t)
	a := newTestAuthenticator(t, issuer, auth.WithDevMode(true))

	// no token needed in dev mode
	id, err := a.Authenticate(context.Background(), "tenant1", "")
	require.NoError(t, err)
	assert.Equal(t, &noteapp.Identity{
		TenantID: "tenant1",
		Nickname: "local",
		FullName: "local",
		Email:    "local@local.com",
	}, id)

	// the tenant header is still mandatory
	_, err = a.Authenticate(context.Background(), "", "")
	assert.Equal(t, auth.ErrTenantRequired, err)
}

func TestAuthenticator_ValidatorIsCached(t *testing.T) {
	issuer := newFakeIssuer(t)
	key := issuer.rotate(t, "k1")

	cache := auth.NewValidatorCache()
	mock := clock.NewMock()
	mock.Set(testNow)
	dir := tenantDirectory{"tenant1": {ID: "tenant1", Domain: testDomain}}
	a := auth.NewAuthenticator(dir, cache,
		auth.WithHTTPClient(issuer.client()),
		auth.WithClock(mock),
	)

	for i := 0; i < 3; i++ {
		_, err := a.Authenticate(context.Background(), "tenant1", "Bearer "+signToken(t, key, "k1", testClaims()))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, cache.Len())
	discovery, jwks := issuer.counts()
	assert.Equal(t, 1, discovery)
	assert.Equal(t, 1, jwks)
}
