package tenant_test

import (
	"context"
	"os"
	"testing"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/bolt"
	"github.com/noteapp/noteapp/kit/errors"
	"github.com/noteapp/noteapp/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func NewTestService(t *testing.T) (*tenant.Service, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "noteapp-tenant-")
	require.NoError(t, err)
	f.Close()

	store := bolt.NewKVStore(f.Name())
	require.NoError(t, store.Open(context.Background()))

	svc := tenant.NewService(store)
	svc.WithLogger(zaptest.NewLogger(t))

	return svc, func() {
		store.Close()
		os.Remove(f.Name())
	}
}

func TestService_PutFindTenant(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()
	ctx := context.Background()

	want := &noteapp.Tenant{
		ID:       "tenant1",
		Domain:   "tenant1.auth.example.com",
		Audience: "https://api.example.com",
	}
	require.NoError(t, svc.PutTenant(ctx, want))

	got, err := svc.FindTenant(ctx, "tenant1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_PutTenantOverwrites(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, svc.PutTenant(ctx, &noteapp.Tenant{ID: "tenant1", Domain: "old.example.com"}))
	require.NoError(t, svc.PutTenant(ctx, &noteapp.Tenant{ID: "tenant1", Domain: "new.example.com"}))

	got, err := svc.FindTenant(ctx, "tenant1")
	require.NoError(t, err)
	assert.Equal(t, "new.example.com", got.Domain)
}

func TestService_FindTenantNotFound(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()

	_, err := svc.FindTenant(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

func TestService_PutTenantValidation(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()
	ctx := context.Background()

	err := svc.PutTenant(ctx, &noteapp.Tenant{Domain: "x.example.com"})
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	err = svc.PutTenant(ctx, &noteapp.Tenant{ID: "tenant1"})
	assert.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}
