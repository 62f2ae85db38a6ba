package audit_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/audit"
	"github.com/noteapp/noteapp/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func NewTestService(t *testing.T) (*audit.Service, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "noteapp-audit-")
	require.NoError(t, err)
	f.Close()

	store := bolt.NewKVStore(f.Name())
	require.NoError(t, store.Open(context.Background()))

	svc := audit.NewService(store)
	svc.WithLogger(zaptest.NewLogger(t))

	return svc, func() {
		store.Close()
		os.Remove(f.Name())
	}
}

func TestService_RecordsNewestFirst(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"create-note", "edit-note", "publish-note"} {
		svc.Record(ctx, noteapp.AuditRecord{
			TenantID: "tenant1",
			Email:    "a@example.com",
			Action:   action,
			Message:  action,
			Time:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	recs, err := svc.FindRecords(ctx, "tenant1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "publish-note", recs[0].Action)
	assert.Equal(t, "edit-note", recs[1].Action)
	assert.Equal(t, "create-note", recs[2].Action)
}

func TestService_RecordFillsTime(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	svc.Record(ctx, noteapp.AuditRecord{
		TenantID: "tenant1",
		Action:   "create-note",
	})

	recs, err := svc.FindRecords(ctx, "tenant1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Time.Equal(now))
}

func TestService_TenantIsolation(t *testing.T) {
	svc, done := NewTestService(t)
	defer done()
	ctx := context.Background()

	svc.Record(ctx, noteapp.AuditRecord{TenantID: "tenant1", Action: "create-note"})
	svc.Record(ctx, noteapp.AuditRecord{TenantID: "tenant2", Action: "delete-note"})

	recs, err := svc.FindRecords(ctx, "tenant1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "create-note", recs[0].Action)
}
