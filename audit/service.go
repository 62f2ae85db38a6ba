// Package audit appends one record per mutating action to a per-tenant,
// reverse-chronological log. Appends are best-effort: a failed append is
// logged and dropped, never surfaced to the primary operation.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/kv"
)

// Collection is the record store collection holding audit logs.
const Collection = "audit_logs"

// Service is a kv-backed AuditService.
type Service struct {
	store  kv.Store
	logger *zap.Logger

	// Now is the time source for record keys; replaceable in tests.
	Now func() time.Time
}

var _ noteapp.AuditService = (*Service)(nil)

// NewService returns an audit recorder over the given store.
func NewService(store kv.Store) *Service {
	return &Service{
		store:  store,
		logger: zap.NewNop(),
		Now:    time.Now,
	}
}

// WithLogger sets the logger on the service.
func (s *Service) WithLogger(l *zap.Logger) {
	s.logger = l
}

// Record appends an audit record. Failures are swallowed after logging so
// the primary operation is never blocked or failed by its audit trail.
func (s *Service) Record(ctx context.Context, r noteapp.AuditRecord) {
	if r.Time.IsZero() {
		r.Time = s.Now()
	}

	v, err := json.Marshal(r)
	if err != nil {
		s.logger.Warn("Audit record not encodable", zap.String("action", r.Action), zap.Error(err))
		return
	}

	rec := kv.Record{
		Partition: r.TenantID,
		Row:       reverseChronoKey(r.Time),
		Value:     v,
	}
	if err := s.store.Replace(ctx, Collection, rec, true); err != nil {
		s.logger.Warn("Audit append failed",
			zap.String("tenant", r.TenantID),
			zap.String("action", r.Action),
			zap.Error(err))
	}
}

// FindRecords returns a tenant's audit trail. Keys are reverse-chronological
// so a forward scan yields newest first.
func (s *Service) FindRecords(ctx context.Context, tenantID string) ([]*noteapp.AuditRecord, error) {
	recs, err := s.store.Scan(ctx, Collection, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]*noteapp.AuditRecord, 0, len(recs))
	for _, rec := range recs {
		r := &noteapp.AuditRecord{}
		if err := json.Unmarshal(rec.Value, r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// reverseChronoKey builds a fixed-width row key that sorts newest first.
func reverseChronoKey(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}
