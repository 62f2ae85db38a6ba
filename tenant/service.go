// Package tenant implements the tenant directory: the mapping from a tenant
// identifier to its identity-provider issuer domain and expected audience.
package tenant

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noteapp/noteapp"
	"github.com/noteapp/noteapp/kv"
)

const (
	// Collection is the record store collection holding tenant mappings.
	Collection = "tenants"

	// directoryPartition is the fixed partition for the directory namespace.
	directoryPartition = "tenant"
)

// Service resolves tenants from the record store.
type Service struct {
	store  kv.Store
	logger *zap.Logger
}

var _ noteapp.TenantService = (*Service)(nil)

// NewService returns a tenant directory over the given store.
func NewService(store kv.Store) *Service {
	return &Service{
		store:  store,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger on the service.
func (s *Service) WithLogger(l *zap.Logger) {
	s.logger = l
}

// FindTenant resolves a tenant by id.
func (s *Service) FindTenant(ctx context.Context, id string) (*noteapp.Tenant, error) {
	rec, err := s.store.Get(ctx, Collection, directoryPartition, id)
	if kv.IsNotFound(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, ErrInternalServiceError("tenant/FindTenant", err)
	}

	t := &noteapp.Tenant{}
	if err := json.Unmarshal(rec.Value, t); err != nil {
		return nil, ErrCorruptTenant(err)
	}
	t.ID = id
	return t, nil
}

// PutTenant creates or replaces a tenant mapping.
func (s *Service) PutTenant(ctx context.Context, t *noteapp.Tenant) error {
	if t.ID == "" {
		return ErrIDRequired
	}
	if t.Domain == "" {
		return ErrDomainRequired
	}

	v, err := json.Marshal(t)
	if err != nil {
		return ErrInternalServiceError("tenant/PutTenant", err)
	}

	rec := kv.Record{Partition: directoryPartition, Row: t.ID, Value: v}
	if err := s.store.Replace(ctx, Collection, rec, true); err != nil {
		return ErrInternalServiceError("tenant/PutTenant", err)
	}

	s.logger.Info("Tenant mapping stored", zap.String("tenant", t.ID), zap.String("domain", t.Domain))
	return nil
}
