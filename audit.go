package noteapp

import (
	"context"
	"time"
)

// AuditRecord is an append-only trace of a mutating action. Records are
// write-once; the core never mutates or deletes them.
type AuditRecord struct {
	TenantID string    `json:"tenantId"`
	Email    string    `json:"email"`
	Action   string    `json:"action"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// AuditService records mutating actions. Record is best-effort: it must
// never block or fail the primary operation, so it returns nothing and
// implementations swallow and log their own failures.
type AuditService interface {
	Record(ctx context.Context, r AuditRecord)

	// FindRecords returns a tenant's audit trail, newest first.
	FindRecords(ctx context.Context, tenantID string) ([]*AuditRecord, error)
}
