package http

import (
	"context"
	"time"
)

// Signal kinds dispatched after content-affecting operations.
const (
	SignalPublish     = "publish"
	SignalUnpublish   = "unpublish"
	SignalMediaUpload = "media-upload"
)

// Signal notifies downstream consumers that published content changed.
type Signal struct {
	Kind     string    `json:"kind"`
	TenantID string    `json:"tenantId"`
	ID       string    `json:"id"`
	Date     time.Time `json:"date,omitempty"`
}

// SignalDispatcher delivers signals to interested consumers. Dispatch is
// fire-and-forget: implementations own their delivery failures and must not
// propagate them into the request path.
type SignalDispatcher interface {
	Dispatch(ctx context.Context, s Signal)
}

// NopSignalDispatcher drops every signal.
type NopSignalDispatcher struct{}

func (NopSignalDispatcher) Dispatch(context.Context, Signal) {}
