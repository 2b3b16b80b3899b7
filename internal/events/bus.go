// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"time"
)

// Record is a published intent with its envelope.
type Record struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Intent    Intent    `json:"intent"`
}

// Handler processes a published record.
type Handler func(ctx context.Context, rec Record) error

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID string

// Filter selects records from history.
type Filter struct {
	Kinds []string  // Kind patterns (supports wildcards)
	Since time.Time // Records after this time
	Until time.Time // Records before this time
	Limit int       // Maximum records to return (newest kept)
}

// Bus delivers intents to subscribers and remembers recent ones.
type Bus interface {
	// Publish wraps in in a record and delivers it to matching subscribers.
	Publish(ctx context.Context, in Intent) (Record, error)

	// Subscribe registers a synchronous handler for kinds matching pattern.
	Subscribe(pattern string, handler Handler) (SubscriptionID, error)

	// SubscribeAsync registers a handler fed through a buffered channel.
	SubscribeAsync(pattern string, handler Handler, bufferSize int) (SubscriptionID, error)

	// Unsubscribe removes a subscription.
	Unsubscribe(id SubscriptionID) error

	// History returns recent records matching filter, oldest first.
	History(filter Filter) ([]Record, error)

	// Close stops delivery and releases resources.
	Close() error
}
