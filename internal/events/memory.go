// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wingedpig/crashintake/internal/metrics"
)

// ErrBusClosed is returned when operating on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// ErrSubscriptionNotFound is returned when unsubscribing with an invalid ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// MemoryBusConfig configures the memory bus.
type MemoryBusConfig struct {
	HistoryMaxEvents int
	HistoryMaxAge    time.Duration
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

// MemoryBus is an in-process Bus.
type MemoryBus struct {
	mu            sync.RWMutex
	subscriptions map[SubscriptionID]*subscription
	history       *History
	closed        atomic.Bool
	wg            sync.WaitGroup
	stopPruner    chan struct{}
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type subscription struct {
	id      SubscriptionID
	pattern Pattern
	handler Handler
	async   bool
	ch      chan Record
	stopCh  chan struct{}
}

// NewMemoryBus creates a bus and starts its history pruner.
func NewMemoryBus(cfg MemoryBusConfig) *MemoryBus {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bus := &MemoryBus{
		subscriptions: make(map[SubscriptionID]*subscription),
		history: NewHistory(HistoryConfig{
			MaxEvents: cfg.HistoryMaxEvents,
			MaxAge:    cfg.HistoryMaxAge,
		}),
		stopPruner: make(chan struct{}),
		logger:     logger,
		metrics:    cfg.Metrics,
	}

	pruneInterval := cfg.HistoryMaxAge / 10
	if pruneInterval < time.Minute {
		pruneInterval = time.Minute
	}
	if pruneInterval > time.Hour {
		pruneInterval = time.Hour
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-bus.stopPruner:
				return
			case <-ticker.C:
				bus.history.Prune()
			}
		}
	}()

	return bus
}

// Publish implements Bus.
func (bus *MemoryBus) Publish(ctx context.Context, in Intent) (Record, error) {
	if bus.closed.Load() {
		return Record{}, ErrBusClosed
	}
	if in == nil {
		return Record{}, ErrUnknownIntent
	}

	rec := Record{
		ID:        uuid.New().String(),
		Kind:      in.Kind(),
		Timestamp: time.Now(),
		Intent:    in,
	}
	bus.history.Add(rec)
	bus.metrics.IntentPublished(rec.Kind)

	bus.mu.RLock()
	subs := make([]*subscription, 0, len(bus.subscriptions))
	for _, sub := range bus.subscriptions {
		subs = append(subs, sub)
	}
	bus.mu.RUnlock()

	for _, sub := range subs {
		if !sub.pattern.Match(rec.Kind) {
			continue
		}
		if sub.async {
			select {
			case sub.ch <- rec:
			default:
				bus.logger.Warn("dropped intent, async subscriber buffer full", "kind", rec.Kind)
			}
			continue
		}
		bus.deliver(ctx, sub.handler, rec)
	}

	return rec, nil
}

// deliver calls a handler with panic protection.
func (bus *MemoryBus) deliver(ctx context.Context, handler Handler, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("intent handler panic", "kind", rec.Kind, "panic", r)
		}
	}()
	if err := handler(ctx, rec); err != nil {
		bus.logger.Warn("intent handler failed", "kind", rec.Kind, "error", err)
	}
}

// Subscribe implements Bus.
func (bus *MemoryBus) Subscribe(pattern string, handler Handler) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}

	compiled, err := CompilePattern(pattern)
	if err != nil {
		return "", err
	}

	id := SubscriptionID(uuid.New().String())
	bus.mu.Lock()
	bus.subscriptions[id] = &subscription{id: id, pattern: compiled, handler: handler}
	bus.mu.Unlock()

	return id, nil
}

// SubscribeAsync implements Bus.
func (bus *MemoryBus) SubscribeAsync(pattern string, handler Handler, bufferSize int) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}

	compiled, err := CompilePattern(pattern)
	if err != nil {
		return "", err
	}

	if bufferSize <= 0 {
		bufferSize = 100
	}

	id := SubscriptionID(uuid.New().String())
	ch := make(chan Record, bufferSize)
	stopCh := make(chan struct{})

	bus.mu.Lock()
	bus.subscriptions[id] = &subscription{
		id:      id,
		pattern: compiled,
		handler: handler,
		async:   true,
		ch:      ch,
		stopCh:  stopCh,
	}
	bus.mu.Unlock()

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		for {
			select {
			case <-stopCh:
				return
			case rec := <-ch:
				bus.deliver(context.Background(), handler, rec)
			}
		}
	}()

	return id, nil
}

// Unsubscribe implements Bus.
func (bus *MemoryBus) Unsubscribe(id SubscriptionID) error {
	bus.mu.Lock()
	sub, ok := bus.subscriptions[id]
	if !ok {
		bus.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	delete(bus.subscriptions, id)
	bus.mu.Unlock()

	if sub.async && sub.stopCh != nil {
		close(sub.stopCh)
	}
	return nil
}

// History implements Bus.
func (bus *MemoryBus) History(filter Filter) ([]Record, error) {
	return bus.history.Query(filter)
}

// Close implements Bus.
func (bus *MemoryBus) Close() error {
	if bus.closed.Swap(true) {
		return nil
	}

	close(bus.stopPruner)

	bus.mu.Lock()
	for _, sub := range bus.subscriptions {
		if sub.async && sub.stopCh != nil {
			close(sub.stopCh)
		}
	}
	bus.subscriptions = make(map[SubscriptionID]*subscription)
	bus.mu.Unlock()

	bus.wg.Wait()
	bus.history.Close()
	return nil
}

var _ Bus = (*MemoryBus)(nil)
