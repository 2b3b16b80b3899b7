// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_Basic(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50 * time.Millisecond)
	d.Debounce("key1", func() {
		callCount.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, time.Second, d.Duration())
}

func TestDebouncer_MultipleCallsSameKey(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50 * time.Millisecond)
	for i := 0; i < 10; i++ {
		d.Debounce("key1", func() {
			callCount.Add(1)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
}

func TestDebouncer_DifferentKeys(t *testing.T) {
	var count1, count2 atomic.Int32

	d := NewDebouncer(50 * time.Millisecond)
	d.Debounce("key1", func() { count1.Add(1) })
	d.Debounce("key2", func() { count2.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), count1.Load())
	assert.Equal(t, int32(1), count2.Load())
}

func TestDebouncer_ScheduleGenerations(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	got := make(chan uint64, 4)

	g1 := d.Schedule("session", func(gen uint64) { got <- gen })
	g2 := d.Schedule("session", func(gen uint64) { got <- gen })
	assert.Equal(t, uint64(1), g1)
	assert.Equal(t, uint64(2), g2)
	assert.True(t, d.Pending("session"))

	select {
	case gen := <-got:
		assert.Equal(t, g2, gen)
		assert.Equal(t, g2, d.Current("session"))
	case <-time.After(time.Second):
		t.Fatal("debounced run did not fire")
	}
	assert.False(t, d.Pending("session"))

	select {
	case gen := <-got:
		t.Fatalf("superseded run fired with generation %d", gen)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncer_StaleRunDetected(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	started := make(chan struct{})
	release := make(chan struct{})
	stale := make(chan bool, 1)

	d.Schedule("session", func(gen uint64) {
		close(started)
		<-release
		stale <- gen != d.Current("session")
	})

	<-started
	// Work scheduled while the first run is in flight invalidates it.
	d.Schedule("session", func(uint64) {})
	close(release)

	assert.True(t, <-stale)
}

func TestDebouncer_Cancel(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50 * time.Millisecond)
	gen := d.Schedule("key1", func(uint64) { callCount.Add(1) })
	d.Cancel("key1")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), callCount.Load())
	assert.NotEqual(t, gen, d.Current("key1"))
	assert.False(t, d.Pending("key1"))
}

func TestDebouncer_CancelNonexistent(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	d.Cancel("nonexistent")
	assert.Equal(t, uint64(1), d.Current("nonexistent"))
}

func TestDebouncer_Stop(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50 * time.Millisecond)
	d.Debounce("key1", func() { callCount.Add(1) })
	d.Debounce("key2", func() { callCount.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), callCount.Load())
}

func TestDebouncer_SetDuration(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(150 * time.Millisecond)
	d.Debounce("key1", func() { callCount.Add(1) })

	d.SetDuration(20 * time.Millisecond)
	d.Debounce("key2", func() { callCount.Add(1) })

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), callCount.Load())
}

func TestDebouncer_Concurrency(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(30 * time.Millisecond)
	done := make(chan bool, 100)

	for i := 0; i < 100; i++ {
		go func() {
			d.Debounce("key", func() { callCount.Add(1) })
			done <- true
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
	assert.Equal(t, uint64(100), d.Current("key"))
}
