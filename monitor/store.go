// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"context"
	"fmt"
	"sync"
)

// Store persists monitor recordings, keyed by run and monitor name.
// Implementations must be safe for concurrent use.
type Store interface {
	// Init prepares the store for use.  Must be called before any
	// other method.
	Init(ctx context.Context) error

	// SaveSpikes appends spike records for the given run and monitor.
	SaveSpikes(ctx context.Context, run, mon string, recs []SpikeRec) error

	// GetSpikes returns all spike records for the given run and
	// monitor, in insertion order.  The bool reports whether any
	// records exist.
	GetSpikes(ctx context.Context, run, mon string) ([]SpikeRec, bool, error)

	// SaveState appends state records for the given run and monitor.
	SaveState(ctx context.Context, run, mon string, recs []StateRec) error

	// GetState returns all state records for the given run and
	// monitor, in insertion order.  The bool reports whether any
	// records exist.
	GetState(ctx context.Context, run, mon string) ([]StateRec, bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore is an in-memory Store, the default backend.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	spikes      map[string][]SpikeRec
	states      map[string][]StateRec
}

// NewMemoryStore returns a new, uninitialized in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func storeKey(run, mon string) string {
	return run + "/" + mon
}

// Init allocates the record maps.
func (ms *MemoryStore) Init(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.initialized {
		return nil
	}
	ms.spikes = make(map[string][]SpikeRec)
	ms.states = make(map[string][]StateRec)
	ms.initialized = true
	return nil
}

func (ms *MemoryStore) checkInit() error {
	if !ms.initialized {
		return fmt.Errorf("monitor.MemoryStore: not initialized")
	}
	return nil
}

func (ms *MemoryStore) SaveSpikes(ctx context.Context, run, mon string, recs []SpikeRec) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err := ms.checkInit(); err != nil {
		return err
	}
	key := storeKey(run, mon)
	ms.spikes[key] = append(ms.spikes[key], recs...)
	return nil
}

func (ms *MemoryStore) GetSpikes(ctx context.Context, run, mon string) ([]SpikeRec, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if err := ms.checkInit(); err != nil {
		return nil, false, err
	}
	recs, ok := ms.spikes[storeKey(run, mon)]
	if !ok {
		return nil, false, nil
	}
	out := make([]SpikeRec, len(recs))
	copy(out, recs)
	return out, true, nil
}

func (ms *MemoryStore) SaveState(ctx context.Context, run, mon string, recs []StateRec) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err := ms.checkInit(); err != nil {
		return err
	}
	key := storeKey(run, mon)
	ms.states[key] = append(ms.states[key], recs...)
	return nil
}

func (ms *MemoryStore) GetState(ctx context.Context, run, mon string) ([]StateRec, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if err := ms.checkInit(); err != nil {
		return nil, false, err
	}
	recs, ok := ms.states[storeKey(run, mon)]
	if !ok {
		return nil, false, nil
	}
	out := make([]StateRec, len(recs))
	copy(out, recs)
	return out, true, nil
}

// Close is a no-op for the in-memory store.
func (ms *MemoryStore) Close() error {
	return nil
}
