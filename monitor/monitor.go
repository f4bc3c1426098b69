// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package monitor records spikes and state variables during a run.
Monitors read the shared buffers (spikespace, variable store handles)
right after a network step commits, copying what they need -- they never
retain the buffers themselves, which are overwritten next step.

Recordings can be kept in memory or persisted through a Store; the
SQLite-backed store requires building with -tags sqlite.
*/
package monitor

import (
	"github.com/emer/spike/spike"
)

// SpikeRec is one recorded spike: which neuron fired at which step.
type SpikeRec struct {

	// step counter when the spike occurred.
	Step int

	// simulation time when the spike occurred.
	Time float32

	// index of the neuron that spiked.
	Neuron int32
}

// Spikes records every spike in a group's spikespace, step by step.
type Spikes struct {

	// name of this monitor, used as the key when persisting.
	Name string

	// recorded spikes in step order.
	Recs []SpikeRec
}

// NewSpikes returns a new spike monitor with the given name.
func NewSpikes(name string) *Spikes {
	return &Spikes{Name: name}
}

// Record copies the current spikespace contents, with the context's
// step and time.  Call after the network step for this timestep.
func (sm *Spikes) Record(ctx *spike.Context, ss *spike.SpikeSpace) {
	for _, ni := range ss.Spikes() {
		sm.Recs = append(sm.Recs, SpikeRec{Step: ctx.Step, Time: ctx.Time, Neuron: ni})
	}
}

// Count returns the total number of recorded spikes.
func (sm *Spikes) Count() int {
	return len(sm.Recs)
}

// Reset drops all recordings, keeping capacity.
func (sm *Spikes) Reset() {
	sm.Recs = sm.Recs[:0]
}

// StateRec is one recorded snapshot of a state variable.
type StateRec struct {

	// step counter of the snapshot.
	Step int

	// simulation time of the snapshot.
	Time float32

	// values at the monitored indexes, in Indexes order.
	Values []float32
}

// State records a named group variable at selected neuron indexes,
// one snapshot per step.
type State struct {

	// name of this monitor, used as the key when persisting.
	Name string

	// name of the variable being recorded.
	Var string

	// neuron indexes to record; nil records all.
	Indexes []int32

	// recorded snapshots in step order.
	Recs []StateRec
}

// NewState returns a new state monitor for the given variable and
// indexes (nil = all).
func NewState(name, varNm string, idxs []int32) *State {
	return &State{Name: name, Var: varNm, Indexes: idxs}
}

// Record copies the monitored values out of the given resolved variable
// slice, with the context's step and time.
func (st *State) Record(ctx *spike.Context, vals []float32) {
	var vs []float32
	if st.Indexes == nil {
		vs = make([]float32, len(vals))
		copy(vs, vals)
	} else {
		vs = make([]float32, len(st.Indexes))
		for i, ni := range st.Indexes {
			vs[i] = vals[ni]
		}
	}
	st.Recs = append(st.Recs, StateRec{Step: ctx.Step, Time: ctx.Time, Values: vs})
}

// RecordGroup records the monitored variable from the given group.
func (st *State) RecordGroup(ctx *spike.Context, gp *spike.Group) error {
	vals, err := gp.Vars.Values(st.Var)
	if err != nil {
		return err
	}
	st.Record(ctx, vals)
	return nil
}

// Reset drops all recordings, keeping capacity.
func (st *State) Reset() {
	st.Recs = st.Recs[:0]
}
