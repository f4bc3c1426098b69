// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import "fmt"

// QueuePhase tracks where a SpikeQueue is within the required per-step
// call order Advance -> Push -> Peek.  The order is a hard contract:
// violating it shifts delivery timing by exactly one step, so the queue
// checks every transition instead of relying on documentation.
type QueuePhase int32

const (
	// QueueIdle is the state between timesteps (and after construction).
	QueueIdle QueuePhase = iota

	// QueueAdvanced means Advance has run this step; Push is legal.
	QueueAdvanced

	// QueuePushed means Push has run this step; Peek is legal.
	QueuePushed

	// QueuePeeked means Peek has run this step; the next Advance
	// starts the next step.
	QueuePeeked

	QueuePhaseN
)

func (qp QueuePhase) String() string {
	switch qp {
	case QueueIdle:
		return "Idle"
	case QueueAdvanced:
		return "Advanced"
	case QueuePushed:
		return "Pushed"
	case QueuePeeked:
		return "Peeked"
	}
	return "QueuePhaseInvalid"
}

// SpikeQueue schedules in-flight spike delivery events over heterogeneous
// per-synapse delays, as a ring of time slots.  Slot s holds the synapse
// indices due to fire when the current-slot pointer reaches s.  Each
// Advance moves the pointer one slot forward (wrapping), so an entry
// pushed with delay d is in the current slot after exactly d further
// Advance calls -- and a delay-0 entry lands in the current slot, making
// Push-then-Peek within the same step deliver it.
//
// Cost of Push is O(total fan-out of the given spikes): it walks only the
// outgoing synapses of the neurons that actually spiked, via the
// sending-side compressed connectivity.
type SpikeQueue struct {

	// number of ring slots; all delays must be < NSlots.
	NSlots int

	// current time slot, advanced modulo NSlots.
	Cur int

	// per-slot pending synapse indices.  slot slices are reused across
	// steps (truncated, not freed).
	Slots [][]int32

	// per-synapse delay in timesteps, indexed by synapse index.
	Delays []int32

	// number of outgoing synapses per sending neuron (fan-out counts).
	SConN []int32

	// starting index into the synapse list per sending neuron.
	SConIndexSt []int32

	// call-order state machine for this step.
	Phase QueuePhase
}

// NewSpikeQueue returns a queue over the given per-synapse delays and
// sending-side connectivity (fan-out counts and starts per sending
// neuron, teacher-ordered so neuron si owns synapses
// [SConIndexSt[si], SConIndexSt[si]+SConN[si])).
//
// nslots fixes the ring capacity; pass nslots <= 0 to size it from the
// maximum delay.  A delay that is negative or >= the ring capacity is a
// configuration error reported here, never at Push time.
func NewSpikeQueue(nslots int, delays, sconN, sconIndexSt []int32) (*SpikeQueue, error) {
	if len(sconN) != len(sconIndexSt) {
		return nil, fmt.Errorf("spike.SpikeQueue: SConN len %d != SConIndexSt len %d", len(sconN), len(sconIndexSt))
	}
	maxd := int32(0)
	for _, d := range delays {
		if d < 0 {
			return nil, fmt.Errorf("spike.SpikeQueue: negative delay: %d", d)
		}
		if d > maxd {
			maxd = d
		}
	}
	if nslots <= 0 {
		nslots = int(maxd) + 1
	}
	if int(maxd) >= nslots {
		return nil, fmt.Errorf("spike.SpikeQueue: delay %d exceeds ring capacity %d", maxd, nslots)
	}
	sq := &SpikeQueue{NSlots: nslots, Delays: delays, SConN: sconN, SConIndexSt: sconIndexSt}
	sq.Slots = make([][]int32, nslots)
	return sq, nil
}

// Reset empties all slots and returns the pointer and phase to initial
// state, keeping the slot storage for reuse.
func (sq *SpikeQueue) Reset() {
	for si := range sq.Slots {
		sq.Slots[si] = sq.Slots[si][:0]
	}
	sq.Cur = 0
	sq.Phase = QueueIdle
}

// transition panics if the current phase is not one of from -- ordering
// violations are programmer bugs with silently wrong delivery timing,
// so they are asserted, not recovered.
func (sq *SpikeQueue) transition(op string, to QueuePhase, from ...QueuePhase) {
	for _, fp := range from {
		if sq.Phase == fp {
			sq.Phase = to
			return
		}
	}
	panic(fmt.Sprintf("spike.SpikeQueue: %s called in phase %v -- per-step order is Advance, Push, Peek", op, sq.Phase))
}

// Advance moves the current-slot pointer forward by one slot, wrapping
// modulo NSlots.  The slot being left behind becomes the maximal-future
// slot, so it is cleared here to receive new insertions -- advancing
// first (rather than at end of step) is what lets Peek hand out the
// current slot without copying it.  Must run exactly once per step,
// before any Push.
func (sq *SpikeQueue) Advance() {
	sq.transition("Advance", QueueAdvanced, QueueIdle, QueuePeeked)
	sq.Slots[sq.Cur] = sq.Slots[sq.Cur][:0]
	sq.Cur = (sq.Cur + 1) % sq.NSlots
}

// Push inserts the outgoing synapses of every neuron in the spikespace
// into the slot matching each synapse's delay:
// (Cur + delay) mod NSlots.  Delay-0 synapses land in the current slot
// and are returned by Peek in this same step.
func (sq *SpikeQueue) Push(ss *SpikeSpace) {
	sq.transition("Push", QueuePushed, QueueAdvanced)
	spks := ss.Spikes()
	for _, ni := range spks {
		nc := sq.SConN[ni]
		st := sq.SConIndexSt[ni]
		for ci := int32(0); ci < nc; ci++ {
			syi := st + ci
			slot := (sq.Cur + int(sq.Delays[syi])) % sq.NSlots
			sq.Slots[slot] = append(sq.Slots[slot], syi)
		}
	}
}

// Peek returns the synapse indices due this step (the current slot),
// without consuming anything: the slot is only cleared when the pointer
// advances past it again, a full ring rotation later.  The returned
// slice is valid until the next Push.
func (sq *SpikeQueue) Peek() []int32 {
	sq.transition("Peek", QueuePeeked, QueuePushed)
	return sq.Slots[sq.Cur]
}
