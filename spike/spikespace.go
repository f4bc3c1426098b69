// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

// SpikeSpace is the fixed-capacity buffer holding the current timestep's
// spike index list.  Its layout is a contract that the delay queue and
// the monitors rely on: for a group of N neurons the buffer has N+1
// slots, entries [0, count) hold the spiking neuron indices in ascending
// numeric order, and the final slot holds the count.  The buffer is
// overwritten every step, never reallocated.
type SpikeSpace struct {

	// the N+1 buffer: [0, count) = ascending spike indices, [N] = count.
	Buf []int32
}

// NewSpikeSpace returns a spikespace for a group of n neurons.
func NewSpikeSpace(n int) *SpikeSpace {
	ss := &SpikeSpace{}
	ss.Buf = make([]int32, n+1)
	return ss
}

// N returns the neuron capacity of the buffer.
func (ss *SpikeSpace) N() int {
	return len(ss.Buf) - 1
}

// Count returns the number of spikes recorded this step.
func (ss *SpikeSpace) Count() int {
	return int(ss.Buf[len(ss.Buf)-1])
}

// SetCount writes the count into the reserved final slot.
func (ss *SpikeSpace) SetCount(n int) {
	ss.Buf[len(ss.Buf)-1] = int32(n)
}

// Spikes returns the current spike index list, valid until the next
// threshold kernel run overwrites the buffer.
func (ss *SpikeSpace) Spikes() []int32 {
	return ss.Buf[:ss.Count()]
}

// Reset zeroes the count, making the spike list empty.
func (ss *SpikeSpace) Reset() {
	ss.SetCount(0)
}
