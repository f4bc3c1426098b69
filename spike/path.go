// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"cogentcore.org/core/base/randx"
	"cogentcore.org/core/tensor"
)

// note: path.go contains algorithm methods; pathbase.go has infrastructure.

//////////////////////////////////////////////////////////////////////////////////////
//  Init params

// WtInitParams are weight initialization parameters -- the
// random distribution parameters for per-synapse weights.
type WtInitParams struct {
	randx.RandParams
}

func (wp *WtInitParams) Defaults() {
	wp.Mean = 0.5
	wp.Var = 0
	wp.Dist = randx.Uniform
}

func (wp *WtInitParams) Update() {
}

// DelayInitParams set the per-synapse delivery delay, in timesteps,
// applied uniformly at build time.  Heterogeneous delays are set with
// SetDelaysFunc or SetSynValue("Delay", ...), followed by BuildQueue.
type DelayInitParams struct {

	// delay in whole timesteps applied to every synapse at build.
	Steps int32 `def:"1" min:"0"`
}

func (dp *DelayInitParams) Defaults() {
	dp.Steps = 1
}

func (dp *DelayInitParams) Update() {
	if dp.Steps < 0 {
		dp.Steps = 0
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init methods

// InitWtsSyn initializes weight and delay values based on WtInit and
// DelayInit parameters for an individual synapse.
func (pt *Path) InitWtsSyn(syn *Synapse) {
	syn.Wt = float32(pt.WtInit.Gen())
	syn.Delay = float32(pt.DelayInit.Steps)
}

// InitWts initializes weights and delays for all synapses.
// Called during Build; call again (then BuildQueue) to re-randomize.
func (pt *Path) InitWts() {
	for si := range pt.Syns {
		sy := &pt.Syns[si]
		pt.InitWtsSyn(sy)
	}
}

// SetWtsFunc initializes synaptic Wt value using given function
// based on receiving and sending unit indexes.
func (pt *Path) SetWtsFunc(wtFun func(si, ri int, send, recv *tensor.Shape) float32) {
	rsh := &pt.Recv.Shape
	rn := rsh.Len()
	ssh := &pt.Send.Shape

	for ri := 0; ri < rn; ri++ {
		nc := int(pt.RConN[ri])
		st := int(pt.RConIndexSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pt.RConIndex[st+ci])
			wt := wtFun(si, ri, ssh, rsh)
			rsi := pt.RSynIndex[st+ci]
			pt.Syns[rsi].Wt = wt
		}
	}
}

// SetDelaysFunc initializes synaptic Delay values (in timesteps) using
// given function based on receiving and sending unit indexes.
// Call BuildQueue after to rebuild the delay ring.
func (pt *Path) SetDelaysFunc(delFun func(si, ri int, send, recv *tensor.Shape) int32) {
	rsh := &pt.Recv.Shape
	rn := rsh.Len()
	ssh := &pt.Send.Shape

	for ri := 0; ri < rn; ri++ {
		nc := int(pt.RConN[ri])
		st := int(pt.RConIndexSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pt.RConIndex[st+ci])
			del := delFun(si, ri, ssh, rsh)
			rsi := pt.RSynIndex[st+ci]
			pt.Syns[rsi].Delay = float32(del)
		}
	}
}

// InitGInc zeroes the per-recv accumulator and resets the queue and
// delivery stats -- called at the start of a run.
func (pt *Path) InitGInc() {
	for ri := range pt.GInc {
		pt.GInc[ri] = 0
	}
	if pt.Queue != nil {
		pt.Queue.Reset()
	}
	pt.DelivStats.Init()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Step methods

// QueueStep runs this pathway's full per-step delivery sequence in the
// required order: Advance the delay ring, Push the sending group's
// current spikes, Peek the delivered synapses, and run the summation
// kernel over them into GInc.  GInc is rewritten in full each step.
func (pt *Path) QueueStep(bk Backend) error {
	if pt.Off {
		return nil
	}
	pt.Queue.Advance()
	pt.Queue.Push(pt.Send.SS)
	deliv := pt.Queue.Peek()
	return pt.SummFromDelivered(bk, deliv)
}

// SummFromDelivered maps the delivered synapse indices to their
// (target, weight) pairs and scatter-reduces them into GInc.
func (pt *Path) SummFromDelivered(bk Backend, deliv []int32) error {
	nd := len(deliv)
	if cap(pt.targets) < nd {
		pt.targets = make([]int32, nd)
		pt.weights = make([]float32, nd)
	}
	pt.targets = pt.targets[:nd]
	pt.weights = pt.weights[:nd]
	for j, syi := range deliv {
		pt.targets[j] = pt.SConIndex[syi]
		pt.weights[j] = pt.Syns[syi].Wt
	}
	err := pt.SummKern.Run(bk, pt.targets, pt.weights, pt.GInc)
	if err != nil {
		return err
	}
	pt.DelivStats.UpdateValue(float32(nd), int32(pt.Queue.Cur))
	return nil
}

// RecvGInc increments the receiver's GeRaw from this pathway's
// accumulator.  The receiving group zeroes GeRaw at the start of each
// step, so across pathways this is a sum, within a step a replace.
func (pt *Path) RecvGInc() {
	if pt.Off {
		return
	}
	ge := pt.Recv.GeRaw
	for ri := range ge {
		ge[ri] += pt.GInc[ri]
	}
}
