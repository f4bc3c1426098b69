// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"errors"
	"fmt"
	"log"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/core/tensor"
	"github.com/emer/emergent/v2/params"
	"github.com/emer/emergent/v2/paths"
)

// note: path.go contains algorithm methods; pathbase.go has infrastructure.

// Path implements one pathway of delayed spike delivery between two
// groups: the compressed synaptic connectivity, the per-synapse weights
// and delays, the delay queue that schedules delivery, and the summation
// kernel that turns delivered events into the per-receiver input.
type Path struct {

	// name of the pathway, auto-set to SendToRecv on Connect.
	Name string

	// class is for applying parameter styles, can be space separated multiple tags.
	Class string

	// inactivate this pathway -- allows for easy experimentation.
	Off bool

	// pattern of connectivity.
	Pattern paths.Pattern

	// sending group for this pathway.
	Send *Group

	// receiving group for this pathway.
	Recv *Group

	// initial random weight distribution.
	WtInit WtInitParams `display:"inline"`

	// initial per-synapse delay, in timesteps.
	DelayInit DelayInitParams `display:"inline"`

	// ring capacity of the delay queue in slots; 0 = size from the
	// maximum synapse delay.  A delay >= this is a Build error.
	MaxDelay int

	// summation kernel parameters.
	Summ SummParams `display:"inline"`

	// synaptic state values, ordered by the sending group's
	// units which own them -- one-to-one with SConIndex array.
	Syns []Synapse

	// delay queue scheduling delivery of pushed spikes; built from the
	// per-synapse delays in BuildQueue.
	Queue *SpikeQueue

	// summation kernel producing GInc from delivered events.
	SummKern *SummKernel

	// per-recv unit accumulator written in full by the summation
	// kernel each step, then integrated into the recv group's GeRaw.
	GInc []float32

	// per-step average and max delivered event count, over steps so far.
	DelivStats minmax.AvgMax32 `edit:"-" display:"inline"`

	// number of recv connections for each neuron in the receiving layer,
	// as a flat list.
	RConN []int32 `display:"-"`

	// average and maximum number of recv connections in the receiving layer.
	RConNAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// starting index into ConIndex list for each neuron in
	// receiving layer; list incremented by ConN.
	RConIndexSt []int32 `display:"-"`

	// index of other neuron on sending side of pathway,
	// ordered by the receiving layer's order of units as the
	// outer loop, and then by the sending layer's units within that.
	RConIndex []int32 `display:"-"`

	// index of synaptic state values for each recv unit x connection,
	// for the receiver pathway which does not own the synapses,
	// and instead indexes into sender-ordered list.
	RSynIndex []int32 `display:"-"`

	// number of sending connections for each neuron in the
	// sending layer, as a flat list.
	SConN []int32 `display:"-"`

	// average and maximum number of sending connections
	// in the sending layer.
	SConNAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// starting index into ConIndex list for each neuron in
	// sending layer; list incremented by ConN.
	SConIndexSt []int32 `display:"-"`

	// index of other neuron on receiving side of pathway,
	// ordered by the sending layer's order of units as the
	// outer loop, and then by the sending layer's units within that.
	SConIndex []int32 `display:"-"`

	// scratch target-index list rebuilt from delivered synapses each step.
	targets []int32

	// scratch weight list parallel to targets.
	weights []float32
}

// params.Styler interface

func (pt *Path) StyleType() string  { return "Path" }
func (pt *Path) StyleClass() string { return pt.Class }
func (pt *Path) StyleName() string  { return pt.Name }
func (pt *Path) StyleObject() any   { return pt }

func (pt *Path) Defaults() {
	pt.WtInit.Defaults()
	pt.DelayInit.Defaults()
	pt.Summ.Defaults()
	pt.MaxDelay = 0
}

// UpdateParams updates all params given any changes that might have been made to individual values
func (pt *Path) UpdateParams() {
	pt.WtInit.Update()
	pt.DelayInit.Update()
	pt.Summ.Update()
}

// ApplyParams applies given parameter style Sheet to this pathway.
// Calls UpdateParams if anything set to ensure derived parameters are all updated.
// If setMsg is true, then a message is printed to confirm each parameter that is set.
// it always prints a message if a parameter fails to be set.
// returns true if any params were set, and error if there were any errors.
func (pt *Path) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	app, err := pars.Apply(pt, setMsg)
	if app {
		pt.UpdateParams()
	}
	return app, err
}

// Connect sets the connectivity between two groups and the pattern to use in interconnecting them
func (pt *Path) Connect(slay, rlay *Group, pat paths.Pattern) {
	pt.Send = slay
	pt.Recv = rlay
	pt.Pattern = pat
	pt.Name = pt.Send.Name + "To" + pt.Recv.Name
}

// Validate tests for non-nil settings for the pathway -- returns error
// message or nil if no problems (and logs them if logmsg = true)
func (pt *Path) Validate(logmsg bool) error {
	emsg := ""
	if pt.Pattern == nil {
		emsg += "Pat is nil; "
	}
	if pt.Recv == nil {
		emsg += "Recv is nil; "
	}
	if pt.Send == nil {
		emsg += "Send is nil; "
	}
	if emsg != "" {
		err := errors.New(emsg)
		if logmsg {
			log.Println(emsg)
		}
		return err
	}
	return nil
}

// Build constructs the full connectivity among the groups as specified
// in this pathway, allocates the synapses and the per-recv accumulator,
// and initializes weights and delays.  BuildQueue must follow (Network
// Build does this) -- it is separate so per-synapse delays can be edited
// between the two.
func (pt *Path) Build() error {
	if pt.Off {
		return nil
	}
	err := pt.Validate(true)
	if err != nil {
		return err
	}
	ssh := &pt.Send.Shape
	rsh := &pt.Recv.Shape
	sendn, recvn, cons := pt.Pattern.Connect(ssh, rsh, pt.Recv == pt.Send)
	slen := ssh.Len()
	rlen := rsh.Len()
	tcons := pt.SetNIndexSt(&pt.SConN, &pt.SConNAvgMax, &pt.SConIndexSt, sendn)
	tconr := pt.SetNIndexSt(&pt.RConN, &pt.RConNAvgMax, &pt.RConIndexSt, recvn)
	if tconr != tcons {
		log.Printf("%v programmer error: total recv cons %v != total send cons %v\n", pt.String(), tconr, tcons)
	}
	pt.RConIndex = make([]int32, tconr)
	pt.RSynIndex = make([]int32, tconr)
	pt.SConIndex = make([]int32, tcons)

	sconN := make([]int32, slen) // temporary mem needed to tracks cur n of sending cons

	cbits := cons.Values
	for ri := 0; ri < rlen; ri++ {
		rbi := ri * slen     // recv bit index
		rtcn := pt.RConN[ri] // number of cons
		rst := pt.RConIndexSt[ri]
		rci := int32(0)
		for si := 0; si < slen; si++ {
			if !cbits.Index(rbi + si) { // no connection
				continue
			}
			sst := pt.SConIndexSt[si]
			if rci >= rtcn {
				log.Printf("%v programmer error: recv target total con number: %v exceeded at recv idx: %v, send idx: %v\n", pt.String(), rtcn, ri, si)
				break
			}
			pt.RConIndex[rst+rci] = int32(si)

			sci := sconN[si]
			stcn := pt.SConN[si]
			if sci >= stcn {
				log.Printf("%v programmer error: send target total con number: %v exceeded at recv idx: %v, send idx: %v\n", pt.String(), stcn, ri, si)
				break
			}
			pt.SConIndex[sst+sci] = int32(ri)
			pt.RSynIndex[rst+rci] = sst + sci
			(sconN[si])++
			rci++
		}
	}
	pt.Syns = make([]Synapse, len(pt.SConIndex))
	pt.GInc = make([]float32, rlen)
	pt.InitWts()
	return nil
}

// BuildQueue constructs the delay queue and the summation kernel from
// the current per-synapse delays.  Call again after editing delays.
// A delay >= the ring capacity is a configuration error returned here.
func (pt *Path) BuildQueue() error {
	if pt.Off {
		return nil
	}
	delays := make([]int32, len(pt.Syns))
	for si := range pt.Syns {
		delays[si] = int32(pt.Syns[si].Delay)
	}
	sq, err := NewSpikeQueue(pt.MaxDelay, delays, pt.SConN, pt.SConIndexSt)
	if err != nil {
		return fmt.Errorf("%v: %w", pt.String(), err)
	}
	pt.Queue = sq
	pt.SummKern = NewSummKernel(pt.Summ, len(pt.GInc))
	pt.DelivStats.Init()
	return nil
}

// SetNIndexSt sets the *ConN and *ConIndexSt values given n tensor from Pat.
// Returns total number of connections for this direction.
func (pt *Path) SetNIndexSt(n *[]int32, avgmax *minmax.AvgMax32, idxst *[]int32, tn *tensor.Int32) int32 {
	ln := tn.Len()
	tnv := tn.Values
	*n = make([]int32, ln)
	*idxst = make([]int32, ln)
	idx := int32(0)
	avgmax.Init()
	for i := 0; i < ln; i++ {
		nv := tnv[i]
		(*n)[i] = nv
		(*idxst)[i] = idx
		idx += nv
		avgmax.UpdateValue(float32(nv), int32(i))
	}
	avgmax.CalcAvg()
	return idx
}

// SynIndex returns the index of the synapse between given send, recv unit indexes
// (1D, flat indexes). Returns -1 if synapse not found between these two neurons.
// Requires searching within connections for sending unit.
func (pt *Path) SynIndex(sidx, ridx int) int {
	nc := int(pt.SConN[sidx])
	st := int(pt.SConIndexSt[sidx])
	for ci := 0; ci < nc; ci++ {
		ri := int(pt.SConIndex[st+ci])
		if ri != ridx {
			continue
		}
		return st + ci
	}
	return -1
}

// NumSyns returns the number of synapses for this path.
func (pt *Path) NumSyns() int {
	return len(pt.Syns)
}

// SynValue returns value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes).
// Returns NaN if synapse or variable not found.
func (pt *Path) SynValue(varNm string, sidx, ridx int) float32 {
	syi := pt.SynIndex(sidx, ridx)
	if syi < 0 {
		return math32.NaN()
	}
	val, err := pt.Syns[syi].VarByName(varNm)
	if err != nil {
		return math32.NaN()
	}
	return val
}

// SetSynValue sets value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes).
// Returns error for access errors.
func (pt *Path) SetSynValue(varNm string, sidx, ridx int, val float32) error {
	syi := pt.SynIndex(sidx, ridx)
	if syi < 0 {
		return fmt.Errorf("%v: no synapse between send %d and recv %d", pt.String(), sidx, ridx)
	}
	return pt.Syns[syi].SetVarByName(varNm, val)
}

// String satisfies fmt.Stringer for path
func (pt *Path) String() string {
	str := ""
	if pt.Recv == nil {
		str += "recv=nil; "
	} else {
		str += pt.Recv.Name + " <- "
	}
	if pt.Send == nil {
		str += "send=nil"
	} else {
		str += pt.Send.Name
	}
	if pt.Pattern == nil {
		str += " Pat=nil"
	} else {
		str += " Pat=" + pt.Pattern.Name()
	}
	return str
}
