// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/core/tensor"
	"github.com/emer/emergent/v2/params"
)

// Group is a population of N neurons sharing one spikespace and one
// threshold kernel: the spiking analog of a layer.  It owns the named
// per-neuron state arrays; pathways receive resolved handles into them
// at Build, never ownership.
type Group struct {

	// name of the group -- must be unique within the network.
	Name string

	// class is for applying parameter styles, can be space separated multiple tags.
	Class string

	// inactivate this group -- allows for easy experimentation.
	Off bool

	// number of neurons in the group.
	N int

	// shape of the group, 1D of length N -- connectivity patterns
	// operate on shapes.
	Shape tensor.Shape

	// threshold / reset kernel parameters.
	Thresh ThreshParams `display:"inline"`

	// named per-neuron state arrays.
	Vars *VarStore

	// per-neuron boolean condition consumed by the threshold kernel.
	// written each step by CondFunc when set, or directly by the caller
	// (the neuron dynamics evaluator) otherwise.
	Cond []bool

	// optional per-neuron condition evaluator, called by the network at
	// the start of each step to fill Cond.
	CondFunc func(ctx *Context, ni int) bool `display:"-"`

	// spikespace buffer holding this step's spike list + count.
	SS *SpikeSpace

	// threshold kernel writing into SS.
	Thresholder *Thresholder

	// resolved NotRefractory handle (1 = may spike, 0 = refractory).
	NotRefractory []float32

	// resolved LastSpike handle (time of most recent spike, -1 = never).
	LastSpike []float32

	// resolved GeRaw handle: per-step summed input from all recv pathways.
	GeRaw []float32

	// per-step average and max spike count, over steps so far.
	SpikeStats minmax.AvgMax32 `edit:"-" display:"inline"`

	// list of receiving pathways into this group from other groups.
	RecvPaths []*Path

	// list of sending pathways from this group to other groups.
	SendPaths []*Path
}

// params.Styler interface

func (gp *Group) StyleType() string  { return "Group" }
func (gp *Group) StyleClass() string { return gp.Class }
func (gp *Group) StyleName() string  { return gp.Name }
func (gp *Group) StyleObject() any   { return gp }

func (gp *Group) Defaults() {
	gp.Thresh.Defaults()
}

// UpdateParams updates all params given any changes that might have been made to individual values
func (gp *Group) UpdateParams() {
	gp.Thresh.Update()
	if gp.Thresholder != nil {
		gp.Thresholder.Thresh = gp.Thresh
	}
}

// ApplyParams applies given parameter style Sheet to this group and its recv pathways.
// Calls UpdateParams on anything set to ensure derived parameters are all updated.
// If setMsg is true, then a message is printed to confirm each parameter that is set.
// it always prints a message if a parameter fails to be set.
// returns true if any params were set, and error if there were any errors.
func (gp *Group) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	app, err := pars.Apply(gp, setMsg)
	if app {
		gp.UpdateParams()
		applied = true
	}
	if err != nil {
		rerr = err
	}
	for _, pt := range gp.RecvPaths {
		app, err = pt.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

// Build allocates the state arrays, spikespace and threshold kernel.
// Must be called before any pathway Build that references this group.
func (gp *Group) Build() error {
	if gp.N <= 0 {
		return fmt.Errorf("spike.Group: %v: N must be > 0, got %d", gp.Name, gp.N)
	}
	gp.Shape.SetShape([]int{gp.N}, "Neurons")
	gp.Vars = NewVarStore(gp.N)
	for _, nm := range GroupVars {
		gp.Vars.Add(nm)
	}
	var err error
	if gp.NotRefractory, err = gp.Vars.Values("NotRefractory"); err != nil {
		return err
	}
	if gp.LastSpike, err = gp.Vars.Values("LastSpike"); err != nil {
		return err
	}
	if gp.GeRaw, err = gp.Vars.Values("GeRaw"); err != nil {
		return err
	}
	gp.Cond = make([]bool, gp.N)
	gp.SS = NewSpikeSpace(gp.N)
	gp.Thresholder, err = NewThresholder(gp.Thresh, gp.N, gp.SS, gp.NotRefractory, gp.LastSpike)
	if err != nil {
		return fmt.Errorf("spike.Group: %v: %w", gp.Name, err)
	}
	gp.InitState()
	return nil
}

// InitState initializes all run state: every neuron non-refractory,
// never spiked, zero input, empty spikespace.
func (gp *Group) InitState() {
	for ni := 0; ni < gp.N; ni++ {
		gp.NotRefractory[ni] = 1
		gp.LastSpike[ni] = -1
		gp.GeRaw[ni] = 0
		gp.Cond[ni] = false
	}
	gp.SS.Reset()
	gp.SpikeStats.Init()
}

// EvalCond fills Cond from CondFunc if one is set.
func (gp *Group) EvalCond(ctx *Context) {
	if gp.CondFunc == nil {
		return
	}
	for ni := 0; ni < gp.N; ni++ {
		gp.Cond[ni] = gp.CondFunc(ctx, ni)
	}
}

// RunThresh runs the threshold / reset kernel over the current Cond,
// writing this step's spike list into the spikespace.
func (gp *Group) RunThresh(bk Backend, ctx *Context) {
	if gp.Off {
		return
	}
	gp.EvalCond(ctx)
	gp.Thresholder.Run(bk, gp.Cond, ctx.Time)
	gp.SpikeStats.UpdateValue(float32(gp.SS.Count()), int32(ctx.Step))
}

// GFromInc integrates the summed input from all receiving pathways into
// GeRaw, which is rewritten from scratch each step (replace semantics:
// zero, then sum of each pathway's accumulator).
func (gp *Group) GFromInc() {
	if gp.Off {
		return
	}
	for ri := range gp.GeRaw {
		gp.GeRaw[ri] = 0
	}
	for _, pt := range gp.RecvPaths {
		pt.RecvGInc()
	}
}

// UnitValue returns the value of the given variable name for the given
// neuron index, NaN on invalid name or index.
func (gp *Group) UnitValue(varNm string, ni int) float32 {
	if ni < 0 || ni >= gp.N {
		return math32.NaN()
	}
	vals, err := gp.Vars.Values(varNm)
	if err != nil {
		return math32.NaN()
	}
	return vals[ni]
}
